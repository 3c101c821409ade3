package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/tenantry/internal/api/handlers"
	mw "github.com/Harshitk-cp/tenantry/internal/api/middleware"
	"github.com/Harshitk-cp/tenantry/internal/bus"
	"github.com/Harshitk-cp/tenantry/internal/config"
	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/Harshitk-cp/tenantry/internal/service"
	"github.com/Harshitk-cp/tenantry/internal/session"
	"github.com/Harshitk-cp/tenantry/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App wires stores, services and the event bus behind the HTTP router.
type App struct {
	Router    *chi.Mux
	Bus       *bus.Bus
	Lifecycle *service.LifecycleService
	Routes    *service.RouterService
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	tenantStore := store.NewTenantStore(db)
	domainStore := store.NewDomainStore(db)
	schemaStore := store.NewSchemaStore(db)

	// Event bus with a default subscriber that logs milestones. External
	// provisioning tooling registers its own handlers via App.Bus.
	eventBus := bus.New(logger)
	eventBus.Subscribe(func(ctx context.Context, e domain.Event) error {
		logger.Info("tenant lifecycle event",
			zap.String("kind", string(e.Kind)),
			zap.String("schema_name", e.Tenant.SchemaName),
		)
		return nil
	})

	policy := domain.ProvisioningPolicy{
		AutoCreateSchema: config.AutoCreateSchemas(),
		AutoDropSchema:   config.AutoDropSchemas(),
		CloneFrom:        config.CloneReferenceSchema(),
		SnapshotIDOnly:   config.SnapshotIDOnly(),
	}

	// Services
	lifecycleSvc := service.NewLifecycleService(tenantStore, schemaStore, eventBus, policy, logger)
	routerSvc := service.NewRouterService(domainStore, tenantStore, logger)

	// Handlers
	tenantHandler := handlers.NewTenantHandler(lifecycleSvc, tenantStore)
	domainHandler := handlers.NewDomainHandler(routerSvc, tenantStore)

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := mw.NewMetrics(registry)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Bus:       eventBus,
		Lifecycle: lifecycleSvc,
		Routes:    routerSvc,
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no tenant resolution)
	r.Get("/health", healthHandler(db))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Admin surface: tenant lifecycle and routing table
	r.Route("/v1", func(r chi.Router) {
		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", tenantHandler.Create)
			r.Get("/", tenantHandler.List)
			r.Route("/{schema}", func(r chi.Router) {
				r.Get("/", tenantHandler.Get)
				r.Delete("/", tenantHandler.Delete)
				r.Post("/sync", tenantHandler.Sync)
				r.Get("/domains", domainHandler.ListByTenant)
				r.Get("/domains/primary", domainHandler.Primary)
			})
		})

		r.Post("/domains", domainHandler.Save)
	})

	// Tenant-scoped surface: requests are routed by Host through the
	// domain router and carry the resolved schema on their context.
	r.Route("/t", func(r chi.Router) {
		r.Use(mw.TenantRouter(routerSvc, config.FallbackDomains(), logger))
		r.Get("/whoami", whoamiHandler)
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that don't need the App.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// whoamiHandler reports which tenant the request resolved to and the
// schema active on the request context.
func whoamiHandler(w http.ResponseWriter, r *http.Request) {
	tenant := mw.TenantFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tenant":         tenant,
		"active_schema":  session.Current(r.Context()),
		"default_schema": session.DefaultSchema(),
	})
}

// Ensure stores satisfy the domain interfaces at compile time.
var (
	_ domain.TenantStore   = (*store.TenantStore)(nil)
	_ domain.DomainStore   = (*store.DomainStore)(nil)
	_ domain.SchemaManager = (*store.SchemaStore)(nil)
	_ domain.Publisher     = (*bus.Bus)(nil)
)
