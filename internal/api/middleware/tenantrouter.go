package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/Harshitk-cp/tenantry/internal/service"
	"github.com/Harshitk-cp/tenantry/internal/session"
	"go.uber.org/zap"
)

type contextKey string

const tenantContextKey contextKey = "tenant"

// TenantFromContext returns the tenant resolved for this request, or nil
// on routes outside the tenant router.
func TenantFromContext(ctx context.Context) *domain.Tenant {
	t, _ := ctx.Value(tenantContextKey).(*domain.Tenant)
	return t
}

// TenantRouter resolves the request host to a tenant, stores the tenant
// in the request context and activates its schema on the context so
// downstream tenant-scoped work sees the right namespace. Unresolvable
// hosts get a 404 after the fallback list is exhausted.
func TenantRouter(router *service.RouterService, fallbacks []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostname(r.Host)

			tenant, err := router.Resolve(r.Context(), host, fallbacks...)
			if err != nil {
				if errors.Is(err, service.ErrDomainNotFound) {
					writeError(w, http.StatusNotFound, "no tenant for host")
					return
				}
				logger.Error("tenant resolution failed", zap.String("host", host), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "tenant resolution failed")
				return
			}

			ctx := context.WithValue(r.Context(), tenantContextKey, tenant)
			ctx = session.Activate(ctx, tenant.SchemaName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// hostname strips a port from a Host header value when present.
func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
