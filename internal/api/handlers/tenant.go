package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/Harshitk-cp/tenantry/internal/service"
	"github.com/Harshitk-cp/tenantry/internal/store"
	"github.com/go-chi/chi/v5"
)

type TenantHandler struct {
	lifecycle *service.LifecycleService
	tenants   domain.TenantStore
}

func NewTenantHandler(lifecycle *service.LifecycleService, tenants domain.TenantStore) *TenantHandler {
	return &TenantHandler{lifecycle: lifecycle, tenants: tenants}
}

type createTenantRequest struct {
	SchemaName string         `json:"schema_name"`
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	// AutoCreateSchema overrides the server default for this tenant.
	AutoCreateSchema *bool `json:"auto_create_schema,omitempty"`
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SchemaName == "" {
		writeError(w, http.StatusBadRequest, "schema_name is required")
		return
	}

	tenant := &domain.Tenant{
		SchemaName: req.SchemaName,
		Name:       req.Name,
		Metadata:   req.Metadata,
	}

	var override *domain.ProvisioningPolicy
	if req.AutoCreateSchema != nil {
		p := h.lifecycle.DefaultPolicy()
		p.AutoCreateSchema = *req.AutoCreateSchema
		override = &p
	}

	err := h.lifecycle.CreateTenant(r.Context(), tenant, override)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSchemaName):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "schema_name is taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create tenant")
		}
		return
	}

	writeJSON(w, http.StatusCreated, tenant)
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}
	if tenants == nil {
		tenants = []domain.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.lookup(w, r)
	if !ok {
		return
	}

	forceDrop, _ := strconv.ParseBool(r.URL.Query().Get("force_drop"))

	if err := h.lifecycle.DeleteTenant(r.Context(), tenant, forceDrop); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete tenant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync provisions the schema for a tenant whose schema is missing, e.g.
// one created with auto_create_schema=false.
func (h *TenantHandler) Sync(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.EnsureSchema(r.Context(), tenant, nil); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Tenant, bool) {
	schemaName := chi.URLParam(r, "schema")
	tenant, err := h.tenants.GetBySchemaName(r.Context(), schemaName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load tenant")
		}
		return nil, false
	}
	return tenant, true
}
