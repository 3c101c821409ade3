package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/Harshitk-cp/tenantry/internal/service"
	"github.com/Harshitk-cp/tenantry/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type DomainHandler struct {
	router  *service.RouterService
	tenants domain.TenantStore
}

func NewDomainHandler(router *service.RouterService, tenants domain.TenantStore) *DomainHandler {
	return &DomainHandler{router: router, tenants: tenants}
}

type saveDomainRequest struct {
	Domain    string `json:"domain"`
	TenantID  string `json:"tenant_id"`
	IsPrimary bool   `json:"is_primary"`
}

func (h *DomainHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant_id")
		return
	}
	if _, err := h.tenants.GetByID(r.Context(), tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load tenant")
		}
		return
	}

	d := &domain.Domain{
		Domain:    req.Domain,
		TenantID:  tenantID,
		IsPrimary: req.IsPrimary,
	}
	if err := h.router.SaveDomain(r.Context(), d); err != nil {
		if errors.Is(err, domain.ErrInvalidDomain) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "failed to save domain")
		}
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// ListByTenant returns every domain bound to the tenant in the URL.
func (h *DomainHandler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantIDFromSchema(w, r)
	if !ok {
		return
	}

	domains, err := h.router.DomainsForTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list domains")
		return
	}
	if domains == nil {
		domains = []domain.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

// Primary returns the tenant's primary domain.
func (h *DomainHandler) Primary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantIDFromSchema(w, r)
	if !ok {
		return
	}

	d, err := h.router.PrimaryDomain(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			writeError(w, http.StatusNotFound, "tenant has no primary domain")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load primary domain")
		}
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DomainHandler) tenantIDFromSchema(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenant, err := h.tenants.GetBySchemaName(r.Context(), chi.URLParam(r, "schema"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load tenant")
		}
		return uuid.Nil, false
	}
	return tenant.ID, true
}
