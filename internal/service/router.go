package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/Harshitk-cp/tenantry/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDomainNotFound = errors.New("domain not found")

// RouterService maintains the domain-to-tenant mapping and enforces the
// single-primary-domain invariant on the write path.
type RouterService struct {
	domains domain.DomainStore
	tenants domain.TenantStore
	logger  *zap.Logger
}

func NewRouterService(domains domain.DomainStore, tenants domain.TenantStore, logger *zap.Logger) *RouterService {
	return &RouterService{domains: domains, tenants: tenants, logger: logger}
}

// SaveDomain persists d in one transaction. The first domain saved for a
// tenant becomes primary regardless of what the caller asked for; saving
// a domain as primary demotes every other primary of the same tenant
// within the same transaction.
func (s *RouterService) SaveDomain(ctx context.Context, d *domain.Domain) error {
	if err := domain.ValidateDomain(d.Domain); err != nil {
		return err
	}
	if d.TenantID == uuid.Nil {
		return errors.New("tenant_id is required")
	}

	return s.domains.InTx(ctx, func(tx domain.DomainTx) error {
		if d.ID == uuid.Nil {
			// Saves arrive keyed by name. Resolve the row identity
			// first so a re-saved domain is not counted among its own
			// tenant's other primaries.
			id, err := tx.IDForName(ctx, d.Domain)
			if err != nil {
				return err
			}
			d.ID = id
		}
		others, err := tx.OtherPrimaries(ctx, d.TenantID, d.ID)
		if err != nil {
			return err
		}
		d.IsPrimary = d.IsPrimary || len(others) == 0
		if d.IsPrimary && len(others) > 0 {
			if err := tx.Demote(ctx, d.TenantID, d.ID); err != nil {
				return err
			}
		}
		return tx.Save(ctx, d)
	})
}

// Resolve maps an inbound host to its tenant, trying fallbacks in order
// when there is no exact match.
func (s *RouterService) Resolve(ctx context.Context, host string, fallbacks ...string) (*domain.Tenant, error) {
	for _, name := range append([]string{host}, fallbacks...) {
		d, err := s.domains.GetByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		t, err := s.tenants.GetByID(ctx, d.TenantID)
		if errors.Is(err, store.ErrNotFound) {
			// Routing row outlived its tenant; keep trying fallbacks.
			s.logger.Warn("domain points at missing tenant",
				zap.String("domain", d.Domain),
				zap.String("tenant_id", d.TenantID.String()),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, ErrDomainNotFound
}

// PrimaryDomain returns the tenant's primary domain, or ErrDomainNotFound
// when the tenant has no domains yet.
func (s *RouterService) PrimaryDomain(ctx context.Context, tenantID uuid.UUID) (*domain.Domain, error) {
	d, err := s.domains.PrimaryForTenant(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDomainNotFound
	}
	return d, err
}

// DomainsForTenant lists every domain bound to the tenant.
func (s *RouterService) DomainsForTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Domain, error) {
	return s.domains.ListByTenant(ctx, tenantID)
}
