package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"go.uber.org/zap"
)

// PartialCreationError reports that schema creation failed after the
// tenant record was persisted. The record and any partially created
// schema have already been rolled back when this is returned.
type PartialCreationError struct {
	SchemaName string
	Err        error
}

func (e *PartialCreationError) Error() string {
	return fmt.Sprintf("tenant %q rolled back after schema creation failed: %v", e.SchemaName, e.Err)
}

func (e *PartialCreationError) Unwrap() error { return e.Err }

// PartialSyncError reports that schema creation failed for a tenant
// record that already existed. The schema has been dropped; the record is
// preserved.
type PartialSyncError struct {
	SchemaName string
	Err        error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("schema %q dropped after sync failed: %v", e.SchemaName, e.Err)
}

func (e *PartialSyncError) Unwrap() error { return e.Err }

// LifecycleService orchestrates tenant record writes together with schema
// DDL: all-or-nothing creation, compensating cleanup on failure, and
// lifecycle event emission.
type LifecycleService struct {
	tenants domain.TenantStore
	schemas domain.SchemaManager
	events  domain.Publisher
	policy  domain.ProvisioningPolicy
	logger  *zap.Logger
}

func NewLifecycleService(
	tenants domain.TenantStore,
	schemas domain.SchemaManager,
	events domain.Publisher,
	policy domain.ProvisioningPolicy,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tenants: tenants,
		schemas: schemas,
		events:  events,
		policy:  policy,
		logger:  logger,
	}
}

// DefaultPolicy returns a copy of the policy the service was built with,
// for callers that want to override single fields per call.
func (s *LifecycleService) DefaultPolicy() domain.ProvisioningPolicy {
	return s.policy
}

// effectivePolicy resolves the per-call override against the service
// default.
func (s *LifecycleService) effectivePolicy(override *domain.ProvisioningPolicy) domain.ProvisioningPolicy {
	if override != nil {
		return *override
	}
	return s.policy
}

// CreateTenant persists the tenant record and, when the policy enables
// auto-creation, creates its schema. On schema failure the record is
// deleted and any partial schema dropped, so the caller never sees a
// tenant row without an effective schema. With auto-creation disabled a
// needs_sync event is emitted instead of issuing DDL.
func (s *LifecycleService) CreateTenant(ctx context.Context, t *domain.Tenant, override *domain.ProvisioningPolicy) error {
	if err := domain.ValidateSchemaName(t.SchemaName); err != nil {
		return err
	}
	policy := s.effectivePolicy(override)

	if err := s.tenants.Create(ctx, t); err != nil {
		return err
	}

	if !policy.AutoCreateSchema {
		s.events.Publish(ctx, domain.Event{
			Kind:   domain.EventNeedsSync,
			Tenant: t.Snapshot(policy.SnapshotIDOnly),
		})
		return nil
	}

	err := s.schemas.Create(ctx, t.SchemaName, domain.CreateSchemaOpts{CloneFrom: policy.CloneFrom})
	if err != nil {
		// Undo what this call created: the compensating delete also
		// force-drops any partially created schema.
		if derr := s.DeleteTenant(ctx, t, true); derr != nil {
			s.logger.Error("compensating tenant delete failed",
				zap.String("schema_name", t.SchemaName),
				zap.Error(derr),
			)
		}
		return &PartialCreationError{SchemaName: t.SchemaName, Err: err}
	}

	s.logger.Info("tenant schema created", zap.String("schema_name", t.SchemaName))
	s.events.Publish(ctx, domain.Event{
		Kind:   domain.EventPostSync,
		Tenant: t.Snapshot(policy.SnapshotIDOnly),
	})
	return nil
}

// EnsureSchema creates the schema for an existing tenant record whose
// schema is missing. On failure only the schema is dropped; the record
// pre-existed and is preserved. A no-op when the schema already exists.
func (s *LifecycleService) EnsureSchema(ctx context.Context, t *domain.Tenant, override *domain.ProvisioningPolicy) error {
	if err := domain.ValidateSchemaName(t.SchemaName); err != nil {
		return err
	}
	policy := s.effectivePolicy(override)

	exists, err := s.schemas.Exists(ctx, t.SchemaName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.schemas.Create(ctx, t.SchemaName, domain.CreateSchemaOpts{CloneFrom: policy.CloneFrom}); err != nil {
		if derr := s.schemas.Drop(ctx, t.SchemaName); derr != nil {
			s.logger.Error("compensating schema drop failed",
				zap.String("schema_name", t.SchemaName),
				zap.Error(derr),
			)
		}
		return &PartialSyncError{SchemaName: t.SchemaName, Err: err}
	}

	s.logger.Info("tenant schema synced", zap.String("schema_name", t.SchemaName))
	s.events.Publish(ctx, domain.Event{
		Kind:   domain.EventPostSync,
		Tenant: t.Snapshot(policy.SnapshotIDOnly),
	})
	return nil
}

// DeleteTenant deletes the tenant record. The schema is dropped first
// when forceDrop is set or the policy enables auto-drop; otherwise it is
// left behind on purpose, which keeps deletion reversible.
func (s *LifecycleService) DeleteTenant(ctx context.Context, t *domain.Tenant, forceDrop bool) error {
	if forceDrop || s.policy.AutoDropSchema {
		s.events.Publish(ctx, domain.Event{
			Kind:   domain.EventPreDrop,
			Tenant: t.Snapshot(s.policy.SnapshotIDOnly),
		})
		if err := s.schemas.Drop(ctx, t.SchemaName); err != nil {
			return fmt.Errorf("drop schema %q: %w", t.SchemaName, err)
		}
		s.logger.Info("tenant schema dropped", zap.String("schema_name", t.SchemaName))
	}
	return s.tenants.Delete(ctx, t.ID)
}
