package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/Harshitk-cp/tenantry/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockTenantStore implements domain.TenantStore in memory.
type mockTenantStore struct {
	tenants   map[uuid.UUID]*domain.Tenant
	createErr error
	deleteErr error
}

func newMockTenantStore() *mockTenantStore {
	return &mockTenantStore{tenants: make(map[uuid.UUID]*domain.Tenant)}
}

func (m *mockTenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.tenants {
		if existing.SchemaName == t.SchemaName {
			return store.ErrConflict
		}
	}
	t.ID = uuid.New()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tenants[t.ID] = t
	return nil
}

func (m *mockTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m *mockTenantStore) GetBySchemaName(ctx context.Context, schemaName string) (*domain.Tenant, error) {
	for _, t := range m.tenants {
		if t.SchemaName == schemaName {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockTenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	var out []domain.Tenant
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTenantStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.tenants[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.tenants, id)
	return nil
}

// mockSchemaManager implements domain.SchemaManager in memory.
type mockSchemaManager struct {
	schemas    map[string]bool
	createErr  error
	dropErr    error
	createOpts []domain.CreateSchemaOpts
	dropped    []string
}

func newMockSchemaManager() *mockSchemaManager {
	return &mockSchemaManager{schemas: make(map[string]bool)}
}

func (m *mockSchemaManager) Exists(ctx context.Context, name string) (bool, error) {
	return m.schemas[name], nil
}

func (m *mockSchemaManager) Create(ctx context.Context, name string, opts domain.CreateSchemaOpts) error {
	m.createOpts = append(m.createOpts, opts)
	if m.createErr != nil {
		return m.createErr
	}
	if m.schemas[name] {
		if opts.FailIfExists {
			return store.ErrConflict
		}
		return nil
	}
	m.schemas[name] = true
	return nil
}

func (m *mockSchemaManager) Drop(ctx context.Context, name string) error {
	if m.dropErr != nil {
		return m.dropErr
	}
	m.dropped = append(m.dropped, name)
	delete(m.schemas, name)
	return nil
}

// capturePublisher records published events in order.
type capturePublisher struct {
	events []domain.Event
}

func (p *capturePublisher) Publish(ctx context.Context, e domain.Event) {
	p.events = append(p.events, e)
}

func newLifecycle(policy domain.ProvisioningPolicy) (*LifecycleService, *mockTenantStore, *mockSchemaManager, *capturePublisher) {
	tenants := newMockTenantStore()
	schemas := newMockSchemaManager()
	events := &capturePublisher{}
	svc := NewLifecycleService(tenants, schemas, events, policy, zap.NewNop())
	return svc, tenants, schemas, events
}

func TestCreateTenant_AutoCreate(t *testing.T) {
	svc, tenants, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true})

	tenant := &domain.Tenant{SchemaName: "acme", Name: "Acme Inc"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	if !schemas.schemas["acme"] {
		t.Error("schema should have been created")
	}
	if _, err := tenants.GetBySchemaName(context.Background(), "acme"); err != nil {
		t.Errorf("tenant lookup = %v, want nil", err)
	}
	if len(events.events) != 1 || events.events[0].Kind != domain.EventPostSync {
		t.Fatalf("events = %+v, want one post_sync", events.events)
	}
	if events.events[0].Tenant.Tenant == nil {
		t.Error("post_sync snapshot should carry the full tenant by default")
	}
}

func TestCreateTenant_SnapshotIDOnly(t *testing.T) {
	svc, _, _, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true, SnapshotIDOnly: true})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	snap := events.events[0].Tenant
	if snap.Tenant != nil {
		t.Error("snapshot should be reduced to schema name only")
	}
	if snap.SchemaName != "acme" {
		t.Errorf("snapshot schema = %q, want acme", snap.SchemaName)
	}
}

func TestCreateTenant_AutoCreateDisabled(t *testing.T) {
	svc, tenants, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: false})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	if schemas.schemas["acme"] {
		t.Error("no schema should have been created")
	}
	if _, err := tenants.GetBySchemaName(context.Background(), "acme"); err != nil {
		t.Errorf("tenant row should exist, lookup = %v", err)
	}
	if len(events.events) != 1 || events.events[0].Kind != domain.EventNeedsSync {
		t.Fatalf("events = %+v, want one needs_sync", events.events)
	}
}

func TestCreateTenant_SchemaFailureRollsBack(t *testing.T) {
	svc, tenants, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true})
	cause := errors.New("deadlock detected")
	schemas.createErr = cause

	tenant := &domain.Tenant{SchemaName: "acme"}
	err := svc.CreateTenant(context.Background(), tenant, nil)

	var pcErr *PartialCreationError
	if !errors.As(err, &pcErr) {
		t.Fatalf("CreateTenant() = %v, want *PartialCreationError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("original error should be reachable via Unwrap")
	}

	// All-or-nothing: no row, no schema.
	if _, err := tenants.GetBySchemaName(context.Background(), "acme"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tenant lookup = %v, want ErrNotFound", err)
	}
	if exists, _ := schemas.Exists(context.Background(), "acme"); exists {
		t.Error("schema should not exist after rollback")
	}

	// Compensation goes through the forced delete path, so pre_drop fires.
	if len(events.events) != 1 || events.events[0].Kind != domain.EventPreDrop {
		t.Fatalf("events = %+v, want one pre_drop", events.events)
	}
}

func TestCreateTenant_InvalidSchemaName(t *testing.T) {
	svc, tenants, _, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true})

	err := svc.CreateTenant(context.Background(), &domain.Tenant{SchemaName: "pg_acme"}, nil)
	if !errors.Is(err, domain.ErrInvalidSchemaName) {
		t.Fatalf("CreateTenant() = %v, want ErrInvalidSchemaName", err)
	}
	if len(tenants.tenants) != 0 {
		t.Error("nothing should be persisted on validation failure")
	}
	if len(events.events) != 0 {
		t.Error("no events on validation failure")
	}
}

func TestCreateTenant_CloneFrom(t *testing.T) {
	svc, _, schemas, _ := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true, CloneFrom: "template"})

	if err := svc.CreateTenant(context.Background(), &domain.Tenant{SchemaName: "acme"}, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}
	if len(schemas.createOpts) != 1 || schemas.createOpts[0].CloneFrom != "template" {
		t.Errorf("create opts = %+v, want CloneFrom=template", schemas.createOpts)
	}
}

func TestCreateTenant_PolicyOverride(t *testing.T) {
	svc, _, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true})

	override := &domain.ProvisioningPolicy{AutoCreateSchema: false}
	if err := svc.CreateTenant(context.Background(), &domain.Tenant{SchemaName: "acme"}, override); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}
	if schemas.schemas["acme"] {
		t.Error("override should have disabled schema creation")
	}
	if len(events.events) != 1 || events.events[0].Kind != domain.EventNeedsSync {
		t.Fatalf("events = %+v, want one needs_sync", events.events)
	}
}

func TestEnsureSchema_Creates(t *testing.T) {
	svc, tenants, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: false})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	if err := svc.EnsureSchema(context.Background(), tenant, nil); err != nil {
		t.Fatalf("EnsureSchema() = %v", err)
	}
	if !schemas.schemas["acme"] {
		t.Error("schema should exist after sync")
	}
	if _, err := tenants.GetBySchemaName(context.Background(), "acme"); err != nil {
		t.Errorf("tenant lookup = %v", err)
	}
	// needs_sync from create, post_sync from ensure.
	if len(events.events) != 2 || events.events[1].Kind != domain.EventPostSync {
		t.Fatalf("events = %+v, want needs_sync then post_sync", events.events)
	}
}

func TestEnsureSchema_NoopWhenPresent(t *testing.T) {
	svc, _, schemas, events := newLifecycle(domain.ProvisioningPolicy{})
	schemas.schemas["acme"] = true

	tenant := &domain.Tenant{ID: uuid.New(), SchemaName: "acme"}
	if err := svc.EnsureSchema(context.Background(), tenant, nil); err != nil {
		t.Fatalf("EnsureSchema() = %v", err)
	}
	if len(schemas.createOpts) != 0 {
		t.Error("no DDL expected when the schema already exists")
	}
	if len(events.events) != 0 {
		t.Error("no events expected when the schema already exists")
	}
}

func TestEnsureSchema_FailurePreservesRecord(t *testing.T) {
	svc, tenants, schemas, _ := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: false})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	cause := errors.New("out of disk")
	schemas.createErr = cause

	err := svc.EnsureSchema(context.Background(), tenant, nil)
	var psErr *PartialSyncError
	if !errors.As(err, &psErr) {
		t.Fatalf("EnsureSchema() = %v, want *PartialSyncError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("original error should be reachable via Unwrap")
	}

	// Record survives, schema does not.
	if _, err := tenants.GetBySchemaName(context.Background(), "acme"); err != nil {
		t.Errorf("tenant record should be preserved, lookup = %v", err)
	}
	if exists, _ := schemas.Exists(context.Background(), "acme"); exists {
		t.Error("schema should have been dropped")
	}
}

func TestDeleteTenant_ForceDrop(t *testing.T) {
	svc, tenants, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	if err := svc.DeleteTenant(context.Background(), tenant, true); err != nil {
		t.Fatalf("DeleteTenant() = %v", err)
	}

	if schemas.schemas["acme"] {
		t.Error("schema should have been dropped")
	}
	if _, err := tenants.GetByID(context.Background(), tenant.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tenant lookup = %v, want ErrNotFound", err)
	}
	last := events.events[len(events.events)-1]
	if last.Kind != domain.EventPreDrop {
		t.Errorf("last event = %v, want pre_drop", last.Kind)
	}
}

func TestDeleteTenant_KeepsSchemaByDefault(t *testing.T) {
	svc, tenants, schemas, _ := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true, AutoDropSchema: false})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	if err := svc.DeleteTenant(context.Background(), tenant, false); err != nil {
		t.Fatalf("DeleteTenant() = %v", err)
	}

	// Orphaned on purpose: the schema outlives the row.
	if !schemas.schemas["acme"] {
		t.Error("schema should survive record deletion")
	}
	if _, err := tenants.GetByID(context.Background(), tenant.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tenant lookup = %v, want ErrNotFound", err)
	}
}

func TestDeleteTenant_AutoDropPolicy(t *testing.T) {
	svc, _, schemas, events := newLifecycle(domain.ProvisioningPolicy{AutoCreateSchema: true, AutoDropSchema: true})

	tenant := &domain.Tenant{SchemaName: "acme"}
	if err := svc.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("CreateTenant() = %v", err)
	}

	if err := svc.DeleteTenant(context.Background(), tenant, false); err != nil {
		t.Fatalf("DeleteTenant() = %v", err)
	}
	if schemas.schemas["acme"] {
		t.Error("auto-drop policy should drop the schema")
	}
	if events.events[len(events.events)-1].Kind != domain.EventPreDrop {
		t.Error("pre_drop should fire before the schema drop")
	}
}
