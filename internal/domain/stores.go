package domain

import (
	"context"

	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySchemaName(ctx context.Context, schemaName string) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateSchemaOpts control schema creation.
type CreateSchemaOpts struct {
	// FailIfExists turns a pre-existing schema into an error instead of
	// a no-op success.
	FailIfExists bool
	// CloneFrom copies the named schema's table structure into the new
	// schema within the same transaction.
	CloneFrom string
}

// SchemaManager is the namespace store: thin DDL operations against the
// database catalog. No caching; existence can change out of band.
type SchemaManager interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string, opts CreateSchemaOpts) error
	Drop(ctx context.Context, name string) error
}

// DomainTx is the set of operations available inside one domain-routing
// transaction. OtherPrimaries takes row locks, so two saves racing to
// become primary for the same tenant serialize on the database.
type DomainTx interface {
	// IDForName resolves and locks the existing row for name, or returns
	// uuid.Nil when no such row exists. Saves are keyed by name, so the
	// row identity must be known before primaries are counted.
	IDForName(ctx context.Context, name string) (uuid.UUID, error)
	OtherPrimaries(ctx context.Context, tenantID uuid.UUID, exclude uuid.UUID) ([]Domain, error)
	Demote(ctx context.Context, tenantID uuid.UUID, exclude uuid.UUID) error
	Save(ctx context.Context, d *Domain) error
}

type DomainStore interface {
	// InTx runs fn inside a single transaction; any error rolls the
	// whole transaction back.
	InTx(ctx context.Context, fn func(tx DomainTx) error) error
	GetByName(ctx context.Context, name string) (*Domain, error)
	PrimaryForTenant(ctx context.Context, tenantID uuid.UUID) (*Domain, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Domain, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
