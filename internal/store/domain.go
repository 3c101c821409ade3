package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DomainStore struct {
	db *pgxpool.Pool
}

func NewDomainStore(db *pgxpool.Pool) *DomainStore {
	return &DomainStore{db: db}
}

// InTx runs fn in one transaction. The router's save path does its
// read-demote-write sequence entirely inside this, so a failure anywhere
// rolls back the whole operation.
func (s *DomainStore) InTx(ctx context.Context, fn func(tx domain.DomainTx) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&domainTx{tx: tx})
	})
}

type domainTx struct {
	tx pgx.Tx
}

// IDForName resolves and locks the existing row for name. Upserts are
// keyed by name, so the row being re-saved must be identified up front
// or it would count against its own tenant's primaries.
func (t *domainTx) IDForName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx,
		`SELECT id FROM domains WHERE domain = $1 FOR UPDATE`, name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil
	}
	return id, err
}

// OtherPrimaries loads the tenant's primary domains other than the one
// being saved, locking the rows so concurrent saves for the same tenant
// serialize.
func (t *domainTx) OtherPrimaries(ctx context.Context, tenantID uuid.UUID, exclude uuid.UUID) ([]domain.Domain, error) {
	// FOR UPDATE locks no rows when the tenant has no domains yet, so
	// two concurrent first saves could both see an empty primary set.
	// The advisory lock serializes saves per tenant until commit.
	if _, err := t.tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, tenantID,
	); err != nil {
		return nil, err
	}

	rows, err := t.tx.Query(ctx,
		`SELECT id, tenant_id, domain, is_primary, created_at, updated_at
		 FROM domains
		 WHERE tenant_id = $1 AND is_primary AND id <> $2
		 FOR UPDATE`,
		tenantID, exclude,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []domain.Domain
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (t *domainTx) Demote(ctx context.Context, tenantID uuid.UUID, exclude uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE domains SET is_primary = FALSE, updated_at = NOW()
		 WHERE tenant_id = $1 AND is_primary AND id <> $2`,
		tenantID, exclude,
	)
	return err
}

func (t *domainTx) Save(ctx context.Context, d *domain.Domain) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO domains (domain, tenant_id, is_primary)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (domain) DO UPDATE
		 SET tenant_id = EXCLUDED.tenant_id,
		     is_primary = EXCLUDED.is_primary,
		     updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		d.Domain, d.TenantID, d.IsPrimary,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *DomainStore) GetByName(ctx context.Context, name string) (*domain.Domain, error) {
	return s.get(ctx,
		`SELECT id, tenant_id, domain, is_primary, created_at, updated_at
		 FROM domains WHERE domain = $1`, name)
}

func (s *DomainStore) PrimaryForTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Domain, error) {
	return s.get(ctx,
		`SELECT id, tenant_id, domain, is_primary, created_at, updated_at
		 FROM domains WHERE tenant_id = $1 AND is_primary`, tenantID)
}

func (s *DomainStore) get(ctx context.Context, query string, arg any) (*domain.Domain, error) {
	d := &domain.Domain{}
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *DomainStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Domain, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, domain, is_primary, created_at, updated_at
		 FROM domains WHERE tenant_id = $1 ORDER BY domain`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []domain.Domain
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (s *DomainStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM domains WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Verify interface compliance at compile time
var _ domain.DomainStore = (*DomainStore)(nil)
