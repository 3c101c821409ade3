package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantStore struct {
	db *pgxpool.Pool
}

func NewTenantStore(db *pgxpool.Pool) *TenantStore {
	return &TenantStore{db: db}
}

func (s *TenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	metadataJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO tenants (schema_name, name, metadata) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.SchemaName, t.Name, metadataJSON,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.get(ctx,
		`SELECT id, schema_name, name, metadata, created_at, updated_at
		 FROM tenants WHERE id = $1`, id)
}

func (s *TenantStore) GetBySchemaName(ctx context.Context, schemaName string) (*domain.Tenant, error) {
	return s.get(ctx,
		`SELECT id, schema_name, name, metadata, created_at, updated_at
		 FROM tenants WHERE schema_name = $1`, schemaName)
}

func (s *TenantStore) get(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	var metadataJSON []byte
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.SchemaName, &t.Name, &metadataJSON, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return t, nil
}

func (s *TenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, schema_name, name, metadata, created_at, updated_at
		 FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		var metadataJSON []byte
		if err := rows.Scan(&t.ID, &t.SchemaName, &t.Name, &metadataJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *TenantStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Verify interface compliance at compile time
var _ domain.TenantStore = (*TenantStore)(nil)
