package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStore issues namespace DDL against the database catalog. It holds
// no state of its own: existence is always answered from pg_namespace, so
// out-of-band schema changes are observed.
type SchemaStore struct {
	db *pgxpool.Pool
}

func NewSchemaStore(db *pgxpool.Pool) *SchemaStore {
	return &SchemaStore{db: db}
}

func (s *SchemaStore) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create creates the schema, optionally copying table structure from a
// reference schema, all within one transaction. With FailIfExists unset a
// pre-existing schema is success and the clone step is skipped.
func (s *SchemaStore) Create(ctx context.Context, name string, opts domain.CreateSchemaOpts) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if opts.FailIfExists {
			if _, err := tx.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{name}.Sanitize()); err != nil {
				var pgErr *pgconn.PgError
				// 42P06 duplicate_schema
				if errors.As(err, &pgErr) && pgErr.Code == "42P06" {
					return ErrConflict
				}
				return err
			}
		} else {
			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)`,
				name,
			).Scan(&exists)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
			if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{name}.Sanitize()); err != nil {
				return err
			}
		}

		if opts.CloneFrom != "" {
			return cloneTables(ctx, tx, opts.CloneFrom, name)
		}
		return nil
	})
}

// Drop destroys the schema and everything in it. Dropping a schema that
// does not exist is success, which keeps rollback paths simple.
func (s *SchemaStore) Drop(ctx context.Context, name string) error {
	_, err := s.db.Exec(ctx,
		"DROP SCHEMA IF EXISTS "+pgx.Identifier{name}.Sanitize()+" CASCADE")
	return err
}

// cloneTables copies the table structure (columns, constraints, indexes,
// defaults) of every base table in src into dst. Data is not copied.
func cloneTables(ctx context.Context, tx pgx.Tx, src, dst string) error {
	rows, err := tx.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
		src,
	)
	if err != nil {
		return fmt.Errorf("list tables of %q: %w", src, err)
	}
	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, t := range tables {
		stmt := fmt.Sprintf("CREATE TABLE %s (LIKE %s INCLUDING ALL)",
			pgx.Identifier{dst, t}.Sanitize(),
			pgx.Identifier{src, t}.Sanitize(),
		)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("clone table %s.%s: %w", src, t, err)
		}
	}
	return nil
}

// Verify interface compliance at compile time
var _ domain.SchemaManager = (*SchemaStore)(nil)
