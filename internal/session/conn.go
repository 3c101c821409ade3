package session

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execer is the slice of a pgx connection the session needs to switch
// schemas.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Conn binds an active schema to one database connection by driving its
// search_path. The connection is dedicated to the caller until Release,
// so the active schema is strictly per unit of work.
type Conn struct {
	q       execer
	release func()
	current string
}

// Acquire takes a dedicated connection from the pool with the default
// schema active.
func Acquire(ctx context.Context, pool *pgxpool.Pool) (*Conn, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{q: conn, release: conn.Release, current: DefaultSchema()}, nil
}

// Bind wraps an existing connection-like executor. Used by tests and by
// callers that manage their own connection lifetime.
func Bind(q execer) *Conn {
	return &Conn{q: q, current: DefaultSchema()}
}

// Current returns the schema this connection currently has active.
func (c *Conn) Current() string {
	return c.current
}

// Activate points the connection's search_path at schema. Re-activating
// the current schema is a no-op.
func (c *Conn) Activate(ctx context.Context, schema string) error {
	if schema == c.current {
		return nil
	}
	// SET cannot take bind parameters; the name is quoted instead.
	_, err := c.q.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
	if err != nil {
		return err
	}
	c.current = schema
	return nil
}

// Deactivate resets the connection to the default schema.
func (c *Conn) Deactivate(ctx context.Context) error {
	return c.Activate(ctx, DefaultSchema())
}

// WithSchema runs fn with schema active and restores the previously
// active schema afterward, whether fn succeeds or fails. fn receives a
// context carrying the schema so code below it can read session.Current.
func (c *Conn) WithSchema(ctx context.Context, schema string, fn func(ctx context.Context) error) error {
	prev := c.current
	if err := c.Activate(ctx, schema); err != nil {
		return err
	}
	err := fn(Activate(ctx, schema))
	if rerr := c.Activate(ctx, prev); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// Release resets the connection to the default schema and returns it to
// its pool. Pooled connections keep session state between acquisitions,
// so a schema left active here would leak to the next acquirer.
func (c *Conn) Release() {
	if c.current != DefaultSchema() {
		if _, err := c.q.Exec(context.Background(), "SET search_path TO "+pgx.Identifier{DefaultSchema()}.Sanitize()); err == nil {
			c.current = DefaultSchema()
		}
	}
	if c.release != nil {
		c.release()
	}
}
