// Package session tracks the active schema for one unit of work. The
// schema is carried on the context or bound to a single acquired
// connection, never held as process-global state, so concurrent requests
// cannot observe each other's active schema.
package session

import "context"

// defaultSchema is overridable once at startup; see SetDefaultSchema.
var defaultSchema = "public"

// DefaultSchema returns the shared namespace applied when nothing is
// active.
func DefaultSchema() string {
	return defaultSchema
}

// SetDefaultSchema overrides the shared namespace. Call once at startup,
// before any session or connection exists; empty input is ignored.
func SetDefaultSchema(name string) {
	if name != "" {
		defaultSchema = name
	}
}

type contextKey struct{}

// Activate returns a context with the given schema active.
func Activate(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, contextKey{}, schema)
}

// Deactivate returns a context with the default schema active.
func Deactivate(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, defaultSchema)
}

// Current returns the schema active on ctx, or DefaultSchema when none
// has been activated.
func Current(ctx context.Context) string {
	if s, ok := ctx.Value(contextKey{}).(string); ok && s != "" {
		return s
	}
	return defaultSchema
}
