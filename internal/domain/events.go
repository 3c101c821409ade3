package domain

import "context"

// EventKind identifies a tenant lifecycle milestone.
type EventKind string

const (
	// EventPostSync fires after a tenant's schema has been created.
	EventPostSync EventKind = "post_sync"
	// EventNeedsSync fires when a tenant was created but schema creation
	// was intentionally deferred; an external provisioner picks it up.
	EventNeedsSync EventKind = "needs_sync"
	// EventPreDrop fires immediately before a tenant's schema is dropped.
	EventPreDrop EventKind = "pre_drop"
)

// TenantSnapshot is the serializable payload delivered with lifecycle
// events. Tenant is nil when the emitting policy asked for the reduced,
// schema-name-only form.
type TenantSnapshot struct {
	SchemaName string  `json:"schema_name"`
	Tenant     *Tenant `json:"tenant,omitempty"`
}

// Event is a lifecycle notification.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Tenant TenantSnapshot `json:"tenant"`
}

// Publisher delivers lifecycle events to registered subscribers.
// Publication is fire-and-forget: subscriber failures never surface to the
// publisher.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}
