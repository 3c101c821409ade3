package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one isolated workspace. Its data lives in the Postgres schema
// named by SchemaName; the row itself lives in the shared public schema.
type Tenant struct {
	ID         uuid.UUID      `json:"id"`
	SchemaName string         `json:"schema_name"`
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Snapshot returns the event payload for this tenant. With idOnly the
// payload carries the schema name but not the record, for tenants whose
// full record is not meant to leave the process.
func (t *Tenant) Snapshot(idOnly bool) TenantSnapshot {
	s := TenantSnapshot{SchemaName: t.SchemaName}
	if !idOnly {
		s.Tenant = t
	}
	return s
}
