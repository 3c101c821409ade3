package domain

// ProvisioningPolicy controls what the lifecycle manager does around tenant
// record writes. It is an immutable value passed in at construction (or per
// call), not state read off the tenant itself.
type ProvisioningPolicy struct {
	// AutoCreateSchema creates the tenant's schema when the record is
	// first persisted. When false the record is saved and a needs_sync
	// event is emitted instead.
	AutoCreateSchema bool

	// AutoDropSchema drops the schema when the tenant record is deleted.
	// Leave false to orphan the schema on delete, which is reversible.
	AutoDropSchema bool

	// CloneFrom names a reference schema whose table structure is copied
	// into newly created schemas. Empty means create an empty schema.
	CloneFrom string

	// SnapshotIDOnly reduces event payloads to the schema name.
	SnapshotIDOnly bool
}
