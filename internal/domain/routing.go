package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Domain is a routable hostname bound to exactly one tenant. A tenant may
// own several domains; at most one of them is primary at any time.
type Domain struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Domain    string    `json:"domain"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidDomain = errors.New("invalid domain name")

	// RFC 1035-ish labels, dot separated. Good enough for routing keys;
	// this is not a full hostname validator.
	domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)
)

const maxDomainLength = 253

// ValidateDomain rejects strings that cannot serve as routing keys, before
// any row is written.
func ValidateDomain(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDomain)
	}
	if len(name) > maxDomainLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidDomain, name, maxDomainLength)
	}
	if !domainPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, name)
	}
	return nil
}
