package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidSchemaName = errors.New("invalid schema name")

	schemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Postgres truncates identifiers beyond NAMEDATALEN-1 bytes instead of
// rejecting them; we reject so the stored name always matches the schema.
const maxSchemaNameLength = 63

// Names the engine must never hand out as tenant schemas.
var reservedSchemaNames = map[string]struct{}{
	"public":             {},
	"information_schema": {},
}

// ValidateSchemaName enforces the namespace naming rule at save time,
// before any DDL is issued: identifier grammar, length limit, no pg_
// prefix, no reserved names.
func ValidateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSchemaName)
	}
	if len(name) > maxSchemaNameLength {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidSchemaName, name, maxSchemaNameLength)
	}
	if strings.HasPrefix(strings.ToLower(name), "pg_") {
		return fmt.Errorf("%w: %q uses the reserved pg_ prefix", ErrInvalidSchemaName, name)
	}
	if _, reserved := reservedSchemaNames[strings.ToLower(name)]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSchemaName, name)
	}
	if !schemaNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSchemaName, name)
	}
	return nil
}
