package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSchemaName(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		ok     bool
	}{
		{"simple", "acme", true},
		{"underscore start", "_acme", true},
		{"digits after letter", "tenant42", true},
		{"mixed case", "AcmeCorp", true},
		{"63 bytes", strings.Repeat("a", 63), true},
		{"empty", "", false},
		{"64 bytes", strings.Repeat("a", 64), false},
		{"leading digit", "1acme", false},
		{"hyphen", "acme-corp", false},
		{"dot", "acme.corp", false},
		{"space", "acme corp", false},
		{"pg_ prefix", "pg_acme", false},
		{"pg_ prefix uppercase", "PG_acme", false},
		{"public reserved", "public", false},
		{"public reserved uppercase", "PUBLIC", false},
		{"information_schema reserved", "information_schema", false},
		{"quote injection", `acme"; DROP SCHEMA public`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchemaName(tt.schema)
			if tt.ok && err != nil {
				t.Errorf("ValidateSchemaName(%q) = %v, want nil", tt.schema, err)
			}
			if !tt.ok {
				if err == nil {
					t.Errorf("ValidateSchemaName(%q) = nil, want error", tt.schema)
				} else if !errors.Is(err, ErrInvalidSchemaName) {
					t.Errorf("ValidateSchemaName(%q) = %v, want ErrInvalidSchemaName", tt.schema, err)
				}
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		ok     bool
	}{
		{"hostname", "a.example.com", true},
		{"single label", "localhost", true},
		{"digits", "t1.example.com", true},
		{"hyphenated label", "acme-corp.example.com", true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 250) + ".com", false},
		{"leading hyphen", "-acme.example.com", false},
		{"trailing dot", "acme.example.com.", false},
		{"uppercase", "Acme.example.com", false},
		{"space", "acme corp.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomain(tt.domain)
			if tt.ok && err != nil {
				t.Errorf("ValidateDomain(%q) = %v, want nil", tt.domain, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidDomain) {
				t.Errorf("ValidateDomain(%q) = %v, want ErrInvalidDomain", tt.domain, err)
			}
		})
	}
}
