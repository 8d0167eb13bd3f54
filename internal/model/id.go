package model

import "github.com/oklog/ulid/v2"

// NewID returns a new time-sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// IsValidID reports whether s is a syntactically valid identifier.
// It says nothing about whether the entity exists.
func IsValidID(s string) bool {
	_, ok := NormalizeID(s)
	return ok
}

// NormalizeID returns the canonical uppercase spelling of s. Identifiers
// are case-insensitive, so every accepted spelling maps to the stored form.
func NormalizeID(s string) (string, bool) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// CanonicalID normalizes s when it is a valid identifier and returns it
// unchanged otherwise, so lookups of malformed ids simply miss.
func CanonicalID(s string) string {
	if id, ok := NormalizeID(s); ok {
		return id
	}
	return s
}
