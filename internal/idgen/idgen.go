// Package idgen generates short random identifiers for unnamed fields and
// outgoing REST requests, backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifier families produced by this package.
const (
	FieldPrefix   = "field_"
	RequestPrefix = "req-"
)

// Alphabet is lower-case only so generated field names are stable record keys
// and never contain the "." flatten separator.
var Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 8

// FieldName returns a random name for a field declared without one.
// It panics if the system random source fails.
func FieldName() string {
	id, err := WithPrefix(FieldPrefix)
	if err != nil {
		panic(err)
	}
	return id
}

// RequestID returns an identifier sent as X-Request-ID on REST calls.
func RequestID() (string, error) {
	return WithPrefix(RequestPrefix)
}

// WithPrefix returns a new random identifier with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
