// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the redaction wrapper for in-memory
// credentials. Database passwords pass through several layers on their
// way from a profile to a live connection; wrapping them keeps
// accidental formatting or JSON marshaling from leaking them into logs
// or state dumps.
package security

import (
	"encoding/json"
	"fmt"
	"io"
)

// Secret is a thin wrapper around a byte slice intended to hold a
// database password or other sensitive material. It implements
// redaction helpers so accidental formatting or JSON marshaling does
// not reveal data.
type Secret []byte

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return "[SECRET]" }

// Format implements fmt.Formatter to ensure `%v`, `%#v` and friends are redacted.
func (s Secret) Format(f fmt.State, c rune) {
	if _, err := io.WriteString(f, "[SECRET]"); err != nil {
		_ = err // intentionally ignore write error when formatting secrets for logs
	}
}

// Reveal returns the plaintext as a string. Callers splice this into a
// live connection string only; it must never reach the profile file.
func (s Secret) Reveal() string { return string(s) }

// Zero overwrites the underlying byte slice with zeros.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}

// IsEmpty reports whether the secret holds no material.
func (s Secret) IsEmpty() bool { return len(s) == 0 }

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal("[SECRET]") }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[SECRET]"), nil }

// FromString wraps user input in a Secret. Callers should zero any
// intermediate byte slices they create.
func FromString(in string) Secret { return Secret([]byte(in)) }
