// Package token mints correlation tokens that tie an engine response to the
// submission that caused it.
package token

import (
	"fmt"

	"github.com/google/uuid"
)

// Token identifies one submission. The engine echoes it next to its outputs.
type Token string

// String returns the token text.
func (t Token) String() string { return string(t) }

// Allocator mints tokens. Every call returns a token that has not been
// returned before, including for retries of the same request.
type Allocator interface {
	New() (Token, error)
}

// Formats accepted by NewUUIDAllocator.
const (
	FormatUUID4 = "uuid4"
	FormatUUID7 = "uuid7"
)

// UUIDAllocator mints random (v4) or time-ordered (v7) UUID tokens with an
// optional prefix.
type UUIDAllocator struct {
	prefix string
	gen    func() (uuid.UUID, error)
}

// NewUUIDAllocator returns an allocator for format, which must be
// FormatUUID4 or FormatUUID7. An empty format selects FormatUUID4.
func NewUUIDAllocator(format, prefix string) (*UUIDAllocator, error) {
	a := &UUIDAllocator{prefix: prefix}
	switch format {
	case "", FormatUUID4:
		a.gen = uuid.NewRandom
	case FormatUUID7:
		a.gen = uuid.NewV7
	default:
		return nil, fmt.Errorf("unsupported token format %q", format)
	}
	return a, nil
}

// New mints a token.
func (a *UUIDAllocator) New() (Token, error) {
	id, err := a.gen()
	if err != nil {
		return "", fmt.Errorf("failed to mint token: %w", err)
	}
	return Token(a.prefix + id.String()), nil
}
