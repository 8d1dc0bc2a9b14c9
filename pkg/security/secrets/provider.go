package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Provider that does not hold the secret.
var ErrNotFound = errors.New("secret not found")

// Provider looks secrets up by name.
type Provider interface {
	// Lookup returns the secret value. It returns an error wrapping
	// ErrNotFound when the provider does not hold the secret, so the
	// resolver can try the next one.
	Lookup(ctx context.Context, name string) (string, error)

	// Name identifies the provider in errors and logs ("env", "file").
	Name() string
}
