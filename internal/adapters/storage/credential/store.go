// Package credential persists the backend bearer token, sealed at rest.
package credential

import (
	"context"
	"errors"
	"fmt"

	"academy/internal/adapters/api"
)

// ErrNotFound is returned when no credential is stored under a name.
// It wraps api.ErrNoCredential so API callers can treat both alike.
var ErrNotFound = fmt.Errorf("credential: not found: %w", api.ErrNoCredential)

// Store defines the interface for credential persistence.
type Store interface {
	// Get returns the token stored under name.
	// PRE: name is non-empty
	// POST: returns ErrNotFound if nothing is stored
	Get(ctx context.Context, name string) (string, error)

	// Put stores token under name, replacing any previous value.
	// PRE: name and token are non-empty
	Put(ctx context.Context, name, token string) error

	// Delete removes the credential stored under name. Missing names are not an error.
	Delete(ctx context.Context, name string) error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// Source adapts a Store to api.TokenSource. The token is read on every call.
// When Key is set it names the credential for each call, and an empty key
// means no credential.
type Source struct {
	Store Store
	Name  string
	Key   func(ctx context.Context) string
}

// Ensure Source implements api.TokenSource.
var _ api.TokenSource = Source{}

// Token implements api.TokenSource.
// POST: returns an error wrapping api.ErrNoCredential when no token is stored
func (s Source) Token(ctx context.Context) (string, error) {
	if s.Store == nil {
		return "", api.ErrNoCredential
	}
	name := s.Name
	if s.Key != nil {
		name = s.Key(ctx)
	}
	if name == "" {
		return "", api.ErrNoCredential
	}
	token, err := s.Store.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("credential: read %s: %w", name, err)
	}
	return token, nil
}
