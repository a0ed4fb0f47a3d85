package kv

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key. Absence is an ordinary outcome for
// both containers, never a failure.
var ErrNotFound = errors.New("kv: key not found")

// Store is the client-local persistence surface shared by the cart and auth
// containers. Writes carry replace-whole-value semantics; there is no
// coupling between keys and no expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
