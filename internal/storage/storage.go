package storage

import (
	"context"
	"errors"
)

// Storage is the browser-local-storage equivalent the cart persists into:
// a flat namespace of string keys holding string values.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	ErrNotFound      = errors.New("storage key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrUnavailable   = errors.New("storage unavailable")
)
