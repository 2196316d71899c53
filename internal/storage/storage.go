package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// Backend is a flat key/value store for editor state. Values are opaque
// bytes; callers wrap them in an Envelope.
//
//go:generate mockgen -source=storage.go -destination=backend_mock.go -package=storage
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
