// Package content provides the content-addressed blob store used for product
// and custody-event snapshots.
package content

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no bytes are known for an id.
	ErrNotFound = errors.New("content: not found")
	// ErrUnavailable is returned when the store cannot be reached.
	ErrUnavailable = errors.New("content: store unavailable")
)

// Store is a content-addressed blob store.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// Mode reports whether a write reached the primary store.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeDegraded Mode = "degraded"
)

// PutResult is the outcome of a write through FallbackStore.
type PutResult struct {
	ID   string
	Mode Mode
}

// Degraded reports whether the local fallback assigned the id.
func (r PutResult) Degraded() bool { return r.Mode == ModeDegraded }
