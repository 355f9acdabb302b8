package storage

import (
	"context"
	"time"

	"server/internal/domain"
)

// Store is the object store gateway. Put overwrites on re-put of the same
// key; SignedURL is a pure derivation and does not verify the object exists
// (callers must Put first).
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (domain.AccessLink, error)
}

// Key prefixes for durable artifacts.
const (
	UploadPrefix = "uploads/"
	VideoPrefix  = "videos/"
)
