// Package storage holds product images. Two backends exist: S3-compatible
// object storage and a local directory.
package storage

import (
	"context"
	"io"
)

// ImageStorage stores binary objects under string keys.
type ImageStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns a URL clients can fetch key from, or "" when the backend
	// cannot serve objects directly.
	URL(ctx context.Context, key string) (string, error)
}
