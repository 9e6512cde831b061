/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package objectstore

import (
	"context"
	"io"
)

// Store is the object storage abstraction used by every pipeline stage.
// Implementations must be safe for concurrent use.
type Store interface {
	// EnsureBucket creates the bucket when it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// Put stores an object, replacing any existing one.
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error

	// Get reads a whole object. Returns errors.ErrNotFound when absent.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// List returns the keys under the given prefix, sorted ascending.
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	// Delete removes an object. Deleting an absent object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}
