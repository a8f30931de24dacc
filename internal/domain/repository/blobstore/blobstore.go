package blobstore

import (
	"context"
	"io"
)

// Putter writes an opaque object and returns the path it was stored under.
type Putter interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error)
}

// Getter streams an object. The declared length is -1 when the store does not report one.
type Getter interface {
	Get(ctx context.Context, path string) (io.ReadCloser, int64, error)
}

type Remover interface {
	Remove(ctx context.Context, path string) error
}

type Store interface {
	Putter
	Getter
	Remover
}
