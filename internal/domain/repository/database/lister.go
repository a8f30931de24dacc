package database

import (
	"context"
	"time"

	"cipherdrop/internal/domain/model"
)

// Lister finds records whose expiry is at or before now, oldest first,
// leaving out the ids in exclude.
type Lister interface {
	ListExpired(ctx context.Context, now time.Time, exclude []string, limit int64) ([]model.EncryptedMediaMetadata, error)
}
