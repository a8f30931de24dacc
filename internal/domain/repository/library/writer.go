package library

import (
	"context"

	"cipherdrop/internal/domain/model"
)

// Writer keeps the receiver's local copy of a record.
type Writer interface {
	Save(ctx context.Context, meta model.EncryptedMediaMetadata) error
}
