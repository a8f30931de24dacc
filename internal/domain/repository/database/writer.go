package database

import (
	"context"

	"cipherdrop/internal/domain/model"
)

type Writer interface {
	Insert(ctx context.Context, conversation string, meta *model.EncryptedMediaMetadata) (string, error)
}
