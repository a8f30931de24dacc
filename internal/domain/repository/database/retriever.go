package database

import (
	"context"

	"cipherdrop/internal/domain/model"
)

type Retriever interface {
	Fetch(ctx context.Context, recordID string) (*model.EncryptedMediaMetadata, error)
}
