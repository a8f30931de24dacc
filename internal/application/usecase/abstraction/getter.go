package abstraction

import (
	"context"

	"cipherdrop/internal/domain/model"
)

// Getter defines the interface for retrieving a transfer record.
type Getter interface {
	GetTransfer(ctx context.Context, recordID string) (*model.EncryptedMediaMetadata, error)
}
