package abstraction

import (
	"context"

	"cipherdrop/internal/domain/model"
)

// Lister defines the interface for browsing the local library of received transfers.
type Lister interface {
	List(ctx context.Context, conversation string) ([]model.EncryptedMediaMetadata, error)
}
