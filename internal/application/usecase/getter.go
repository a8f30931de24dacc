package usecase

import (
	"context"
	"fmt"
	"time"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"
	"cipherdrop/internal/domain/repository/database"
)

// Getter returns the canonical record of a transfer.
type Getter struct {
	retriever database.Retriever
	now       func() time.Time
}

func NewGetter(retriever database.Retriever) *Getter {
	return &Getter{retriever: retriever, now: time.Now}
}

// GetTransfer hides expired records as if they were already swept.
func (g *Getter) GetTransfer(ctx context.Context, recordID string) (*model.EncryptedMediaMetadata, error) {
	meta, err := g.retriever.Fetch(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if meta.Expired(g.now()) {
		return nil, fmt.Errorf("record %s expired: %w", recordID, failure.ErrNotFound)
	}

	return meta, nil
}
