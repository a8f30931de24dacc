package usecase

import (
	"context"
	"errors"
	"fmt"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"
	"cipherdrop/internal/domain/repository/blobstore"
	"cipherdrop/internal/domain/repository/database"
)

// Deleter retracts a transfer, removing its blob and then its record.
type Deleter struct {
	retriever database.Retriever
	remover   database.Remover
	blobs     blobstore.Remover
}

func NewDeleter(retriever database.Retriever, remover database.Remover, blobs blobstore.Remover) *Deleter {
	return &Deleter{retriever: retriever, remover: remover, blobs: blobs}
}

func (d *Deleter) DeleteTransfer(ctx context.Context, recordID string) error {
	meta, err := d.retriever.Fetch(ctx, recordID)
	if err != nil {
		return err
	}

	return d.remove(ctx, meta)
}

// remove leaves the record in place when the blob cannot be removed, so a
// later pass can try again.
func (d *Deleter) remove(ctx context.Context, meta *model.EncryptedMediaMetadata) error {
	if meta.StoragePath != "" {
		if err := d.blobs.Remove(ctx, meta.StoragePath); err != nil && !errors.Is(err, failure.ErrNotFound) {
			return fmt.Errorf("remove blob %s: %w", meta.StoragePath, err)
		}
	}

	if err := d.remover.RemoveByID(ctx, meta.ID); err != nil {
		return fmt.Errorf("remove record %s: %w", meta.ID, err)
	}

	return nil
}
