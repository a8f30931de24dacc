package database

import (
	"context"
	"fmt"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"
)

type MetadataWriter struct {
	db *Database
}

func NewMetadataWriter(db *Database) *MetadataWriter {
	return &MetadataWriter{db: db}
}

// Insert stores meta under its ID within the given conversation.
func (w *MetadataWriter) Insert(ctx context.Context, conversation string, meta *model.EncryptedMediaMetadata) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.db.QueryTimeout)
	defer cancel()

	if meta.ID == "" {
		return "", fmt.Errorf("insert: record without id: %w", failure.ErrValidation)
	}

	doc := *meta
	doc.Conversation = conversation

	if _, err := w.db.collection().InsertOne(ctx, &doc); err != nil {
		return "", translate(err, "insert "+meta.ID)
	}

	return meta.ID, nil
}
