package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"cipherdrop/internal/domain/failure"
)

type MetadataRemover struct {
	db *Database
}

func NewMetadataRemover(db *Database) *MetadataRemover {
	return &MetadataRemover{db: db}
}

func (r *MetadataRemover) RemoveByID(ctx context.Context, recordID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout)
	defer cancel()

	res, err := r.db.collection().DeleteOne(ctx, bson.M{"_id": recordID})
	if err != nil {
		return translate(err, "remove "+recordID)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("remove %s: %w", recordID, failure.ErrNotFound)
	}

	return nil
}
