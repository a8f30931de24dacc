package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"cipherdrop/internal/domain/model"
)

type MetadataRetriever struct {
	db *Database
}

func NewMetadataRetriever(db *Database) *MetadataRetriever {
	return &MetadataRetriever{db: db}
}

func (r *MetadataRetriever) Fetch(ctx context.Context, recordID string) (*model.EncryptedMediaMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout)
	defer cancel()

	var meta model.EncryptedMediaMetadata
	if err := r.db.collection().FindOne(ctx, bson.M{"_id": recordID}).Decode(&meta); err != nil {
		return nil, translate(err, "fetch "+recordID)
	}

	return &meta, nil
}
