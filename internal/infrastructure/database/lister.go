package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cipherdrop/internal/domain/model"
)

type ExpiryLister struct {
	db *Database
}

func NewExpiryLister(db *Database) *ExpiryLister {
	return &ExpiryLister{db: db}
}

func (l *ExpiryLister) ListExpired(ctx context.Context, now time.Time, exclude []string,
	limit int64,
) ([]model.EncryptedMediaMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, l.db.QueryTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"thumbnail_data": 0})

	filter := bson.M{"expires_at": bson.M{"$lte": now}}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}

	cursor, err := l.db.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "list expired")
	}
	defer cursor.Close(ctx)

	var records []model.EncryptedMediaMetadata
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translate(err, "decode expired")
	}

	return records, nil
}
