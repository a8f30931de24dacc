package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cipherdrop/internal/domain/failure"
)

const TransferCollection = "transfers"

type Database struct {
	DBName       string
	QueryTimeout time.Duration
	Client       *mongo.Client
}

func Connect(cfg Config) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ConnectionTimeout)*time.Millisecond)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.URI).
		SetServerAPIOptions(serverAPI).
		SetConnectTimeout(time.Duration(cfg.ConnectionTimeout) * time.Millisecond).
		SetBSONOptions(&options.BSONOptions{
			UseJSONStructTags: true,
			NilSliceAsEmpty:   true,
		})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	qCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.QueryTimeout)*time.Millisecond)
	defer cancel()

	if err := client.Ping(qCtx, nil); err != nil {
		return nil, err
	}

	db := &Database{
		Client:       client,
		DBName:       cfg.DBName,
		QueryTimeout: time.Duration(cfg.QueryTimeout) * time.Millisecond,
	}

	if err := initTransferCollection(db); err != nil {
		return nil, err
	}

	logger.Info("connected to database", "db", cfg.DBName)

	return db, nil
}

func (db *Database) collection() *mongo.Collection {
	return db.Client.Database(db.DBName).Collection(TransferCollection)
}

func initTransferCollection(db *Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), db.QueryTimeout)
	defer cancel()

	collections, err := db.Client.Database(db.DBName).ListCollectionNames(ctx, bson.M{"name": TransferCollection})
	if err != nil {
		return err
	}
	if len(collections) > 0 {
		return nil
	}

	collOpts := options.CreateCollection().SetValidator(bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"_id", "conversation", "iv", "encrypted_key", "storage_path", "created_at", "expires_at", "version"},
			"properties": bson.M{
				"_id":           bson.M{"bsonType": "string", "minLength": 1},
				"conversation":  bson.M{"bsonType": "string", "minLength": 1},
				"recipient":     bson.M{"bsonType": "string"},
				"iv":            bson.M{"bsonType": "string", "minLength": 16, "maxLength": 16},
				"encrypted_key": bson.M{"bsonType": "string", "minLength": 1},
				"mime_type":     bson.M{"bsonType": "string"},
				"file_name":     bson.M{"bsonType": "string", "maxLength": 255},
				"file_size":     bson.M{"bsonType": []string{"long", "int"}, "minimum": 0},
				"thumbnail_data": bson.M{
					"bsonType":    []string{"binData", "null"},
					"description": "jpeg preview, at most 150 KB",
				},
				"storage_path": bson.M{"bsonType": "string", "minLength": 1},
				"created_at":   bson.M{"bsonType": "date"},
				"expires_at":   bson.M{"bsonType": "date"},
				"version":      bson.M{"bsonType": "string"},
			},
		},
	})

	if err := db.Client.Database(db.DBName).CreateCollection(ctx, TransferCollection, collOpts); err != nil {
		return err
	}

	_, err = db.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "conversation", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	return err
}

func (db *Database) Stop() error {
	if err := db.Client.Disconnect(context.Background()); err != nil {
		return err
	}

	return nil
}

// translate maps driver errors onto the failure taxonomy.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, failure.ErrNotFound)
	case mongo.IsNetworkError(err) || mongo.IsTimeout(err):
		return fmt.Errorf("%s: %v: %w", op, err, failure.ErrNetwork)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
