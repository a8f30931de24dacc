package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS received (
  id             TEXT PRIMARY KEY,
  conversation   TEXT NOT NULL,
  recipient      TEXT NOT NULL,
  iv             TEXT NOT NULL,
  encrypted_key  TEXT NOT NULL,
  mime_type      TEXT NOT NULL,
  file_name      TEXT NOT NULL,
  file_size      INTEGER NOT NULL,
  thumbnail_data BLOB,
  storage_path   TEXT NOT NULL,
  created_at     INTEGER NOT NULL,
  expires_at     INTEGER NOT NULL,
  version        TEXT NOT NULL,
  saved_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS received_conversation ON received (conversation, created_at);
`

// Library is the receiver's local record of every transfer it has opened.
type Library struct {
	db  *sql.DB
	now func() time.Time
}

func Open(ctx context.Context, cfg Config) (*Library, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	// a :memory: database lives in a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create library schema: %w", err)
	}

	return &Library{db: db, now: time.Now}, nil
}

func (l *Library) Close() error {
	return l.db.Close()
}

// Save upserts meta keyed by its record id.
func (l *Library) Save(ctx context.Context, meta model.EncryptedMediaMetadata) error {
	if meta.ID == "" {
		return fmt.Errorf("library record without id: %w", failure.ErrValidation)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO received (id, conversation, recipient, iv, encrypted_key, mime_type, file_name,
			file_size, thumbnail_data, storage_path, created_at, expires_at, version, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_size = excluded.file_size,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			thumbnail_data = excluded.thumbnail_data,
			saved_at = excluded.saved_at
	`, meta.ID, meta.Conversation, meta.Recipient, meta.IV, meta.EncryptedKey, meta.MimeType, meta.FileName,
		meta.FileSize, meta.ThumbnailData, meta.StoragePath, toUnix(meta.CreatedAt), toUnix(meta.ExpiresAt),
		meta.Version, l.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save library record %s: %w", meta.ID, err)
	}

	return nil
}

func (l *Library) Get(ctx context.Context, id string) (*model.EncryptedMediaMetadata, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+columns+` FROM received WHERE id = ?`, id)

	meta, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("library record %s: %w", id, failure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get library record %s: %w", id, err)
	}

	return meta, nil
}

// List returns the records of conversation, newest first. An empty conversation lists everything.
func (l *Library) List(ctx context.Context, conversation string) ([]model.EncryptedMediaMetadata, error) {
	query := `SELECT ` + columns + ` FROM received`
	var args []any
	if conversation != "" {
		query += ` WHERE conversation = ?`
		args = append(args, conversation)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list library records: %w", err)
	}
	defer rows.Close()

	var out []model.EncryptedMediaMetadata
	for rows.Next() {
		meta, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library row: %w", err)
		}
		out = append(out, *meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate library rows: %w", err)
	}

	return out, nil
}

const columns = `id, conversation, recipient, iv, encrypted_key, mime_type, file_name, file_size,
	thumbnail_data, storage_path, created_at, expires_at, version`

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*model.EncryptedMediaMetadata, error) {
	var (
		m                  model.EncryptedMediaMetadata
		created, expiresAt int64
	)

	err := s.Scan(&m.ID, &m.Conversation, &m.Recipient, &m.IV, &m.EncryptedKey, &m.MimeType, &m.FileName,
		&m.FileSize, &m.ThumbnailData, &m.StoragePath, &created, &expiresAt, &m.Version)
	if err != nil {
		return nil, err
	}

	m.CreatedAt = fromUnix(created)
	m.ExpiresAt = fromUnix(expiresAt)

	return &m, nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

func fromUnix(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}
