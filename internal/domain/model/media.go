package model

import (
	"fmt"
	"time"

	"cipherdrop/internal/domain/failure"
)

// EncryptedMediaMetadata is the only persisted artifact of a transfer.
// IV and EncryptedKey hold transport-encoded (base64) values.
type EncryptedMediaMetadata struct {
	ID            string    `bson:"_id"            json:"id"`
	Conversation  string    `bson:"conversation"   json:"conversation"`
	Recipient     string    `bson:"recipient"      json:"recipient"`
	IV            string    `bson:"iv"             json:"iv"`
	EncryptedKey  string    `bson:"encrypted_key"  json:"encryptedKey"`
	MimeType      string    `bson:"mime_type"      json:"mimeType"`
	FileName      string    `bson:"file_name"      json:"fileName"`
	FileSize      int64     `bson:"file_size"      json:"fileSize"`
	ThumbnailData []byte    `bson:"thumbnail_data" json:"thumbnailData,omitempty"`
	StoragePath   string    `bson:"storage_path"   json:"storagePath"`
	CreatedAt     time.Time `bson:"created_at"     json:"createdAt"`
	ExpiresAt     time.Time `bson:"expires_at"     json:"expiresAt"`
	Version       string    `bson:"version"        json:"version"`
}

// Validate checks the fields a receiver cannot do without.
func (m *EncryptedMediaMetadata) Validate() error {
	switch {
	case m.StoragePath == "":
		return fmt.Errorf("storage path missing: %w", failure.ErrInvalidMetadata)
	case m.EncryptedKey == "":
		return fmt.Errorf("encrypted key missing: %w", failure.ErrInvalidMetadata)
	case m.IV == "":
		return fmt.Errorf("iv missing: %w", failure.ErrInvalidMetadata)
	}

	return nil
}

// Expired reports whether the record is eligible for deletion at now.
func (m *EncryptedMediaMetadata) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && !now.Before(m.ExpiresAt)
}

// WithFileSize returns the receiver's local copy with the realized plaintext size.
// The canonical record is left untouched.
func (m EncryptedMediaMetadata) WithFileSize(n int64) EncryptedMediaMetadata {
	m.FileSize = n
	if m.ThumbnailData != nil {
		m.ThumbnailData = append([]byte(nil), m.ThumbnailData...)
	}

	return m
}
