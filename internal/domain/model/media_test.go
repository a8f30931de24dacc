package model

import (
	"testing"
	"time"

	"cipherdrop/internal/domain/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptedMediaMetadata_Validate(t *testing.T) {
	valid := EncryptedMediaMetadata{StoragePath: "transfers/x", EncryptedKey: "k", IV: "iv"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(m *EncryptedMediaMetadata)
	}{
		{"no storage path", func(m *EncryptedMediaMetadata) { m.StoragePath = "" }},
		{"no encrypted key", func(m *EncryptedMediaMetadata) { m.EncryptedKey = "" }},
		{"no iv", func(m *EncryptedMediaMetadata) { m.IV = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			require.ErrorIs(t, m.Validate(), failure.ErrInvalidMetadata)
		})
	}
}

func TestEncryptedMediaMetadata_WithFileSize(t *testing.T) {
	canonical := EncryptedMediaMetadata{ID: "r1", ThumbnailData: []byte{1, 2}}

	local := canonical.WithFileSize(10)
	local.ThumbnailData[0] = 9

	assert.Equal(t, int64(10), local.FileSize)
	assert.Equal(t, int64(0), canonical.FileSize)
	assert.Equal(t, byte(1), canonical.ThumbnailData[0])
}

func TestEncryptedMediaMetadata_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := EncryptedMediaMetadata{ExpiresAt: now}

	assert.True(t, m.Expired(now))
	assert.False(t, m.Expired(now.Add(-time.Second)))
	assert.False(t, (&EncryptedMediaMetadata{}).Expired(now))
}
