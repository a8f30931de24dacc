package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadfromFile(t *testing.T) {
	t.Setenv("DATABASE_URI", "mongodb://localhost:27017")
	t.Setenv("KEYSTORE_PASSPHRASE", "hunter2")

	cfg, err := Load("./config.yml")
	require.NoError(t, err, "error must be nil.")

	assert.Equal(t, "alice", cfg.Identity)
	assert.Equal(t, BackendMinIO, cfg.Backend())
	assert.Equal(t, "mongodb://localhost:27017", cfg.DBConfig.URI)
	assert.Equal(t, "hunter2", cfg.Keystore.Passphrase)
	assert.Equal(t, int64(26214400), cfg.Transfer.FreeLimitBytes)
	assert.Equal(t, []int{85, 65, 45}, cfg.Thumbnail.Qualities)
	assert.True(t, cfg.Provider().Secure())
	assert.Equal(t, 15*time.Minute, cfg.Preview.TTL())
}

func TestLoad_LoggerSection(t *testing.T) {
	t.Setenv("DATABASE_URI", "mongodb://localhost:27017")

	cfg, err := Load("./config.yml")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		logger.InitGlobalLogger(&cfg.Logger)
		logger.Info("config loaded", "identity", cfg.Identity)
	})
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{
			name: "inverted thresholds",
			yml:  "transfer:\n  free_limit_bytes: 200\n  hard_limit_bytes: 100\n  ttl_days: 1\n",
		},
		{
			name: "non-positive ttl",
			yml:  "transfer:\n  ttl_days: 0\n",
		},
		{
			name: "unknown backend",
			yml:  "blob_store:\n  backend: ftp\ntransfer:\n  ttl_days: 1\n",
		},
		{
			name: "test provider in prod",
			yml:  "environment: prod\ncrypto_provider: test\ntransfer:\n  ttl_days: 1\n",
		},
		{
			name: "grpc gate without endpoint",
			yml:  "payment_gate:\n  mode: grpc\ntransfer:\n  ttl_days: 1\n",
		},
		{
			name: "malformed yaml",
			yml:  "transfer: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yml), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.IsType(t, Error{}, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
