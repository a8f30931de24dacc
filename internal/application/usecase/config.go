package usecase

import "time"

// TransferConfig holds thresholds, lifetimes and retry bounds shared by both pipelines.
type TransferConfig struct {
	FreeLimitBytes    int64 `yaml:"free_limit_bytes"`
	HardLimitBytes    int64 `yaml:"hard_limit_bytes"`
	TTLDays           int   `yaml:"ttl_days"`
	UploadTimeoutMS   int64 `yaml:"upload_timeout_ms"`
	DownloadTimeoutMS int64 `yaml:"download_timeout_ms"`
	MaxAttempts       int   `yaml:"max_attempts"`
	BackoffBaseMS     int64 `yaml:"backoff_base_ms"`
	BackoffMaxMS      int64 `yaml:"backoff_max_ms"`
	ChunkSize         int   `yaml:"chunk_size"`
}

const (
	DefaultFreeLimitBytes = 25 * 1024 * 1024
	DefaultHardLimitBytes = 100 * 1024 * 1024
	DefaultTTLDays        = 30
	DefaultTimeout        = 5 * time.Minute
	DefaultMaxAttempts    = 3
	DefaultBackoffBase    = 500 * time.Millisecond
	DefaultBackoffMax     = 8 * time.Second
	DefaultChunkSize      = 256 * 1024
)

func (c TransferConfig) WithDefaults() TransferConfig {
	if c.FreeLimitBytes <= 0 {
		c.FreeLimitBytes = DefaultFreeLimitBytes
	}

	if c.HardLimitBytes <= 0 {
		c.HardLimitBytes = DefaultHardLimitBytes
	}

	if c.TTLDays <= 0 {
		c.TTLDays = DefaultTTLDays
	}

	if c.UploadTimeoutMS <= 0 {
		c.UploadTimeoutMS = DefaultTimeout.Milliseconds()
	}

	if c.DownloadTimeoutMS <= 0 {
		c.DownloadTimeoutMS = DefaultTimeout.Milliseconds()
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}

	if c.BackoffBaseMS <= 0 {
		c.BackoffBaseMS = DefaultBackoffBase.Milliseconds()
	}

	if c.BackoffMaxMS <= 0 {
		c.BackoffMaxMS = DefaultBackoffMax.Milliseconds()
	}

	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}

	return c
}

func (c TransferConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

func (c TransferConfig) retryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  c.MaxAttempts,
		BaseDelay:    time.Duration(c.BackoffBaseMS) * time.Millisecond,
		MaxDelay:     time.Duration(c.BackoffMaxMS) * time.Millisecond,
		JitterFactor: 0.25,
	}
}
