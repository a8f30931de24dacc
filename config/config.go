package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cipherdrop/internal/application/usecase"
	"cipherdrop/internal/crypto"
	"cipherdrop/internal/infrastructure/broker"
	"cipherdrop/internal/infrastructure/database"
	"cipherdrop/internal/infrastructure/keystore"
	"cipherdrop/internal/infrastructure/library"
	"cipherdrop/internal/infrastructure/minio"
	"cipherdrop/internal/infrastructure/paymentgate"
	"cipherdrop/internal/infrastructure/s3"
	"cipherdrop/internal/media"
	"cipherdrop/internal/presentation/handler"
)

const (
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

// Config represents the configs used by services on system.
type Config struct {
	Environment     string                  `yaml:"environment"`
	Identity        string                  `yaml:"identity"`
	CryptoProvider  string                  `yaml:"crypto_provider"`
	RSABits         int                     `yaml:"rsa_bits"`
	BlobStore       BlobStoreConfig         `yaml:"blob_store"`
	MinIOClient     minio.ClientConfig      `yaml:"minio_client"`
	MinIOStore      minio.StoreConfig       `yaml:"minio_store"`
	S3Store         s3.Config               `yaml:"s3_store"`
	DBConfig        database.Config         `yaml:"db_config"`
	BrokerConfig    broker.Config           `yaml:"redis_broker_config"`
	PublisherConfig broker.PublisherConfig  `yaml:"publisher_config"`
	PaymentGate     paymentgate.Config      `yaml:"payment_gate"`
	Library         library.Config          `yaml:"library"`
	Keystore        keystore.Config         `yaml:"keystore"`
	Inbox           InboxConfig             `yaml:"inbox"`
	Preview         PreviewConfig           `yaml:"preview"`
	Transfer        usecase.TransferConfig  `yaml:"transfer"`
	Thumbnail       media.ThumbnailConfig   `yaml:"thumbnail"`
	Compression     media.CompressionConfig `yaml:"compression"`
	Sweeper         SweeperConfig           `yaml:"sweeper"`
	HTTP            handler.Config          `yaml:"http"`
	Logger          logger.Config           `yaml:"logger"`
}

type BlobStoreConfig struct {
	Backend string `yaml:"backend"`
}

type InboxConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type PreviewConfig struct {
	TTLSeconds int `yaml:"ttl_in_seconds"`
}

// TTL is how long a preview URL stays readable; zero leaves the registry default.
func (p PreviewConfig) TTL() time.Duration {
	return time.Duration(p.TTLSeconds) * time.Second
}

type SweeperConfig struct {
	Enabled         bool  `yaml:"enabled"`
	IntervalSeconds int   `yaml:"interval_in_seconds"`
	Batch           int64 `yaml:"batch"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Error{
			reason: err.Error(),
		}
	}
	defer file.Close()

	config := &Config{}

	decoder := yaml.NewDecoder(file)

	if err := decoder.Decode(config); err != nil {
		return nil, Error{
			reason: err.Error(),
		}
	}

	if config.Environment != "prod" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, Error{
				reason: err.Error(),
			}
		}
	}

	config.applyEnv()

	if err = config.basicCheck(); err != nil {
		return nil, Error{
			reason: err.Error(),
		}
	}

	return config, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.MinIOClient.AccessKey, "MINIO_ROOT_USER")
	setFromEnv(&c.MinIOClient.SecretKey, "MINIO_ROOT_PASSWORD")
	setFromEnv(&c.DBConfig.URI, "DATABASE_URI")
	setFromEnv(&c.BrokerConfig.URI, "BROKER_URI")
	setFromEnv(&c.S3Store.AccessKeyID, "S3_ACCESS_KEY_ID")
	setFromEnv(&c.S3Store.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setFromEnv(&c.Keystore.Passphrase, "KEYSTORE_PASSPHRASE")
	setFromEnv(&c.HTTP.AgentToken, "AGENT_TOKEN")
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// basicCheck validates the basic stuff in config.
func (c *Config) basicCheck() error {
	t := c.Transfer
	if t.FreeLimitBytes < 0 || t.HardLimitBytes < 0 {
		return errors.New("transfer limits must not be negative")
	}

	if t.FreeLimitBytes > 0 && t.HardLimitBytes > 0 && t.FreeLimitBytes > t.HardLimitBytes {
		return fmt.Errorf("free limit %d exceeds hard limit %d", t.FreeLimitBytes, t.HardLimitBytes)
	}

	if t.TTLDays <= 0 {
		return fmt.Errorf("transfer.ttl_days must be positive, got %d", t.TTLDays)
	}

	switch c.BlobStore.Backend {
	case "", BackendMinIO, BackendS3:
	default:
		return fmt.Errorf("unknown blob store backend %q", c.BlobStore.Backend)
	}

	switch c.PaymentGate.Mode {
	case "", paymentgate.ModeAllow, paymentgate.ModeDeny:
	case paymentgate.ModeGRPC:
		if c.PaymentGate.Endpoint == "" {
			return errors.New("payment_gate.endpoint is required in grpc mode")
		}
	default:
		return fmt.Errorf("unknown payment gate mode %q", c.PaymentGate.Mode)
	}

	provider, err := crypto.ProviderByName(c.CryptoProvider)
	if err != nil {
		return err
	}

	return crypto.RequireSecure(provider, c.Environment)
}

// Provider returns the configured randomness source.
func (c *Config) Provider() crypto.Provider {
	p, err := crypto.ProviderByName(c.CryptoProvider)
	if err != nil {
		return crypto.RealProvider{}
	}

	return p
}

func (c *Config) Backend() string {
	if c.BlobStore.Backend == "" {
		return BackendMinIO
	}

	return c.BlobStore.Backend
}
