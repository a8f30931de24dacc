package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cipherdrop/config"
	"cipherdrop/internal/application/usecase"
	"cipherdrop/internal/crypto"
	"cipherdrop/internal/domain/repository/blobstore"
	brokerrepo "cipherdrop/internal/domain/repository/broker"
	paymentrepo "cipherdrop/internal/domain/repository/paymentgate"
	"cipherdrop/internal/infrastructure/broker"
	"cipherdrop/internal/infrastructure/database"
	"cipherdrop/internal/infrastructure/keystore"
	"cipherdrop/internal/infrastructure/library"
	"cipherdrop/internal/infrastructure/minio"
	"cipherdrop/internal/infrastructure/paymentgate"
	"cipherdrop/internal/infrastructure/preview"
	"cipherdrop/internal/infrastructure/s3"
	"cipherdrop/internal/media"
	"cipherdrop/internal/metrics"
)

// services lazily builds the components a command needs and closes them in reverse order.
type services struct {
	cfg      *config.Config
	suite    *crypto.Suite
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	keys     *keystore.Keystore
	previews *preview.Registry

	store   blobstore.Store
	db      *database.Database
	broker  *broker.Client
	library *library.Library
	closers []func() error
}

func setup(path string) *services {
	cfg, err := config.Load(path)
	if err != nil {
		ExitOnError(err)
	}

	logger.InitGlobalLogger(&cfg.Logger)

	provider := cfg.Provider()
	if err := crypto.RequireSecure(provider, cfg.Environment); err != nil {
		ExitOnError(err)
	}

	suite := crypto.NewSuite(provider, cfg.RSABits)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &services{
		cfg:      cfg,
		suite:    suite,
		registry: registry,
		metrics:  metrics.MustNewMetrics(registry),
		keys:     keystore.New(cfg.Keystore, suite),
		previews: preview.NewRegistry(cfg.Preview.TTL()),
	}
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}
}

func (s *services) blobStore(ctx context.Context) (blobstore.Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	switch s.cfg.Backend() {
	case config.BackendS3:
		store, err := s3.New(ctx, s.cfg.S3Store)
		if err != nil {
			return nil, err
		}

		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}

		s.store = store
	default:
		client, err := minio.New(&s.cfg.MinIOClient)
		if err != nil {
			return nil, err
		}

		if err := client.EnsureBucket(ctx, s.cfg.MinIOStore.Bucket); err != nil {
			return nil, err
		}

		s.store = minio.NewStore(client.MinioClient, &s.cfg.MinIOStore)
	}

	return s.store, nil
}

func (s *services) database() (*database.Database, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := database.Connect(s.cfg.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s.db = db
	s.closers = append(s.closers, db.Stop)

	return db, nil
}

// brokerClient returns nil when no broker is configured.
func (s *services) brokerClient() (*broker.Client, error) {
	if s.broker != nil || s.cfg.BrokerConfig.URI == "" {
		return s.broker, nil
	}

	client, err := broker.NewClient(s.cfg.BrokerConfig)
	if err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	s.broker = client
	s.closers = append(s.closers, client.Close)

	return client, nil
}

func (s *services) localLibrary(ctx context.Context) (*library.Library, error) {
	if s.library != nil {
		return s.library, nil
	}

	lib, err := library.Open(ctx, s.cfg.Library)
	if err != nil {
		return nil, err
	}

	s.library = lib
	s.closers = append(s.closers, lib.Close)

	return lib, nil
}

func (s *services) gate() (paymentrepo.Gate, error) {
	switch s.cfg.PaymentGate.Mode {
	case paymentgate.ModeGRPC:
		client, err := paymentgate.New(s.cfg.PaymentGate.Endpoint, s.cfg.PaymentGate)
		if err != nil {
			return nil, fmt.Errorf("payment gate: %w", err)
		}

		s.closers = append(s.closers, client.Close)

		return client, nil
	case paymentgate.ModeAllow:
		return paymentgate.NewStaticGate(true, s.cfg.PaymentGate.Token), nil
	default:
		return paymentgate.NewStaticGate(false, ""), nil
	}
}

func (s *services) uploader(ctx context.Context) (*usecase.Uploader, error) {
	store, err := s.blobStore(ctx)
	if err != nil {
		return nil, err
	}

	db, err := s.database()
	if err != nil {
		return nil, err
	}

	gate, err := s.gate()
	if err != nil {
		return nil, err
	}

	var frames media.FrameExtractor
	if fx := media.NewFFmpegExtractor(s.cfg.Thumbnail.FFmpegPath); fx != nil {
		frames = fx
	} else {
		logger.Info("ffmpeg not found, videos will have no thumbnail")
	}

	deps := usecase.UploaderDeps{
		Keys:        s.suite.Keys,
		Cipher:      s.suite.Cipher,
		Wrapper:     s.suite.Wrapper,
		Store:       store,
		Writer:      database.NewMetadataWriter(db),
		Gate:        gate,
		Previews:    s.previews,
		Compressor:  media.NewCompressor(s.cfg.Compression),
		Thumbnailer: media.NewThumbnailGenerator(s.cfg.Thumbnail, frames),
		Metrics:     s.metrics,
	}

	client, err := s.brokerClient()
	if err != nil {
		return nil, err
	}

	if client != nil {
		deps.Publisher = broker.NewPublisher(client, s.cfg.PublisherConfig)
	}

	return usecase.NewUploader(deps, s.cfg.Transfer), nil
}

func (s *services) downloader(ctx context.Context) (*usecase.Downloader, error) {
	store, err := s.blobStore(ctx)
	if err != nil {
		return nil, err
	}

	db, err := s.database()
	if err != nil {
		return nil, err
	}

	lib, err := s.localLibrary(ctx)
	if err != nil {
		return nil, err
	}

	return usecase.NewDownloader(usecase.DownloaderDeps{
		Retriever: database.NewMetadataRetriever(db),
		Store:     store,
		Cipher:    s.suite.Cipher,
		Wrapper:   s.suite.Wrapper,
		Library:   lib,
		Previews:  s.previews,
		Metrics:   s.metrics,
	}, s.cfg.Transfer), nil
}

// inbox needs the identity's private key; it is loaded once and kept for the process lifetime.
func (s *services) inbox(ctx context.Context) (*usecase.Inbox, error) {
	if s.cfg.Identity == "" {
		return nil, errors.New("identity is not configured")
	}

	priv, err := s.keys.LoadOwnPrivateKey(s.cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("load key of %s: %w", s.cfg.Identity, err)
	}

	downloader, err := s.downloader(ctx)
	if err != nil {
		return nil, err
	}

	var receiver brokerrepo.Receiver
	client, err := s.brokerClient()
	if err != nil {
		return nil, err
	}

	if client != nil {
		receiver = broker.NewReceiver(client)
	}

	dir := s.cfg.Inbox.Dir
	if dir == "" {
		dir = "inbox"
	}

	return usecase.NewInbox(receiver, downloader, s.cfg.Identity, priv, dir), nil
}

func (s *services) deleter() (*usecase.Deleter, error) {
	store, err := s.blobStore(context.Background())
	if err != nil {
		return nil, err
	}

	db, err := s.database()
	if err != nil {
		return nil, err
	}

	return usecase.NewDeleter(database.NewMetadataRetriever(db), database.NewMetadataRemover(db), store), nil
}

func (s *services) sweeper() (*usecase.Sweeper, error) {
	deleter, err := s.deleter()
	if err != nil {
		return nil, err
	}

	return usecase.NewSweeper(database.NewExpiryLister(s.db), deleter, s.cfg.Sweeper.Batch), nil
}

func (s *services) sweepInterval() time.Duration {
	if s.cfg.Sweeper.IntervalSeconds <= 0 {
		return time.Hour
	}

	return time.Duration(s.cfg.Sweeper.IntervalSeconds) * time.Second
}
