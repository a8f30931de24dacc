package usecase

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"cipherdrop/internal/crypto"
	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"
	"cipherdrop/internal/domain/repository/blobstore"
	"cipherdrop/internal/domain/repository/database"
	"cipherdrop/internal/domain/repository/library"
	"cipherdrop/internal/domain/repository/preview"
	"cipherdrop/internal/metrics"
)

// gcmTagSize is the AES-GCM authentication tag appended to every ciphertext.
const gcmTagSize = 16

type DownloadRequest struct {
	RecordID   string
	PrivateKey *rsa.PrivateKey
	OnProgress ProgressFunc

	// SkipPreview keeps the plaintext out of the preview registry, for callers
	// that persist it elsewhere.
	SkipPreview bool
}

type DownloadResult struct {
	Metadata    model.EncryptedMediaMetadata
	Plaintext   []byte
	ResourceURL string
	Trace       []State
}

// DownloaderDeps wires the receiver pipeline. Library, Previews and Metrics are optional.
type DownloaderDeps struct {
	Retriever database.Retriever
	Store     blobstore.Getter
	Cipher    Cipher
	Wrapper   Wrapper
	Library   library.Writer
	Previews  preview.Registry
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type Downloader struct {
	deps   DownloaderDeps
	config TransferConfig
}

func NewDownloader(deps DownloaderDeps, cfg TransferConfig) *Downloader {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Downloader{deps: deps, config: cfg.WithDefaults()}
}

type DownloadTask struct {
	*Task
	result *DownloadResult
}

func (t *DownloadTask) Wait() (*DownloadResult, error) {
	<-t.done

	if err := t.Err(); err != nil {
		return nil, err
	}

	return t.result, nil
}

func (d *Downloader) Start(ctx context.Context, req DownloadRequest) *DownloadTask {
	timeout := time.Duration(d.config.DownloadTimeoutMS) * time.Millisecond
	task, taskCtx, release := newTask(ctx, metrics.DirectionDownload, downloadTransitions, timeout,
		d.deps.Metrics, req.OnProgress)
	dt := &DownloadTask{Task: task}

	done := d.deps.Metrics.TransferStarted(metrics.DirectionDownload)
	task.watch(taskCtx)

	go func() {
		defer done()
		defer release()
		defer close(task.done)

		result, err := d.run(taskCtx, task, req)
		if err != nil {
			task.fail(err)

			return
		}

		result.Trace = task.Trace()
		dt.result = result
	}()

	return dt
}

func (d *Downloader) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	return d.Start(ctx, req).Wait()
}

// downloadRetryable also restarts on integrity failures, which may come from
// corruption in transit.
func downloadRetryable(err error) bool {
	return failure.Retryable(err) || errors.Is(err, failure.ErrIntegrity)
}

func (d *Downloader) run(ctx context.Context, t *Task, req DownloadRequest) (*DownloadResult, error) {
	if strings.TrimSpace(req.RecordID) == "" {
		return nil, fmt.Errorf("record id required: %w", failure.ErrValidation)
	}

	if req.PrivateKey == nil {
		return nil, fmt.Errorf("private key required: %w", failure.ErrKeyFormat)
	}

	var (
		meta      *model.EncryptedMediaMetadata
		plaintext []byte
	)

	attempts := 0
	err := d.config.retryPolicy().do(ctx, downloadRetryable,
		func(attempt int, err error) { t.retrying(StateLoadingMetadata, attempt, err) },
		func(ctx context.Context, attempt int) error {
			attempts = attempt

			var err error
			meta, plaintext, err = d.attempt(ctx, t, req)

			return err
		})
	if err != nil {
		if errors.Is(err, failure.ErrIntegrity) && attempts > 1 {
			return nil, fmt.Errorf("integrity failure persisted across %d attempts: %w", attempts, err)
		}

		return nil, err
	}

	if err := t.enter(ctx, StateReady); err != nil {
		clear(plaintext)

		return nil, err
	}
	t.finish()

	local := meta.WithFileSize(int64(len(plaintext)))

	if d.deps.Library != nil {
		if err := d.deps.Library.Save(ctx, local); err != nil {
			logger.Warn("local copy not saved", "record", local.ID, "err", err)
		}
	}

	var url string
	if d.deps.Previews != nil && !req.SkipPreview {
		url = d.deps.Previews.Create(plaintext, local.MimeType)
	}

	return &DownloadResult{Metadata: local, Plaintext: plaintext, ResourceURL: url}, nil
}

// attempt runs one pass from LoadingMetadata through Decrypting.
func (d *Downloader) attempt(ctx context.Context, t *Task, req DownloadRequest) (*model.EncryptedMediaMetadata, []byte, error) {
	if err := t.enter(ctx, StateLoadingMetadata); err != nil {
		return nil, nil, err
	}

	meta, iv, err := d.loadMetadata(ctx, req.RecordID)
	if err != nil {
		return nil, nil, settle(ctx, err)
	}

	if err := t.enter(ctx, StateDownloading); err != nil {
		return nil, nil, err
	}

	ciphertext, err := d.fetch(ctx, t, meta.StoragePath)
	if err != nil {
		return nil, nil, settle(ctx, err)
	}
	defer clear(ciphertext)

	if err := t.enter(ctx, StateDecrypting); err != nil {
		return nil, nil, err
	}

	key, err := d.deps.Wrapper.UnwrapKey(meta.EncryptedKey, req.PrivateKey)
	if err != nil {
		return nil, nil, err
	}
	defer key.Wipe()

	plaintext, err := d.deps.Cipher.Decrypt(ciphertext, key, iv)
	if err != nil {
		return nil, nil, err
	}

	if err := interrupted(ctx); err != nil {
		clear(plaintext)

		return nil, nil, err
	}

	return meta, plaintext, nil
}

func (d *Downloader) loadMetadata(ctx context.Context, recordID string) (*model.EncryptedMediaMetadata, []byte, error) {
	meta, err := d.deps.Retriever.Fetch(ctx, recordID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", recordID, err)
	}

	if meta.Expired(d.deps.Now()) {
		return nil, nil, fmt.Errorf("record %s expired at %s: %w", recordID, meta.ExpiresAt, failure.ErrNotFound)
	}

	if err := meta.Validate(); err != nil {
		return nil, nil, err
	}

	if meta.Version != crypto.Version {
		return nil, nil, fmt.Errorf("unsupported version %q: %w", meta.Version, failure.ErrInvalidMetadata)
	}

	iv, err := crypto.DecodeTransport(meta.IV)
	if err != nil {
		return nil, nil, err
	}

	if len(iv) != crypto.NonceSize {
		return nil, nil, fmt.Errorf("iv is %d bytes: %w", len(iv), failure.ErrInvalidMetadata)
	}

	return meta, iv, nil
}

// fetch streams the blob chunk by chunk, reporting progress against the
// declared length when the store provides one.
func (d *Downloader) fetch(ctx context.Context, t *Task, path string) ([]byte, error) {
	body, declared, err := d.deps.Store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer body.Close()

	limit := d.config.HardLimitBytes + gcmTagSize
	if declared > limit {
		return nil, fmt.Errorf("blob declares %d bytes, limit %d: %w", declared, limit, failure.ErrIntegrity)
	}

	buf := make([]byte, 0, max(declared, 0))
	chunk := make([]byte, d.config.ChunkSize)

	t.report(0, declared)

	for {
		if err := interrupted(ctx); err != nil {
			clear(buf)

			return nil, err
		}

		n, rerr := body.Read(chunk)
		if n > 0 {
			if int64(len(buf)+n) > limit {
				clear(buf)

				return nil, fmt.Errorf("blob exceeds %d bytes: %w", limit, failure.ErrIntegrity)
			}

			buf = append(buf, chunk[:n]...)
			t.report(int64(len(buf)), declared)
		}

		if errors.Is(rerr, io.EOF) {
			break
		}

		if rerr != nil {
			clear(buf)

			return nil, fmt.Errorf("read %s: %v: %w", path, rerr, failure.ErrNetwork)
		}
	}

	clear(chunk)

	if declared >= 0 && int64(len(buf)) != declared {
		clear(buf)

		return nil, fmt.Errorf("stream ended at %d of %d bytes: %w", len(buf), declared, failure.ErrNetwork)
	}

	return buf, nil
}
