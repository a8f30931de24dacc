package usecase

import (
	"bytes"
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
	"cipherdrop/internal/domain/repository/broker"
	"cipherdrop/internal/domain/repository/database"
	"cipherdrop/internal/domain/repository/paymentgate"
	"cipherdrop/internal/domain/repository/preview"
	"cipherdrop/internal/media"
	"cipherdrop/internal/metrics"
	"cipherdrop/pkg/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type UploadRequest struct {
	Conversation string
	Recipient    string
	RecipientKey *rsa.PublicKey
	FileName     string
	MimeType     string
	Size         int64
	Body         io.Reader
	OnProgress   ProgressFunc
}

type UploadResult struct {
	RecordID     string
	Metadata     model.EncryptedMediaMetadata
	PreviewURL   string
	PaymentToken string
	Trace        []State
}

// UploaderDeps wires the sender pipeline. Compressor, Thumbnailer, Previews,
// Publisher, Gate and Metrics are optional.
type UploaderDeps struct {
	Keys        KeySource
	Cipher      Cipher
	Wrapper     Wrapper
	Store       blobstore.Putter
	Writer      database.Writer
	Gate        paymentgate.Gate
	Publisher   broker.Publisher
	Previews    preview.Registry
	Compressor  Compressor
	Thumbnailer Thumbnailer
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

type Uploader struct {
	deps   UploaderDeps
	config TransferConfig
}

func NewUploader(deps UploaderDeps, cfg TransferConfig) *Uploader {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Uploader{deps: deps, config: cfg.WithDefaults()}
}

type UploadTask struct {
	*Task
	result *UploadResult
}

// Wait blocks until the task has stopped and released its resources.
func (t *UploadTask) Wait() (*UploadResult, error) {
	<-t.done

	if err := t.Err(); err != nil {
		return nil, err
	}

	return t.result, nil
}

// Start runs the sender pipeline in its own goroutine.
func (u *Uploader) Start(ctx context.Context, req UploadRequest) *UploadTask {
	timeout := time.Duration(u.config.UploadTimeoutMS) * time.Millisecond
	task, taskCtx, release := newTask(ctx, metrics.DirectionUpload, uploadTransitions, timeout,
		u.deps.Metrics, req.OnProgress)
	ut := &UploadTask{Task: task}

	done := u.deps.Metrics.TransferStarted(metrics.DirectionUpload)
	task.watch(taskCtx)

	go func() {
		defer done()
		defer release()
		defer close(task.done)

		result, err := u.run(taskCtx, task, req)
		if err != nil {
			task.fail(err)

			return
		}

		result.Trace = task.Trace()
		ut.result = result
	}()

	return ut
}

// Upload runs the sender pipeline and waits for it.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	return u.Start(ctx, req).Wait()
}

type upload struct {
	plaintext  []byte
	mimeType   string
	fileName   string
	thumbnail  []byte
	previewURL string
	token      string
	ciphertext []byte
	iv         []byte
	wrapped    string
}

func (u *Uploader) run(ctx context.Context, t *Task, req UploadRequest) (_ *UploadResult, err error) {
	st := &upload{}

	defer func() {
		clear(st.plaintext)
		st.plaintext = nil

		if err != nil && st.previewURL != "" && u.deps.Previews != nil {
			u.deps.Previews.Revoke(st.previewURL)
		}
	}()

	if err := t.enter(ctx, StateSelecting); err != nil {
		return nil, err
	}

	if err := u.selectFile(ctx, req, st); err != nil {
		return nil, settle(ctx, err)
	}

	if err := t.enter(ctx, StateProcessing); err != nil {
		return nil, err
	}

	if u.deps.Compressor != nil && u.deps.Compressor.Applies(int64(len(st.plaintext)), st.mimeType) {
		if err := t.enter(ctx, StateCompressing); err != nil {
			return nil, err
		}

		u.compress(ctx, st)
	}

	if u.deps.Thumbnailer != nil && isVisual(st.mimeType) {
		if err := t.enter(ctx, StateGeneratingThumbnail); err != nil {
			return nil, err
		}

		u.thumbnail(ctx, t, st)
	}

	if int64(len(st.plaintext)) > u.config.FreeLimitBytes {
		if err := u.authorize(ctx, t, req, st); err != nil {
			return nil, err
		}
	}

	if err := t.enter(ctx, StateEncrypting); err != nil {
		return nil, err
	}

	if err := u.encrypt(req, st); err != nil {
		return nil, settle(ctx, err)
	}
	clear(st.plaintext)
	st.plaintext = nil

	path, err := u.upload(ctx, t, u.storagePath(), st)
	if err != nil {
		return nil, err
	}

	if err := interrupted(ctx); err != nil {
		logger.Error("transfer stopped before metadata was saved, blob orphaned", "task", t.id, "path", path, "err", err)

		return nil, err
	}

	meta := u.metadata(req, st, path)

	id, err := u.deps.Writer.Insert(ctx, req.Conversation, &meta)
	if err != nil {
		logger.Error("metadata not saved, blob orphaned", "task", t.id, "path", path, "err", err)

		if ierr := interrupted(ctx); ierr != nil {
			return nil, fmt.Errorf("orphaned %s: %w: %w", path, failure.ErrMetadataPersist, ierr)
		}

		return nil, fmt.Errorf("orphaned %s: %v: %w", path, err, failure.ErrMetadataPersist)
	}
	meta.ID = id

	if err := t.enter(ctx, StateComplete); err != nil {
		return nil, err
	}
	t.finish()
	t.report(int64(len(st.ciphertext)), int64(len(st.ciphertext)))

	u.publish(ctx, meta)

	return &UploadResult{
		RecordID:     id,
		Metadata:     meta,
		PreviewURL:   st.previewURL,
		PaymentToken: st.token,
	}, nil
}

func (u *Uploader) selectFile(ctx context.Context, req UploadRequest, st *upload) error {
	if strings.TrimSpace(req.Conversation) == "" {
		return fmt.Errorf("conversation required: %w", failure.ErrValidation)
	}

	if req.RecipientKey == nil {
		return fmt.Errorf("recipient key required: %w", failure.ErrValidation)
	}

	if req.Body == nil {
		return fmt.Errorf("file body required: %w", failure.ErrValidation)
	}

	if req.Size > u.config.HardLimitBytes {
		return fmt.Errorf("file is %d bytes, limit %d: %w", req.Size, u.config.HardLimitBytes, failure.ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(contextReader{ctx: ctx, r: req.Body}, u.config.HardLimitBytes+1))
	if err != nil {
		clear(data)

		return fmt.Errorf("read file: %w", err)
	}

	if int64(len(data)) > u.config.HardLimitBytes {
		clear(data)

		return fmt.Errorf("file exceeds %d bytes: %w", u.config.HardLimitBytes, failure.ErrTooLarge)
	}

	st.plaintext = data
	st.mimeType = detectMimeType(data, req.MimeType)
	st.fileName = utils.SanitizeFileName(req.FileName, st.mimeType)

	return nil
}

func (u *Uploader) compress(ctx context.Context, st *upload) {
	smaller, err := u.deps.Compressor.Compress(ctx, st.plaintext)
	if err != nil {
		logger.Debug("recompression skipped", "mime", st.mimeType, "err", err)

		return
	}

	clear(st.plaintext)
	st.plaintext = smaller
	st.mimeType = media.CompressedMimeType
	st.fileName = utils.ReplaceExtension(st.fileName, utils.GetExtensionFromMimeType(st.mimeType))
}

func (u *Uploader) thumbnail(ctx context.Context, t *Task, st *upload) {
	thumb, err := u.deps.Thumbnailer.Generate(ctx, st.plaintext, st.mimeType)
	if err != nil {
		logger.Warn("thumbnail failed", "task", t.id, "mime", st.mimeType, "err", err)

		return
	}

	if len(thumb) == 0 || len(thumb) > media.DefaultThumbnailMaxBytes {
		return
	}

	st.thumbnail = thumb
	if u.deps.Previews != nil {
		st.previewURL = u.deps.Previews.Create(thumb, media.CompressedMimeType)
	}
}

func (u *Uploader) authorize(ctx context.Context, t *Task, req UploadRequest, st *upload) error {
	if err := t.enter(ctx, StatePaymentRequired); err != nil {
		return err
	}

	if err := t.enter(ctx, StatePaymentPending); err != nil {
		return err
	}

	if u.deps.Gate == nil {
		return fmt.Errorf("no payment gate configured: %w", failure.ErrPayment)
	}

	token, err := u.deps.Gate.AuthorizeLargeFile(ctx, int64(len(st.plaintext)), req.Conversation)
	if err != nil {
		if ierr := interrupted(ctx); ierr != nil {
			return ierr
		}

		if errors.Is(err, failure.ErrPayment) {
			return err
		}

		return fmt.Errorf("authorize %d bytes: %v: %w", len(st.plaintext), err, failure.ErrPayment)
	}

	st.token = token

	return nil
}

func (u *Uploader) encrypt(req UploadRequest, st *upload) error {
	key, err := u.deps.Keys.GenerateSymmetricKey()
	if err != nil {
		return err
	}
	defer key.Wipe()

	ct, iv, err := u.deps.Cipher.Encrypt(st.plaintext, key)
	if err != nil {
		return err
	}

	wrapped, err := u.deps.Wrapper.WrapKeyForRecipient(key, req.RecipientKey)
	if err != nil {
		return err
	}

	st.ciphertext, st.iv, st.wrapped = ct, iv, wrapped

	return nil
}

// upload returns the locator the store reports, which becomes the record's storage path.
func (u *Uploader) upload(ctx context.Context, t *Task, path string, st *upload) (string, error) {
	total := int64(len(st.ciphertext))
	stored := path

	err := u.config.retryPolicy().do(ctx, failure.Retryable,
		func(attempt int, err error) { t.retrying(StateUploading, attempt, err) },
		func(ctx context.Context, _ int) error {
			if err := t.enter(ctx, StateUploading); err != nil {
				return err
			}

			body := &countingReader{
				r:      bytes.NewReader(st.ciphertext),
				report: func(n int64) { t.report(n, total) },
			}

			locator, err := u.deps.Store.Put(ctx, path, body, total, "application/octet-stream")
			if err != nil {
				return settle(ctx, fmt.Errorf("put %s: %w", path, err))
			}

			if locator != "" {
				stored = locator
			}

			return nil
		})
	if err != nil {
		return "", err
	}

	return stored, nil
}

func (u *Uploader) metadata(req UploadRequest, st *upload, path string) model.EncryptedMediaMetadata {
	now := u.deps.Now().UTC()

	return model.EncryptedMediaMetadata{
		ID:            uuid.NewString(),
		Conversation:  req.Conversation,
		Recipient:     req.Recipient,
		IV:            crypto.EncodeTransport(st.iv),
		EncryptedKey:  st.wrapped,
		MimeType:      st.mimeType,
		FileName:      st.fileName,
		FileSize:      0,
		ThumbnailData: st.thumbnail,
		StoragePath:   path,
		CreatedAt:     now,
		ExpiresAt:     now.Add(u.config.TTL()),
		Version:       crypto.Version,
	}
}

func (u *Uploader) storagePath() string {
	now := u.deps.Now().UTC()

	return fmt.Sprintf("transfers/%04d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), uuid.NewString())
}

func (u *Uploader) publish(ctx context.Context, meta model.EncryptedMediaMetadata) {
	if u.deps.Publisher == nil || meta.Recipient == "" {
		return
	}

	payload, err := encodeNotice(meta)
	if err != nil {
		logger.Error("encode transfer notice", "record", meta.ID, "err", err)

		return
	}

	if err := u.deps.Publisher.Publish(ctx, meta.Recipient, payload); err != nil {
		logger.Warn("transfer notice not published", "record", meta.ID, "err", err)
	}
}

func detectMimeType(data []byte, declared string) string {
	sniffed := baseMimeType(mimetype.Detect(data).String())
	declared = baseMimeType(declared)

	if sniffed == "application/octet-stream" && declared != "" {
		return declared
	}

	return sniffed
}

func baseMimeType(m string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(m, ";")[0]))
}

func isVisual(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/")
}

// contextReader stops a blocking body read once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
