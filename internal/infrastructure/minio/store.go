package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"cipherdrop/internal/domain/failure"
)

// minPartSize is the smallest part ComposeObject accepts, except for the last one.
const minPartSize = 5 * 1024 * 1024

// Store keeps ciphertext blobs in a single bucket. Blobs larger than one part
// are uploaded as temporary parts and composed server-side.
type Store struct {
	minioClient *minio.Client
	cfg         *StoreConfig
}

func NewStore(minioClient *minio.Client, cfg *StoreConfig) *Store {
	if cfg.PartSizeBytes < minPartSize {
		cfg.PartSizeBytes = 16 * 1024 * 1024
	}

	return &Store{minioClient: minioClient, cfg: cfg}
}

func (s *Store) timeout() time.Duration {
	return time.Duration(s.cfg.Timeout) * time.Millisecond
}

func (s *Store) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	if size >= 0 && size <= s.cfg.PartSizeBytes {
		_, err := s.minioClient.PutObject(ctx, s.cfg.Bucket, path, body, size,
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return "", translate(err, "put", path)
		}

		return path, nil
	}

	var parts []string
	written, err := s.putParts(ctx, body, &parts, contentType)
	if err != nil {
		s.cleanupParts(ctx, parts)

		return "", err
	}

	if size >= 0 && written != size {
		s.cleanupParts(ctx, parts)

		return "", fmt.Errorf("size mismatch: read %d bytes, expected %d: %w", written, size, failure.ErrNetwork)
	}

	if err := s.composeParts(ctx, parts, path); err != nil {
		s.cleanupParts(ctx, parts)

		return "", err
	}

	s.cleanupParts(ctx, parts)

	return path, nil
}

func (s *Store) putParts(ctx context.Context, body io.Reader, parts *[]string, contentType string) (int64, error) {
	var total int64
	buf := make([]byte, s.cfg.PartSizeBytes)

	for index := 0; ; index++ {
		n, err := io.ReadFull(body, buf)
		if n > 0 {
			name := fmt.Sprintf("parts/%s-%d", uuid.NewString(), index)
			*parts = append(*parts, name)

			_, perr := s.minioClient.PutObject(ctx, s.cfg.Bucket, name, bytes.NewReader(buf[:n]), int64(n),
				minio.PutObjectOptions{ContentType: contentType})
			if perr != nil {
				logger.Error("failed to upload part", "part", name, "err", perr)

				return total, translate(perr, "put part", name)
			}

			total += int64(n)
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return total, nil
		}

		if err != nil {
			return total, fmt.Errorf("read body: %w", err)
		}
	}
}

func (s *Store) composeParts(ctx context.Context, parts []string, path string) error {
	if len(parts) == 0 {
		_, err := s.minioClient.PutObject(ctx, s.cfg.Bucket, path, bytes.NewReader(nil), 0, minio.PutObjectOptions{})

		return translate(err, "put", path)
	}

	sources := make([]minio.CopySrcOptions, len(parts))
	for i, name := range parts {
		sources[i] = minio.CopySrcOptions{Bucket: s.cfg.Bucket, Object: name}
	}

	dst := minio.CopyDestOptions{Bucket: s.cfg.Bucket, Object: path}
	if _, err := s.minioClient.ComposeObject(ctx, dst, sources...); err != nil {
		logger.Error("failed to compose parts", "path", path, "err", err)

		return translate(err, "compose", path)
	}

	return nil
}

func (s *Store) cleanupParts(ctx context.Context, parts []string) {
	for _, name := range parts {
		if err := s.minioClient.RemoveObject(ctx, s.cfg.Bucket, name, minio.RemoveObjectOptions{}); err != nil {
			logger.Warn("failed to clean up part", "part", name, "err", err)
		}
	}
}

// Get stats the object first so a missing blob fails here rather than on the first Read.
func (s *Store) Get(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())

	obj, err := s.minioClient.GetObject(ctx, s.cfg.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		cancel()

		return nil, 0, translate(err, "get", path)
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		cancel()

		return nil, 0, translate(err, "stat", path)
	}

	return &object{Object: obj, cancel: cancel}, info.Size, nil
}

func (s *Store) Remove(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	if _, err := s.minioClient.StatObject(ctx, s.cfg.Bucket, path, minio.StatObjectOptions{}); err != nil {
		return translate(err, "stat", path)
	}

	if err := s.minioClient.RemoveObject(ctx, s.cfg.Bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return translate(err, "remove", path)
	}

	return nil
}

type object struct {
	*minio.Object
	cancel context.CancelFunc
}

func (o *object) Close() error {
	defer o.cancel()

	return o.Object.Close()
}

func translate(err error, op, path string) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)

	switch {
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", op, path, failure.ErrNotFound)
	case resp.StatusCode == 0 || resp.StatusCode >= http.StatusInternalServerError ||
		resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s %s: %v: %w", op, path, err, failure.ErrNetwork)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}
