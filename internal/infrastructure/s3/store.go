package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"cipherdrop/internal/domain/failure"
)

// Store keeps ciphertext blobs in any S3-compatible bucket.
type Store struct {
	client  *s3.Client
	bucket  string
	timeout time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger.Info("s3 store configured", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

	return &Store{client: client, bucket: cfg.Bucket, timeout: timeout}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var nf *s3types.NotFound
	if !errors.As(err, &nf) && status(err) != http.StatusNotFound {
		return translate(err, "head bucket", s.bucket)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}

		return translate(err, "create bucket", s.bucket)
	}

	logger.Info("bucket created", "bucket", s.bucket)

	return nil
}

// Put needs a seekable body for request signing, so other readers are buffered first.
func (s *Store) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	seeker, ok := body.(io.ReadSeeker)
	if !ok || size < 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		if size >= 0 && int64(len(data)) != size {
			return "", fmt.Errorf("size mismatch: read %d bytes, expected %d: %w", len(data), size, failure.ErrNetwork)
		}

		seeker = bytes.NewReader(data)
		size = int64(len(data))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          seeker,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", translate(err, "put", path)
	}

	return path, nil
}

func (s *Store) Get(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		cancel()

		return nil, 0, translate(err, "get", path)
	}

	length := int64(-1)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}

	return &object{ReadCloser: out.Body, cancel: cancel}, length, nil
}

// Remove reports NotFound for missing keys; DeleteObject alone succeeds silently on them.
func (s *Store) Remove(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return translate(err, "head", path)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return translate(err, "delete", path)
	}

	return nil
}

type object struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (o *object) Close() error {
	defer o.cancel()

	return o.ReadCloser.Close()
}

func status(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}

	return 0
}

func translate(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var (
		apiErr smithy.APIError
		nsk    *s3types.NoSuchKey
		nf     *s3types.NotFound
	)
	code := status(err)

	switch {
	case errors.As(err, &nsk) || errors.As(err, &nf) || code == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", op, path, failure.ErrNotFound)
	case errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey":
		return fmt.Errorf("%s %s: %w", op, path, failure.ErrNotFound)
	case code == 0 || code >= http.StatusInternalServerError || code == http.StatusTooManyRequests:
		return fmt.Errorf("%s %s: %v: %w", op, path, err, failure.ErrNetwork)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}
