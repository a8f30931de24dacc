package minio

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"cipherdrop/internal/domain/failure"
)

const (
	TestAccessKey = "minioadmin"
	TestSecretKey = "minioadmin"
	BucketName    = "temp-bucket-for-tests"
)

func setupMinio(t *testing.T) *minio.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping minio container test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     TestAccessKey,
			"MINIO_ROOT_PASSWORD": TestSecretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := New(&ClientConfig{AccessKey: TestAccessKey, SecretKey: TestSecretKey, Endpoint: endpoint})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx, BucketName))
	require.NoError(t, client.EnsureBucket(ctx, BucketName))

	return client.MinioClient
}

func TestStore(t *testing.T) {
	client := setupMinio(t)
	store := NewStore(client, &StoreConfig{Timeout: 10000, Bucket: BucketName, PartSizeBytes: minPartSize})
	ctx := context.Background()

	small := []byte("ciphertext bytes")
	large := bytes.Repeat([]byte{0x5A}, minPartSize*2+123)

	tests := []struct {
		name string
		data []byte
		size int64
	}{
		{"single put", small, int64(len(small))},
		{"composed parts", large, int64(len(large))},
		{"unknown size", small, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "transfers/2025/01/01/" + tt.name

			got, err := store.Put(ctx, path, bytes.NewReader(tt.data), tt.size, "application/octet-stream")
			require.NoError(t, err)
			assert.Equal(t, path, got)

			body, declared, err := store.Get(ctx, path)
			require.NoError(t, err)
			defer body.Close()

			assert.Equal(t, int64(len(tt.data)), declared)
			read, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.data, read))

			require.NoError(t, store.Remove(ctx, path))
			_, _, err = store.Get(ctx, path)
			require.ErrorIs(t, err, failure.ErrNotFound)
		})
	}

	objects := client.ListObjects(ctx, BucketName, minio.ListObjectsOptions{Prefix: "parts/", Recursive: true})
	for obj := range objects {
		t.Errorf("leftover part %s", obj.Key)
	}
}

func TestStore_SizeMismatch(t *testing.T) {
	client := setupMinio(t)
	store := NewStore(client, &StoreConfig{Timeout: 10000, Bucket: BucketName, PartSizeBytes: minPartSize})

	_, err := store.Put(context.Background(), "short", bytes.NewReader(make([]byte, 10)), minPartSize+1, "")
	require.ErrorIs(t, err, failure.ErrNetwork)

	err = store.Remove(context.Background(), "never-written")
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestStore_UnreachableEndpoint(t *testing.T) {
	c, err := minio.New("localhost:1", &minio.Options{Creds: credentials.NewStaticV4("a", "b", "")})
	require.NoError(t, err)

	store := NewStore(c, &StoreConfig{Timeout: 200, Bucket: "x"})
	_, _, err = store.Get(context.Background(), "anything")
	require.ErrorIs(t, err, failure.ErrNetwork)
}
