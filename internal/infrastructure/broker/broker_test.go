package broker

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/repository/broker"
)

const RedisImage = "redis:7-alpine"

func setupRedis(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get Redis container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get Redis container port: %v", err)
	}

	uri := fmt.Sprintf("redis://%s", net.JoinHostPort(host, port.Port()))

	return uri, func() {
		_ = redisC.Terminate(ctx)
	}
}

func newTestClient(t *testing.T, uri string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		URI:              uri,
		StreamName:       "test:notices",
		GroupName:        "test",
		BlockMS:          100,
		RedeliverAfterMS: 200,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func next(t *testing.T, msgs <-chan broker.Message) broker.Message {
	t.Helper()

	select {
	case m, ok := <-msgs:
		require.True(t, ok, "channel closed")

		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	return nil
}

func TestBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	uri, cleanup := setupRedis(t)
	defer cleanup()

	client := newTestClient(t, uri)
	pub := NewPublisher(client, PublisherConfig{Timeout: 1000})
	recv := NewReceiver(client)

	t.Run("delivers to the addressed recipient only", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		msgs, err := recv.Messages(ctx, "bob")
		require.NoError(t, err)

		require.NoError(t, pub.Publish(ctx, "carol", []byte("not for bob")))
		require.NoError(t, pub.Publish(ctx, "bob", []byte(`{"record_id":"r1"}`)))

		m := next(t, msgs)
		assert.Equal(t, `{"record_id":"r1"}`, string(m.Body()))
		assert.NotEmpty(t, m.ID())
		require.NoError(t, m.Ack())
	})

	t.Run("nacked message is redelivered", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		msgs, err := recv.Messages(ctx, "dave")
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, "dave", []byte("retry me")))

		first := next(t, msgs)
		require.NoError(t, first.Nack())

		again := next(t, msgs)
		assert.Equal(t, first.ID(), again.ID())
		require.NoError(t, again.Ack())
	})

	t.Run("channel closes with context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		msgs, err := recv.Messages(ctx, "erin")
		require.NoError(t, err)
		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-msgs:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 20*time.Millisecond)
	})
}

func TestPublishValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		recipient string
	}{
		{name: "empty recipient", recipient: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := NewPublisher(&Client{stream: "s"}, PublisherConfig{})
			err := pub.Publish(context.Background(), tt.recipient, []byte("x"))
			assert.ErrorIs(t, err, failure.ErrValidation)
		})
	}
}

func TestStreamFor(t *testing.T) {
	t.Parallel()

	c := &Client{stream: "cipherdrop:notices"}
	assert.Equal(t, "cipherdrop:notices:bob", c.streamFor("bob"))
	assert.True(t, isBusyGroup(fmt.Errorf("BUSYGROUP Consumer Group name already exists")))
	assert.False(t, isBusyGroup(nil))
}
