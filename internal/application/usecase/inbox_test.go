package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cipherdrop/internal/domain/model"
	"cipherdrop/internal/domain/repository/broker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanMessage struct {
	id    string
	body  []byte
	acked chan string
}

func (m chanMessage) ID() string   { return m.id }
func (m chanMessage) Body() []byte { return m.body }
func (m chanMessage) Ack() error   { m.acked <- "ack:" + m.id; return nil }
func (m chanMessage) Nack() error  { m.acked <- "nack:" + m.id; return nil }

type chanReceiver struct{ ch chan broker.Message }

func (r chanReceiver) Messages(context.Context, string) (<-chan broker.Message, error) {
	return r.ch, nil
}

func TestInbox_ReceivesForLocalIdentity(t *testing.T) {
	h := newHarness()
	priv, _ := testKeys(t)
	meta := seed(t, h, []byte("hello demo"))

	dir := t.TempDir()
	ch := make(chan broker.Message, 4)
	acked := make(chan string, 4)
	inbox := NewInbox(chanReceiver{ch: ch}, h.downloader(fastConfig()), "bob", priv, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- inbox.Run(ctx) }()

	mine, err := encodeNotice(meta)
	require.NoError(t, err)
	other := meta
	other.Recipient = "carol"
	theirs, err := encodeNotice(other)
	require.NoError(t, err)
	missing := meta
	missing.ID = "gone"
	lost, err := encodeNotice(missing)
	require.NoError(t, err)

	ch <- chanMessage{id: "1", body: mine, acked: acked}
	ch <- chanMessage{id: "2", body: theirs, acked: acked}
	ch <- chanMessage{id: "3", body: []byte("{"), acked: acked}
	ch <- chanMessage{id: "4", body: lost, acked: acked}

	for _, want := range []string{"ack:1", "ack:2", "ack:3", "ack:4"} {
		select {
		case got := <-acked:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	cancel()
	require.NoError(t, <-done)

	data, err := os.ReadFile(filepath.Join(dir, meta.ID+".txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello demo", string(data))

	info, err := os.Stat(filepath.Join(dir, meta.ID+".txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInbox_TransientFailureIsNacked(t *testing.T) {
	h := newHarness()
	priv, _ := testKeys(t)
	meta := seed(t, h, []byte("later"))
	h.store.getFailures = 100

	acked := make(chan string, 1)
	body, err := encodeNotice(model.EncryptedMediaMetadata{ID: meta.ID, Recipient: "bob"})
	require.NoError(t, err)

	inbox := NewInbox(nil, h.downloader(fastConfig()), "bob", priv, t.TempDir())
	inbox.handle(context.Background(), chanMessage{id: "9", body: body, acked: acked})

	assert.Equal(t, "nack:9", <-acked)
}

func TestInbox_ReceiveReleasesNoPreviews(t *testing.T) {
	h := newHarness()
	priv, _ := testKeys(t)
	inbox := NewInbox(nil, h.downloader(fastConfig()), "bob", priv, t.TempDir())

	for range 3 {
		meta := seed(t, h, []byte("hello demo"))

		path, err := inbox.Receive(context.Background(), meta.ID)
		require.NoError(t, err)
		assert.FileExists(t, path)
	}

	made, live := h.previews.count()
	assert.Equal(t, 0, made)
	assert.Equal(t, 0, live)
	assert.Len(t, h.library.saved, 3)
}
