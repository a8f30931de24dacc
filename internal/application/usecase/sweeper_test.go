package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putRecord(h *harness, id string, expiresAt time.Time) {
	path := "transfers/" + id
	h.store.objects[path] = []byte("ct")
	h.db.records[id] = model.EncryptedMediaMetadata{ID: id, StoragePath: path, ExpiresAt: expiresAt}
}

func TestSweeper_RemovesOnlyExpired(t *testing.T) {
	h := newHarness()
	for i := range 5 {
		putRecord(h, fmt.Sprintf("old-%d", i), h.now.Add(-time.Duration(i)*time.Hour))
	}
	putRecord(h, "edge", h.now)
	putRecord(h, "fresh", h.now.Add(time.Minute))

	sweeper := NewSweeper(h.db, NewDeleter(h.db, h.db, h.store), 2)

	report, err := sweeper.Sweep(context.Background(), h.now)
	require.NoError(t, err)

	assert.Equal(t, SweepReport{Removed: 6}, report)
	assert.Equal(t, 1, h.db.len())
	assert.Equal(t, 1, h.store.len())

	_, err = h.db.Fetch(context.Background(), "fresh")
	require.NoError(t, err)
}

func TestSweeper_BlobFailureKeepsRecord(t *testing.T) {
	h := newHarness()
	putRecord(h, "stuck", h.now.Add(-time.Hour))
	h.store.removeErr = fmt.Errorf("timeout: %w", failure.ErrNetwork)

	sweeper := NewSweeper(h.db, NewDeleter(h.db, h.db, h.store), 10)

	report, err := sweeper.Sweep(context.Background(), h.now)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Failed: 1}, report)
	assert.Equal(t, 1, h.db.len())
}

func TestSweeper_PagesPastFailures(t *testing.T) {
	h := newHarness()
	h.store.removeFails = map[string]error{}
	for i := range 3 {
		id := fmt.Sprintf("stuck-%d", i)
		putRecord(h, id, h.now.Add(-2*time.Hour))
		h.store.removeFails["transfers/"+id] = fmt.Errorf("timeout: %w", failure.ErrNetwork)
	}
	putRecord(h, "late-0", h.now.Add(-time.Hour))
	putRecord(h, "late-1", h.now.Add(-time.Minute))

	report, err := NewSweeper(h.db, NewDeleter(h.db, h.db, h.store), 2).Sweep(context.Background(), h.now)
	require.NoError(t, err)

	assert.Equal(t, SweepReport{Removed: 2, Failed: 3}, report)
	assert.Equal(t, 3, h.db.len())

	_, err = h.db.Fetch(context.Background(), "late-1")
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestSweeper_MissingBlobStillRemovesRecord(t *testing.T) {
	h := newHarness()
	putRecord(h, "ghost", h.now.Add(-time.Hour))
	delete(h.store.objects, "transfers/ghost")

	report, err := NewSweeper(h.db, NewDeleter(h.db, h.db, h.store), 0).Sweep(context.Background(), h.now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 0, h.db.len())
}

func TestDeleter_DeleteTransfer(t *testing.T) {
	h := newHarness()
	putRecord(h, "mine", h.now.Add(time.Hour))

	d := NewDeleter(h.db, h.db, h.store)
	require.NoError(t, d.DeleteTransfer(context.Background(), "mine"))
	assert.Equal(t, 0, h.db.len())
	assert.Equal(t, 0, h.store.len())

	err := d.DeleteTransfer(context.Background(), "mine")
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestGetter_HidesExpired(t *testing.T) {
	h := newHarness()
	putRecord(h, "live", time.Now().Add(time.Hour))
	putRecord(h, "dead", time.Now().Add(-time.Hour))

	g := NewGetter(h.db)

	meta, err := g.GetTransfer(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "live", meta.ID)

	_, err = g.GetTransfer(context.Background(), "dead")
	require.True(t, errors.Is(err, failure.ErrNotFound))
}
