package usecase

import (
	"context"
	"testing"
	"time"

	"cipherdrop/internal/domain/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceLegality(t *testing.T) {
	tests := []struct {
		name     string
		trace    []State
		download bool
		want     bool
	}{
		{"full upload", []State{StateSelecting, StateProcessing, StateCompressing, StateGeneratingThumbnail,
			StatePaymentRequired, StatePaymentPending, StateEncrypting, StateUploading, StateComplete}, false, true},
		{"upload error mid-way", []State{StateSelecting, StateProcessing, StateError}, false, true},
		{"thumbnail after uploading", []State{StateSelecting, StateProcessing, StateEncrypting,
			StateUploading, StateGeneratingThumbnail}, false, false},
		{"skip payment pending", []State{StateSelecting, StateProcessing, StatePaymentRequired, StateEncrypting}, false, false},
		{"leave terminal", []State{StateSelecting, StateError, StateProcessing}, false, false},
		{"start mid-way", []State{StateEncrypting}, false, false},
		{"download with retry", []State{StateLoadingMetadata, StateDownloading, StateDecrypting,
			StateLoadingMetadata, StateDownloading, StateDecrypting, StateReady}, true, true},
		{"decrypt before download", []State{StateLoadingMetadata, StateDecrypting}, true, false},
		{"retry into downloading", []State{StateLoadingMetadata, StateDownloading, StateDownloading}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.download {
				assert.Equal(t, tt.want, ValidDownloadTrace(tt.trace))
			} else {
				assert.Equal(t, tt.want, ValidUploadTrace(tt.trace))
			}
		})
	}
}

func TestTask_RejectsIllegalTransition(t *testing.T) {
	task, ctx, release := newTask(context.Background(), "upload", uploadTransitions, time.Minute, nil, nil)
	defer release()

	require.NoError(t, task.enter(ctx, StateSelecting))
	require.Error(t, task.enter(ctx, StateUploading))
	assert.Equal(t, StateSelecting, task.State())
}

func TestInterrupted(t *testing.T) {
	require.NoError(t, interrupted(context.Background()))

	task, ctx, release := newTask(context.Background(), "upload", uploadTransitions, time.Minute, nil, nil)
	defer release()
	task.Cancel()
	require.ErrorIs(t, interrupted(ctx), failure.ErrCanceled)

	_, ctx, release2 := newTask(context.Background(), "upload", uploadTransitions, time.Nanosecond, nil, nil)
	defer release2()
	<-ctx.Done()
	require.ErrorIs(t, interrupted(ctx), failure.ErrTimeout)
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

	calls := 0
	var retried []int
	err := p.do(context.Background(), failure.Retryable, func(attempt int, err error) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, failure.ErrNetwork)
	}, func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)

		return failure.ErrNetwork
	})
	require.ErrorIs(t, err, failure.ErrNetwork)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)

	calls = 0
	err = p.do(context.Background(), failure.Retryable, nil, func(context.Context, int) error {
		calls++

		return failure.ErrValidation
	})
	require.ErrorIs(t, err, failure.ErrValidation)
	assert.Equal(t, 1, calls)

	calls = 0
	err = p.do(context.Background(), failure.Retryable, nil, func(_ context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return failure.ErrNetwork
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	b := p.backOff()
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, 2*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 4*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 4*time.Millisecond, b.NextBackOff())
}

func TestRetryPolicy_Canceled(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := p.do(ctx, failure.Retryable, func(int, error) { cancel() }, func(context.Context, int) error {
		calls++

		return failure.ErrNetwork
	})
	require.ErrorIs(t, err, failure.ErrCanceled)
	assert.Equal(t, 1, calls)
}
