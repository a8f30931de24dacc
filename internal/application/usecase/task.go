package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"cipherdrop/internal/domain/entity"
	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/metrics"

	"github.com/google/uuid"
)

// Task is one running transfer. It owns its deadline, cancellation and attempt
// counter; nothing is shared between tasks.
type Task struct {
	id        string
	direction string
	table     transitions
	metrics   *metrics.Metrics
	progress  ProgressFunc

	deadline time.Time
	cancel   context.CancelCauseFunc
	done     chan struct{}

	mu         sync.Mutex
	state      State
	trace      []State
	attempt    int
	err        error
	stageStart time.Time
}

func newTask(parent context.Context, direction string, table transitions, timeout time.Duration,
	m *metrics.Metrics, progress ProgressFunc,
) (*Task, context.Context, context.CancelFunc) {
	withCancel, cancel := context.WithCancelCause(parent)
	ctx, stop := context.WithTimeoutCause(withCancel, timeout, failure.ErrTimeout)

	deadline, _ := ctx.Deadline()

	t := &Task{
		id:         uuid.NewString(),
		direction:  direction,
		table:      table,
		metrics:    m,
		progress:   progress,
		deadline:   deadline,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      StateIdle,
		stageStart: time.Now(),
	}

	return t, ctx, func() {
		stop()
		cancel(nil)
	}
}

func (t *Task) ID() string { return t.id }

func (t *Task) Deadline() time.Time { return t.deadline }

func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel aborts the task. The pipeline notices at its next stage boundary or
// when the in-flight network call returns.
func (t *Task) Cancel() {
	t.cancel(failure.ErrCanceled)
}

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

func (t *Task) Trace() []State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]State(nil), t.trace...)
}

func (t *Task) Attempt() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.attempt
}

// Err returns the error that moved the task into the error state.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

// enter checks for cancellation and then moves to the next stage.
func (t *Task) enter(ctx context.Context, next State) error {
	if err := interrupted(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.table.allows(t.state, next) {
		return fmt.Errorf("illegal transition %s -> %s", t.state, next)
	}

	if t.state == next {
		t.attempt++
		t.metrics.IncRetry(t.direction, string(next))
	}

	t.metrics.ObserveStage(t.direction, string(t.state), "ok", time.Since(t.stageStart))
	t.moveLocked(next)

	logger.Debug("transfer stage", "task", t.id, "direction", t.direction, "state", string(next))
	t.emitLocked(0, -1)

	return nil
}

// retrying records a restart of the pipeline from an earlier stage.
func (t *Task) retrying(stage State, attempt int, err error) {
	t.mu.Lock()
	if t.state != stage {
		t.attempt++
		t.metrics.IncRetry(t.direction, string(stage))
	}
	t.mu.Unlock()

	logger.Warn("transfer retry", "task", t.id, "direction", t.direction,
		"stage", string(stage), "attempt", attempt, "err", err)
}

// fail moves the task to the error state once. Later calls are no-ops.
func (t *Task) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		return
	}

	stage := string(t.state)
	t.err = err
	t.metrics.ObserveStage(t.direction, stage, "error", time.Since(t.stageStart))
	t.metrics.IncFailure(t.direction, stage, failure.Kind(err))
	t.moveLocked(StateError)

	logger.Error("transfer failed", "task", t.id, "direction", t.direction,
		"stage", stage, "reason", failure.Reason(err), "err", err)
	t.emitLocked(0, -1)
}

// finish records the terminal success state's stage duration.
func (t *Task) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.ObserveStage(t.direction, string(t.state), "ok", time.Since(t.stageStart))
}

func (t *Task) report(loaded, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.emitLocked(loaded, total)
}

func (t *Task) moveLocked(next State) {
	t.state = next
	t.trace = append(t.trace, next)
	t.stageStart = time.Now()
}

func (t *Task) emitLocked(loaded, total int64) {
	if t.progress == nil {
		return
	}

	t.progress(entity.Progress{
		TaskID:        t.id,
		State:         string(t.state),
		Loaded:        loaded,
		Total:         total,
		Indeterminate: total < 0,
	})
}

// watch forces the task into the error state as soon as its context ends,
// even if the running stage does not observe ctx.
func (t *Task) watch(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			t.fail(interrupted(ctx))
		case <-t.done:
		}
	}()
}

// interrupted maps a finished context to the failure taxonomy.
func interrupted(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}

	cause := context.Cause(ctx)

	switch {
	case errors.Is(cause, failure.ErrTimeout):
		return failure.ErrTimeout
	case errors.Is(cause, failure.ErrCanceled):
		return failure.ErrCanceled
	case errors.Is(cause, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", failure.ErrTimeout, cause)
	default:
		return fmt.Errorf("%w: %v", failure.ErrCanceled, cause)
	}
}

// settle prefers the context's reason over whatever error an aborted call produced.
func settle(ctx context.Context, err error) error {
	if ierr := interrupted(ctx); ierr != nil {
		return ierr
	}

	return err
}
