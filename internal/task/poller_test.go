package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

type step struct {
	state client.TaskState
	err   error
}

// scripted answers one step per poll; the last step repeats
type scripted struct {
	mu    sync.Mutex
	steps []step
	calls atomic.Int32
}

func (s *scripted) check(ctx context.Context, taskID string) (*client.TaskStatus, error) {
	n := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.steps) {
		n = len(s.steps) - 1
	}
	st := s.steps[n]
	if st.err != nil {
		return nil, st.err
	}
	status := &client.TaskStatus{TaskID: taskID, Status: st.state}
	if st.state == client.TaskFailure {
		status.Error = "scraper crashed"
	}
	return status, nil
}

type pollRecorder struct {
	mu       sync.Mutex
	polled   []string
	finished []string
}

func (r *pollRecorder) TaskPolled(state string) {
	r.mu.Lock()
	r.polled = append(r.polled, state)
	r.mu.Unlock()
}

func (r *pollRecorder) TaskFinished(outcome string) {
	r.mu.Lock()
	r.finished = append(r.finished, outcome)
	r.mu.Unlock()
}

func newTestPoller(rec Recorder) *Poller {
	return NewPoller(Config{Interval: 5 * time.Millisecond, MaxErrors: 3}, logger.Nop(), rec)
}

func wait(t *testing.T, h *Handle) (*client.TaskStatus, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := h.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("watch did not finish")
	}
	return st, err
}

func TestPoller_PendingPendingSuccess(t *testing.T) {
	s := &scripted{steps: []step{{state: client.TaskPending}, {state: client.TaskPending}, {state: client.TaskSuccess}}}
	rec := &pollRecorder{}

	var doneCalls atomic.Int32
	var updates []client.TaskState
	var mu sync.Mutex

	h := newTestPoller(rec).Start(context.Background(), "abc", s.check,
		OnUpdate(func(st client.TaskStatus) {
			mu.Lock()
			updates = append(updates, st.Status)
			mu.Unlock()
		}),
		OnDone(func(st *client.TaskStatus, err error) {
			doneCalls.Add(1)
		}),
	)

	st, err := wait(t, h)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, client.TaskSuccess, st.Status)
	assert.Equal(t, "abc", h.TaskID())

	// no polling after the terminal response
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(3), s.calls.Load())
	assert.Equal(t, int32(1), doneCalls.Load())

	mu.Lock()
	assert.Equal(t, []client.TaskState{client.TaskPending, client.TaskSuccess}, updates)
	mu.Unlock()

	rec.mu.Lock()
	assert.Equal(t, []string{"PENDING", "PENDING", "SUCCESS"}, rec.polled)
	assert.Equal(t, []string{"success"}, rec.finished)
	rec.mu.Unlock()
}

func TestPoller_Failure(t *testing.T) {
	s := &scripted{steps: []step{{state: client.TaskStarted}, {state: client.TaskFailure}}}

	h := newTestPoller(nil).Start(context.Background(), "t1", s.check)
	st, err := wait(t, h)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "scraper crashed")
	require.NotNil(t, st)
	assert.Equal(t, client.TaskFailure, st.Status)
}

func TestPoller_Cancel(t *testing.T) {
	s := &scripted{steps: []step{{state: client.TaskPending}}}

	var doneErr error
	var doneCalls atomic.Int32
	h := newTestPoller(nil).Start(context.Background(), "t1", s.check,
		OnDone(func(_ *client.TaskStatus, err error) {
			doneErr = err
			doneCalls.Add(1)
		}),
	)

	time.Sleep(20 * time.Millisecond)
	h.Cancel()
	h.Cancel()

	_, err := wait(t, h)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, doneErr, ErrCanceled)
	assert.Equal(t, int32(1), doneCalls.Load())

	calls := s.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, s.calls.Load(), "polling continued after cancel")
}

func TestPoller_ParentContextCanceled(t *testing.T) {
	s := &scripted{steps: []step{{state: client.TaskStarted}}}
	ctx, cancel := context.WithCancel(context.Background())

	h := newTestPoller(nil).Start(ctx, "t1", s.check)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop with its context")
	}
	_, err := h.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestPoller_TransientErrorsAreRetried(t *testing.T) {
	transient := fmt.Errorf("%w: connection reset", client.ErrRemote)
	s := &scripted{steps: []step{{err: transient}, {err: transient}, {state: client.TaskSuccess}}}

	h := newTestPoller(nil).Start(context.Background(), "t1", s.check)
	st, err := wait(t, h)

	require.NoError(t, err)
	assert.Equal(t, client.TaskSuccess, st.Status)
}

func TestPoller_TooManyTransientErrors(t *testing.T) {
	transient := fmt.Errorf("%w: 502", client.ErrRemote)
	s := &scripted{steps: []step{{err: transient}}}
	rec := &pollRecorder{}

	h := newTestPoller(rec).Start(context.Background(), "t1", s.check)
	_, err := wait(t, h)

	assert.ErrorIs(t, err, client.ErrRemote)
	assert.Equal(t, int32(3), s.calls.Load())
	assert.Equal(t, []string{"error"}, rec.finished)
}

func TestPoller_AuthErrorStopsAtOnce(t *testing.T) {
	s := &scripted{steps: []step{{err: fmt.Errorf("%w: token expired", client.ErrAuth)}}}

	h := newTestPoller(nil).Start(context.Background(), "t1", s.check)
	_, err := wait(t, h)

	assert.ErrorIs(t, err, client.ErrAuth)
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(Config{}, nil, nil)
	assert.Equal(t, DefaultInterval, p.interval)
	assert.Equal(t, 3, p.maxErrors)
}
