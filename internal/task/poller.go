// Package task observes long-running backend tasks (scraper runs) by polling
// their status endpoint until they reach a terminal state.
package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// DefaultInterval is the delay between two status polls
const DefaultInterval = 2 * time.Second

var (
	// ErrCanceled is returned when the watch is canceled before a terminal state
	ErrCanceled = errors.New("task watch canceled")
	// ErrFailed is returned when the task finished with FAILURE
	ErrFailed = errors.New("task failed")
)

// CheckFunc reads the current status of a task
type CheckFunc func(ctx context.Context, taskID string) (*client.TaskStatus, error)

// Recorder receives poll metrics
type Recorder interface {
	TaskPolled(state string)
	TaskFinished(outcome string)
}

// Config holds poller settings
type Config struct {
	Interval time.Duration
	// MaxErrors is the number of consecutive transient status errors that
	// ends the watch. Auth, permission and not-found errors end it at once.
	MaxErrors int
}

// Poller starts status watches
type Poller struct {
	interval  time.Duration
	maxErrors int
	logger    *logger.Logger
	recorder  Recorder
}

// NewPoller creates a poller; rec may be nil
func NewPoller(cfg Config, log *logger.Logger, rec Recorder) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		interval:  cfg.Interval,
		maxErrors: cfg.MaxErrors,
		logger:    log.Component("task"),
		recorder:  rec,
	}
}

type watchOptions struct {
	onUpdate []func(client.TaskStatus)
	onDone   []func(*client.TaskStatus, error)
}

// WatchOption configures a single watch
type WatchOption func(*watchOptions)

// OnUpdate is called whenever the reported state changes. Callbacks run in
// the order they were given.
func OnUpdate(fn func(client.TaskStatus)) WatchOption {
	return func(o *watchOptions) { o.onUpdate = append(o.onUpdate, fn) }
}

// OnDone is called exactly once when the watch ends, with the final status or error
func OnDone(fn func(*client.TaskStatus, error)) WatchOption {
	return func(o *watchOptions) { o.onDone = append(o.onDone, fn) }
}

// Handle is a running watch. Its owner must call Cancel on teardown.
type Handle struct {
	taskID string
	cancel context.CancelFunc
	done   chan struct{}
	result *client.TaskStatus
	err    error
}

// TaskID returns the watched task id
func (h *Handle) TaskID() string {
	return h.taskID
}

// Cancel stops polling and releases the timer. Safe to call more than once.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the watch has ended
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the watch ends or ctx is done
func (h *Handle) Wait(ctx context.Context) (*client.TaskStatus, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start begins polling taskID every interval until a terminal state, Cancel,
// or ctx cancellation.
func (p *Poller) Start(ctx context.Context, taskID string, check CheckFunc, opts ...WatchOption) *Handle {
	var o watchOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		taskID: taskID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx, h, check, o)
	return h
}

func (p *Poller) run(ctx context.Context, h *Handle, check CheckFunc, o watchOptions) {
	defer close(h.done)
	defer h.cancel()

	log := p.logger.With("task_id", h.taskID)
	log.Debug("Started task watch")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last client.TaskState
	failures := 0

	for {
		select {
		case <-ctx.Done():
			p.finish(h, o, nil, fmt.Errorf("%w: %s", ErrCanceled, h.taskID), "canceled")
			log.Debug("Task watch canceled")
			return
		case <-ticker.C:
		}

		status, err := check(ctx, h.taskID)
		if err != nil {
			if ctx.Err() != nil {
				p.finish(h, o, nil, fmt.Errorf("%w: %s", ErrCanceled, h.taskID), "canceled")
				return
			}
			failures++
			if !errors.Is(err, client.ErrRemote) || failures >= p.maxErrors {
				log.ErrorWithErr(err, "Task status check failed, giving up")
				p.finish(h, o, nil, fmt.Errorf("checking task %s: %w", h.taskID, err), "error")
				return
			}
			log.WarnWithErr(err, "Task status check failed, retrying")
			continue
		}
		failures = 0

		p.polled(status.Status)
		if status.Status != last {
			last = status.Status
			for _, fn := range o.onUpdate {
				fn(*status)
			}
		}

		switch status.Status {
		case client.TaskSuccess:
			p.finish(h, o, status, nil, "success")
			log.Info("Task completed")
			return
		case client.TaskFailure:
			msg := status.Error
			if msg == "" {
				msg = "no error message reported"
			}
			p.finish(h, o, status, fmt.Errorf("%w: %s: %s", ErrFailed, h.taskID, msg), "failure")
			log.Warn("Task failed")
			return
		case client.TaskPending, client.TaskStarted:
		default:
			log.With("status", string(status.Status)).Warn("Unknown task status, continuing to poll")
		}
	}
}

func (p *Poller) finish(h *Handle, o watchOptions, status *client.TaskStatus, err error, outcome string) {
	h.result = status
	h.err = err
	if p.recorder != nil {
		p.recorder.TaskFinished(outcome)
	}
	for _, fn := range o.onDone {
		fn(status, err)
	}
}

func (p *Poller) polled(state client.TaskState) {
	if p.recorder != nil {
		p.recorder.TaskPolled(string(state))
	}
}
