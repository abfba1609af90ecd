package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the notification runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers deliver notifications
	WorkerCount int

	// MaxAttempts is the delivery retry budget per notification
	MaxAttempts int

	// AttemptTimeout is the hard execution timeout for a single delivery
	// attempt; an attempt exceeding it counts against the retry budget
	AttemptTimeout time.Duration

	// RetryBackoff is the fixed delay between delivery attempts
	RetryBackoff time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with the standard delivery
// policy: three attempts, sixty seconds each, five seconds apart.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:    2,
		MaxAttempts:    3,
		AttemptTimeout: 60 * time.Second,
		RetryBackoff:   5 * time.Second,
	}
}

// Runner manages the worker pool that drains the notification queue and
// applies the retry policy. Permanent failures are logged with full context
// and surfaced through the optional error handler; they never propagate to
// the scanner.
type Runner struct {
	queue      QueueReader
	config     RunnerConfig
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	errHandler func(n Notification, err error)
}

// NewRunner creates a new Runner consuming the given queue.
func NewRunner(queue QueueReader, config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"default_count", 1)
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = 60 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      queue,
		config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "notify_runner")),
	}
}

// SetErrorHandler allows setting a custom handler invoked on permanent
// delivery failure (after the retry budget is exhausted).
func (r *Runner) SetErrorHandler(handler func(n Notification, err error)) {
	r.errHandler = handler
}

// Start launches the worker goroutines.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop cancels in-flight deliveries and waits for all workers to exit.
// The queue should be closed by its producer before calling Stop if
// buffered notifications are expected to drain first.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// Wait blocks until all workers have exited, which happens once the queue
// is closed and drained. Useful for one-shot batch invocations.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// worker consumes notifications from the queue until it is closed or the
// runner is stopped.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case n, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Debug("notification channel closed, stopping worker", "worker_id", id)
				return
			}
			r.deliver(n, id)
		}
	}
}

// deliver runs the retry loop for a single notification.
func (r *Runner) deliver(n Notification, workerID int) {
	logger := r.logger.With(
		"notification_id", n.ID(),
		"kind", n.Kind(),
		"task_id", n.TaskID(),
		"recipient", n.Recipient().String(),
		"worker_id", workerID,
	)

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(r.ctx, r.config.AttemptTimeout)
		err := n.Deliver(attemptCtx)
		cancel()

		if err == nil {
			logger.Info("notification delivered", "attempts", attempt)
			return
		}

		if errors.Is(err, ErrDispatchSkipped) {
			// The notification is moot; do not burn retries on it.
			logger.Warn("notification skipped", "reason", err.Error())
			return
		}

		lastErr = err
		logger.Error("notification delivery attempt failed",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"error", err)

		if attempt < r.config.MaxAttempts && r.config.RetryBackoff > 0 {
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(r.config.RetryBackoff):
			}
		}
	}

	logger.Error("notification permanently failed",
		"attempts", r.config.MaxAttempts,
		"error", lastErr)

	if r.errHandler != nil {
		r.errHandler(n, lastErr)
	}
}
