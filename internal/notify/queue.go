package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// Queue implements a buffered notification queue that satisfies both
// QueueReader and QueueWriter interfaces
type Queue struct {
	notifications chan Notification
	logger        *slog.Logger
	mu            sync.Mutex
	closed        bool
}

// NewQueue creates a new notification queue with the specified buffer size
func NewQueue(size int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		notifications: make(chan Notification, size),
		logger:        logger,
	}
}

// Enqueue adds a notification to the queue for delivery
// Returns an error if the queue is full or closed
func (q *Queue) Enqueue(n Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.notifications <- n:
		q.logger.Debug("notification enqueued",
			"notification_id", n.ID(),
			"kind", n.Kind(),
			"task_id", n.TaskID(),
			"queue_len", len(q.notifications),
			"queue_cap", cap(q.notifications))
		return nil
	default:
		// Channel is full
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.notifications))
	}
}

// Close closes the queue, preventing further submission
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.notifications)
		q.logger.Info("notification queue closed")
	}
}

// GetChannel returns a read-only channel for consuming notifications
func (q *Queue) GetChannel() <-chan Notification {
	return q.notifications
}
