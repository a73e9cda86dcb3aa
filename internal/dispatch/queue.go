package dispatch

import (
	"context"
	"sync/atomic"

	"main/internal/model"
	"main/pkg/exception"
)

// Queue is the bounded, non-blocking hand-off between signal
// ingestion and the dispatch pipeline. Ingestion enqueues and returns
// immediately; a consumer drains it.
type Queue struct {
	ch     chan model.Signal
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan model.Signal, capacity)}
}

// TryPublish enqueues a signal without blocking.
func (q *Queue) TryPublish(sig model.Signal) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return exception.ErrSignalQueueClosed
	}
	select {
	case q.ch <- sig:
		return nil
	default:
		return exception.ErrSignalQueueFull
	}
}

// Close stops the queue from accepting new signals.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes signals until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(model.Signal)) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-q.ch:
			if !ok {
				return
			}
			handler(sig)
		}
	}
}
