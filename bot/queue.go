package bot

import (
	"context"
	"sync"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"golang.org/x/sync/errgroup"
)

// Consumer processes one event.
type Consumer interface {
	Handle(ctx context.Context, event types.InboundEvent)
}

// Queue buffers webhook events and hands them to a fixed number of workers.
type Queue struct {
	consumer Consumer
	events   chan types.InboundEvent
	workers  int
	logger   *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue creates a queue holding up to size events.
func NewQueue(consumer Consumer, size, workers int, logger *logging.Logger) *Queue {
	if logger == nil {
		logger = logging.Default()
	}
	if size <= 0 {
		size = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		consumer: consumer,
		events:   make(chan types.InboundEvent, size),
		workers:  workers,
		logger:   logger.Component("queue"),
	}
}

// Publish enqueues event without blocking. It returns false when the queue is full.
func (q *Queue) Publish(event types.InboundEvent) bool {
	select {
	case q.events <- event:
		return true
	default:
		metrics.QueueDroppedCount.Add(1)
		q.logger.Warn("event queue full, dropping event", "eventID", event.ID)
		return false
	}
}

// Start launches the workers. After Stop, running handlers and events still buffered are
// processed to completion. Publishers must be stopped before Stop.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})
	handlerCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(q.done)
		q.logger.Info("event queue started", "workers", q.workers)

		var g errgroup.Group
		g.SetLimit(q.workers)
		for {
			select {
			case <-loopCtx.Done():
				// queued events were already acknowledged to the platform, so they are run
				// rather than dropped
				drained := q.drain(handlerCtx, &g)
				_ = g.Wait()
				q.logger.Info("event queue shutting down", "drained", drained)
				return
			case event := <-q.events:
				g.Go(func() error {
					q.consumer.Handle(handlerCtx, event)
					return nil
				})
			}
		}
	}()
}

func (q *Queue) drain(ctx context.Context, g *errgroup.Group) int {
	n := 0
	for {
		select {
		case event := <-q.events:
			n++
			g.Go(func() error {
				q.consumer.Handle(ctx, event)
				return nil
			})
		default:
			return n
		}
	}
}

// Stop stops taking events and waits until running and buffered events are handled.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel, done := q.cancel, q.done
	q.cancel = nil
	q.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Len returns the number of events waiting for a worker.
func (q *Queue) Len() int {
	return len(q.events)
}
