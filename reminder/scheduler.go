// Package reminder runs one-shot reminders at absolute instants.
//
// Pending reminders live in a min-heap ordered by fire time. A single goroutine owns one
// timer armed for the earliest entry; when it fires, every due entry is popped under the
// lock and handed to the delivery callback on its own goroutine. Reminders are held in
// memory only, so a restart loses whatever was still pending.
package reminder

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/google/uuid"
)

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("reminder scheduler already started")

// Handle identifies a scheduled reminder for Cancel.
type Handle uuid.UUID

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// DeliverFunc is called once per reminder when its instant arrives.
type DeliverFunc func(ctx context.Context, req types.ReminderRequest)

type entry struct {
	handle Handle
	req    types.ReminderRequest
	seq    uint64
	index  int
}

// entryHeap orders entries by fire time, then by insertion order.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].req.FireAt.Equal(h[j].req.FireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].req.FireAt.Before(h[j].req.FireAt)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler fires reminders at their instants.
type Scheduler struct {
	mu      sync.Mutex
	queue   entryHeap
	byID    map[Handle]*entry
	seq     uint64
	running bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	wake       chan struct{}
	deliveries sync.WaitGroup

	deliver DeliverFunc
	now     func() time.Time
	logger  *logging.Logger
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock used to decide whether an instant is in the past.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler returns a stopped scheduler that hands due reminders to deliver.
func NewScheduler(deliver DeliverFunc, logger *logging.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{
		byID:    make(map[Handle]*entry),
		wake:    make(chan struct{}, 1),
		deliver: deliver,
		now:     time.Now,
		logger:  logger.Component("reminder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleOnce arms req to fire at req.FireAt. An instant that is not strictly in the future
// yields OutcomeTooLate and nothing is armed. After Stop nothing can fire any more, so every
// request yields OutcomeTooLate until the scheduler is started again.
func (s *Scheduler) ScheduleOnce(req types.ReminderRequest) (types.Outcome, Handle) {
	delay := req.FireAt.Sub(s.now())
	if delay <= 0 {
		metrics.RemindersScheduled.WithLabelValues(types.OutcomeTooLate.String()).Inc()
		s.logger.Debug("reminder instant already passed", "sender", req.Sender, "fireAt", req.FireAt)
		return types.OutcomeTooLate, Handle{}
	}

	e := &entry{handle: Handle(uuid.New()), req: req}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		metrics.RemindersScheduled.WithLabelValues(types.OutcomeTooLate.String()).Inc()
		s.logger.Warn("reminder rejected, scheduler is stopped", "sender", req.Sender, "fireAt", req.FireAt)
		return types.OutcomeTooLate, Handle{}
	}
	s.seq++
	e.seq = s.seq
	heap.Push(&s.queue, e)
	s.byID[e.handle] = e
	pending := len(s.queue)
	s.mu.Unlock()

	metrics.RemindersScheduled.WithLabelValues(types.OutcomeScheduled.String()).Inc()
	metrics.RemindersPending.Set(float64(pending))
	s.logger.Info("reminder scheduled", "sender", req.Sender, "fireAt", req.FireAt, "delay", delay.String(), "handle", e.handle.String())
	s.poke()
	return types.OutcomeScheduled, e.handle
}

// Cancel removes a pending reminder. It reports false when h already fired or was never armed.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	e, ok := s.byID[h]
	if ok {
		heap.Remove(&s.queue, e.index)
		delete(s.byID, h)
	}
	pending := len(s.queue)
	s.mu.Unlock()

	if ok {
		metrics.RemindersPending.Set(float64(pending))
		s.poke()
	}
	return ok
}

// Pending returns how many reminders are armed and not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Start launches the timer goroutine. Reminders scheduled before Start fire once it runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.stopped = false
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, context.WithoutCancel(ctx))

	s.logger.Info("reminder scheduler started", "pending", len(s.queue))
	return nil
}

// Stop halts the timer goroutine, waits for in-flight deliveries and drops whatever is still
// pending.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.deliveries.Wait()

	s.mu.Lock()
	dropped := len(s.queue)
	s.queue = nil
	s.byID = make(map[Handle]*entry)
	s.mu.Unlock()

	metrics.RemindersPending.Set(0)
	if dropped > 0 {
		s.logger.Warn("reminder scheduler stopped with pending reminders, they will not fire", "dropped", dropped)
		return
	}
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx, deliverCtx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		s.mu.Lock()
		now := s.now()
		var due []*entry
		for len(s.queue) > 0 && !s.queue[0].req.FireAt.After(now) {
			e := heap.Pop(&s.queue).(*entry)
			delete(s.byID, e.handle)
			due = append(due, e)
		}
		var wait time.Duration
		armed := len(s.queue) > 0
		if armed {
			wait = s.queue[0].req.FireAt.Sub(now)
		}
		pending := len(s.queue)
		s.mu.Unlock()

		if len(due) > 0 {
			metrics.RemindersPending.Set(float64(pending))
		}
		for _, e := range due {
			s.fire(deliverCtx, e)
		}

		var tick <-chan time.Time
		if armed {
			timer.Reset(wait)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			timer.Stop()
		case <-tick:
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, e *entry) {
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic delivering reminder", "panic", r, "handle", e.handle.String())
			}
		}()

		s.logger.Debug("delivering reminder", "sender", e.req.Sender, "handle", e.handle.String())
		s.deliver(ctx, e.req)
		metrics.RemindersFired.Add(1)
	}()
}
