package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec runs the expired-event cleanup once an hour.
const DefaultSweepSpec = "@every 1h"

// EventPurger deletes dedup rows past their ttl.
type EventPurger interface {
	DeleteExpiredEvents(ctx context.Context) (int64, error)
}

// Sweeper periodically purges expired dedup rows so processed_events stays small.
type Sweeper struct {
	cron    *cron.Cron
	purger  EventPurger
	logger  *logging.Logger
	timeout time.Duration
}

// NewSweeper registers the purge job on spec (a cron expression or descriptor).
func NewSweeper(purger EventPurger, spec string, logger *logging.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if spec == "" {
		spec = DefaultSweepSpec
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Sweeper{
		cron:    cron.New(cron.WithParser(parser)),
		purger:  purger,
		logger:  logger.Component("sweeper"),
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("error scheduling sweep %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce deletes expired rows now.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.DeleteExpiredEvents(ctx)
	if err != nil {
		s.logger.Error("error sweeping expired events", "error", err.Error())
		return
	}
	s.logger.Debug("swept expired events", "deleted", n)
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
