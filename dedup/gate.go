// Package dedup implements the at-most-once gate in front of webhook processing.
//
// The gate delegates to a Store that performs one atomic "set if absent with TTL". Every
// process instance sharing the store sees the same answer, so only one caller ever
// observes a first sighting for a given event id.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
)

// DefaultTTL is how long a processed event id is remembered.
const DefaultTTL = 12 * time.Hour

// Store records keys atomically. SetIfAbsent returns true only for the caller that created
// the record; it returns false while an unexpired record already exists.
type Store interface {
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Policy decides what the gate reports when the store cannot be reached.
type Policy int

const (
	// FailClosed treats store errors as duplicates. No side effect runs twice, at the cost
	// of dropping events during an outage.
	FailClosed Policy = iota
	// FailOpen treats store errors as first sightings.
	FailOpen
)

// ParsePolicy maps "fail_closed"/"fail_open" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_closed", "closed":
		return FailClosed, nil
	case "fail_open", "open":
		return FailOpen, nil
	default:
		return FailClosed, fmt.Errorf("unknown dedup policy %q", s)
	}
}

func (p Policy) String() string {
	if p == FailOpen {
		return "fail_open"
	}
	return "fail_closed"
}

// Gate answers "have I seen this event before?".
type Gate struct {
	store  Store
	ttl    time.Duration
	policy Policy
	logger *logging.Logger
}

// NewGate builds a gate over store. A non-positive ttl falls back to DefaultTTL.
func NewGate(store Store, ttl time.Duration, policy Policy, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Gate{
		store:  store,
		ttl:    ttl,
		policy: policy,
		logger: logger.Component("dedup"),
	}
}

// SeenOrRecord returns true when eventID was already recorded and the caller must skip it.
// It returns false exactly once per event id and TTL window, after recording it.
func (g *Gate) SeenOrRecord(ctx context.Context, eventID string) bool {
	if eventID == "" {
		g.logger.Warn("event without id cannot be deduplicated, skipping")
		return true
	}

	recorded, err := g.store.SetIfAbsent(ctx, eventID, g.ttl)
	if err != nil {
		metrics.DedupStoreErrorCount.Add(1)
		seen := g.policy == FailClosed
		g.logger.Error("dedup store error",
			"error", err.Error(),
			"eventID", eventID,
			"policy", g.policy.String(),
			"treatedAsDuplicate", seen)
		return seen
	}

	if !recorded {
		metrics.DuplicateEventCount.Add(1)
		g.logger.Debug("duplicate event dropped", "eventID", eventID)
		return true
	}
	return false
}

// TTL returns the record lifetime used by the gate.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}
