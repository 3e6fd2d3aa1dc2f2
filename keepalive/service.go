// Package keepalive polls the bot and its upstreams and alerts an operator when they go down.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"golang.org/x/sync/errgroup"
)

// FailureThreshold is the number of failed checks before the first alert.
const FailureThreshold = 3

// Target is one endpoint to poll.
type Target struct {
	Name      string
	HealthURL string
}

// Alerter delivers operator alerts.
type Alerter interface {
	SendAlert(ctx context.Context, target string, message string) error
}

type targetState struct {
	mu                  sync.Mutex
	target              Target
	lastCheck           time.Time
	lastAlert           time.Time
	consecutiveFailures int
	healthy             bool
}

// Status is a copy of a target's state.
type Status struct {
	Name                string
	HealthURL           string
	LastCheck           time.Time
	LastAlert           time.Time
	ConsecutiveFailures int
	Healthy             bool
}

// Monitor checks every target on an interval. A target is alerted on after
// FailureThreshold failed checks, then at most once per alertInterval until it recovers.
type Monitor struct {
	targets       []*targetState
	checkInterval time.Duration
	alertInterval time.Duration
	retryDelays   []time.Duration
	httpClient    *http.Client
	alerter       Alerter
	alerts        sync.WaitGroup
	logger        *logging.Logger
}

// NewMonitor builds a monitor for targets.
func NewMonitor(targets []Target, checkInterval, alertInterval time.Duration, alerter Alerter, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.Default()
	}
	m := &Monitor{
		checkInterval: checkInterval,
		alertInterval: alertInterval,
		// exponential backoff between attempts of one check
		retryDelays: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		alerter:     alerter,
		logger:      logger.Component("keepalive"),
	}
	for _, t := range targets {
		m.targets = append(m.targets, &targetState{target: t, healthy: true})
	}
	return m
}

// Start checks immediately and then on every tick until ctx ends.
func (m *Monitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	m.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("keepalive monitor shutting down")
			m.alerts.Wait()
			return ctx.Err()
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll checks every target in parallel.
func (m *Monitor) CheckAll(ctx context.Context) {
	var eg errgroup.Group
	for _, state := range m.targets {
		state := state
		eg.Go(func() error {
			m.check(ctx, state)
			return nil
		})
	}
	_ = eg.Wait()
}

func (m *Monitor) check(ctx context.Context, state *targetState) {
	healthy := m.checkHealth(ctx, state.target.HealthURL)

	state.mu.Lock()
	defer state.mu.Unlock()
	state.lastCheck = time.Now()
	name := state.target.Name

	if healthy {
		if !state.healthy {
			m.logger.Info("target recovered", "target", name, "after_failures", state.consecutiveFailures)
			m.alert(ctx, name, fmt.Sprintf("%s has recovered after %d failed checks", name, state.consecutiveFailures))
		}
		state.healthy = true
		state.consecutiveFailures = 0
		return
	}

	state.healthy = false
	state.consecutiveFailures++
	m.logger.Warn("health check failed", "target", name, "consecutive_failures", state.consecutiveFailures, "url", state.target.HealthURL)

	switch {
	case state.consecutiveFailures == FailureThreshold:
		m.alert(ctx, name, fmt.Sprintf("%s is offline after %d failed health checks", name, FailureThreshold))
		state.lastAlert = time.Now()
	case state.consecutiveFailures > FailureThreshold && time.Since(state.lastAlert) >= m.alertInterval:
		m.alert(ctx, name, fmt.Sprintf("%s is still offline (consecutive failures: %d)", name, state.consecutiveFailures))
		state.lastAlert = time.Now()
	}
}

// alert sends in the background so a slow alerter never delays the next check.
func (m *Monitor) alert(ctx context.Context, target, message string) {
	m.alerts.Add(1)
	go func() {
		defer m.alerts.Done()
		if err := m.alerter.SendAlert(context.WithoutCancel(ctx), target, message); err != nil {
			m.logger.Error("failed to send alert", "error", err.Error(), "target", target)
		}
	}()
}

// checkHealth returns true as soon as one attempt answers 200.
func (m *Monitor) checkHealth(ctx context.Context, url string) bool {
	for attempt, delay := range m.retryDelays {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			m.logger.Error("failed to create health check request", "error", err.Error(), "url", url)
			return false
		}

		resp, err := m.httpClient.Do(req)
		if err != nil {
			m.logger.Debug("health check request failed", "error", err.Error(), "url", url, "attempt", attempt+1)
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return true
		}
		m.logger.Debug("health check returned non-OK status", "status", resp.StatusCode, "url", url, "attempt", attempt+1)
	}
	return false
}

// Statuses returns the current state of every target keyed by name.
func (m *Monitor) Statuses() map[string]Status {
	out := make(map[string]Status, len(m.targets))
	for _, state := range m.targets {
		state.mu.Lock()
		out[state.target.Name] = Status{
			Name:                state.target.Name,
			HealthURL:           state.target.HealthURL,
			LastCheck:           state.lastCheck,
			LastAlert:           state.lastAlert,
			ConsecutiveFailures: state.consecutiveFailures,
			Healthy:             state.healthy,
		}
		state.mu.Unlock()
	}
	return out
}

// Wait blocks until every alert sent so far has finished.
func (m *Monitor) Wait() {
	m.alerts.Wait()
}
