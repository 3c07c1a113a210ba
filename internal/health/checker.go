// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

// rank orders states from best to worst.
func (s State) rank() int {
	switch s {
	case StateHealthy:
		return 0
	case StateDegraded:
		return 1
	default:
		return 2
	}
}

// ComponentHealth is the result of one check.
type ComponentHealth struct {
	Name     string         `json:"name"`
	Status   State          `json:"status"`
	Message  string         `json:"message"`
	Duration time.Duration  `json:"duration_ns"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Status is the aggregated report.
type Status struct {
	Overall    State                      `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Check tests one component. Implementations must honour ctx.
type Check interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// Checker runs every registered check on demand.
type Checker struct {
	checks    []Check
	timeout   time.Duration
	version   string
	startedAt time.Time
	logger    *logrus.Logger
}

// NewChecker creates a checker. timeout bounds each individual check.
func NewChecker(version string, timeout time.Duration, logger *logrus.Logger, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		checks:    checks,
		timeout:   timeout,
		version:   version,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Status runs all checks concurrently. The overall state is the worst
// component state.
func (c *Checker) Status(ctx context.Context) Status {
	results := make([]ComponentHealth, len(c.checks))

	var wg sync.WaitGroup
	for i, check := range c.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			result := check.Check(checkCtx)
			result.Name = check.Name()
			result.Duration = time.Since(start)
			results[i] = result
		}()
	}
	wg.Wait()

	status := Status{
		Overall:    StateHealthy,
		Timestamp:  time.Now().UTC(),
		Version:    c.version,
		Uptime:     time.Since(c.startedAt).Round(time.Second).String(),
		Components: make(map[string]ComponentHealth, len(results)),
	}
	for _, r := range results {
		status.Components[r.Name] = r
		if r.Status.rank() > status.Overall.rank() {
			status.Overall = r.Status
		}
		if r.Status != StateHealthy {
			c.logger.WithFields(logrus.Fields{
				"component": r.Name,
				"status":    r.Status,
				"error":     r.Error,
			}).Warn("Health check not healthy")
		}
	}
	return status
}
