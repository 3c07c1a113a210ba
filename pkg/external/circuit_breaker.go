package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// RequestObserver receives the outcome of every source call. The metrics
// collector implements it.
type RequestObserver interface {
	ObserveSourceRequest(source, operation, status string, duration time.Duration)
}

// Request outcome labels reported to the observer.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
)

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// CircuitBreakerConfigFrom adapts the circuit_breaker config section.
func CircuitBreakerConfigFrom(cfg domain.CircuitBreakerConfig) CircuitBreakerConfig {
	return CircuitBreakerConfig(cfg)
}

// ResilientSources wraps every backend source in its own circuit breaker.
// Backend 4xx answers count as successes for the breaker: the source is up,
// the request was wrong.
type ResilientSources struct {
	sources  Sources
	breakers map[string]*gobreaker.CircuitBreaker
	observer RequestObserver
	logger   *logrus.Logger
}

// NewResilientSources creates breakers for the four sources.
func NewResilientSources(next Sources, config CircuitBreakerConfig, observer RequestObserver, logger *logrus.Logger) *ResilientSources {
	r := &ResilientSources{
		breakers: make(map[string]*gobreaker.CircuitBreaker, 4),
		observer: observer,
		logger:   logger,
	}

	for _, name := range []string{SourceBrainTumor, SourceBreastCancer, SourceStroke, SourceStatistics} {
		r.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: config.MaxRequests,
			Interval:    config.Interval,
			Timeout:     config.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < config.MinRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= config.FailureRatio
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"circuit_breaker": name,
					"from_state":      from.String(),
					"to_state":        to.String(),
				}).Warn("Circuit breaker state changed")
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.IsClientError()
				}
				return errors.Is(err, context.Canceled)
			},
		})
	}

	r.sources = Sources{
		BrainTumor:   &resilientSource[domain.BrainTumorRecord]{r: r, name: SourceBrainTumor, next: next.BrainTumor},
		BreastCancer: &resilientSource[domain.BreastCancerRecord]{r: r, name: SourceBreastCancer, next: next.BreastCancer},
		Stroke:       &resilientSource[domain.StrokeRecord]{r: r, name: SourceStroke, next: next.Stroke},
		Statistics:   &resilientStatistics{r: r, next: next.Statistics},
	}
	return r
}

// Sources returns the breaker-protected sources.
func (r *ResilientSources) Sources() Sources {
	return r.sources
}

// States reports each breaker's state for health checks.
func (r *ResilientSources) States() map[string]string {
	states := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State().String()
	}
	return states
}

// Healthy reports whether no breaker is open.
func (r *ResilientSources) Healthy() bool {
	for _, cb := range r.breakers {
		if cb.State() == gobreaker.StateOpen {
			return false
		}
	}
	return true
}

// execute runs fn through the named breaker and reports the outcome.
func execute[T any](r *ResilientSources, source, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := r.breakers[source].Execute(func() (interface{}, error) {
		return fn()
	})

	status := StatusSuccess
	if err != nil {
		status = StatusError
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = StatusUnavailable
			err = domain.NewSourceFetchError(source, operation, fmt.Errorf("%w: %w", ErrSourceUnavailable, err))
		}
	}
	if r.observer != nil {
		r.observer.ObserveSourceRequest(source, operation, status, time.Since(start))
	}

	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"source":      source,
			"operation":   operation,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Debug("Source request failed")
		var zero T
		return zero, err
	}
	return result.(T), nil
}

type resilientSource[T any] struct {
	r    *ResilientSources
	name string
	next domain.Source[T]
}

func (s *resilientSource[T]) List(ctx context.Context, skip, limit int) (*domain.ListResponse[T], error) {
	return execute(s.r, s.name, "list", func() (*domain.ListResponse[T], error) {
		return s.next.List(ctx, skip, limit)
	})
}

func (s *resilientSource[T]) Get(ctx context.Context, id int64) (*T, error) {
	return execute(s.r, s.name, "get", func() (*T, error) {
		return s.next.Get(ctx, id)
	})
}

func (s *resilientSource[T]) Update(ctx context.Context, id int64, update domain.DiagnosisUpdate) (*T, error) {
	return execute(s.r, s.name, "update", func() (*T, error) {
		return s.next.Update(ctx, id, update)
	})
}

func (s *resilientSource[T]) Delete(ctx context.Context, id int64) (*domain.MessageResponse, error) {
	return execute(s.r, s.name, "delete", func() (*domain.MessageResponse, error) {
		return s.next.Delete(ctx, id)
	})
}

func (s *resilientSource[T]) Diagnose(ctx context.Context, upload domain.Upload) (*T, error) {
	return execute(s.r, s.name, "diagnose", func() (*T, error) {
		return s.next.Diagnose(ctx, upload)
	})
}

type resilientStatistics struct {
	r    *ResilientSources
	next domain.StatisticsSource
}

func (s *resilientStatistics) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	return execute(s.r, SourceStatistics, "dashboard", func() (*domain.DashboardStats, error) {
		return s.next.Dashboard(ctx)
	})
}

func (s *resilientStatistics) RecentActivity(ctx context.Context, limit int) ([]domain.RecentActivity, error) {
	return execute(s.r, SourceStatistics, "recent_activity", func() ([]domain.RecentActivity, error) {
		return s.next.RecentActivity(ctx, limit)
	})
}

func (s *resilientStatistics) TumorDistribution(ctx context.Context) ([]domain.TumorTypeDistribution, error) {
	return execute(s.r, SourceStatistics, "tumor_distribution", func() ([]domain.TumorTypeDistribution, error) {
		return s.next.TumorDistribution(ctx)
	})
}

func (s *resilientStatistics) WeeklyAnalytics(ctx context.Context) ([]domain.WeeklyAnalytics, error) {
	return execute(s.r, SourceStatistics, "weekly_analytics", func() ([]domain.WeeklyAnalytics, error) {
		return s.next.WeeklyAnalytics(ctx)
	})
}

func (s *resilientStatistics) MonthlyTrends(ctx context.Context, months int) ([]domain.MonthlyTrends, error) {
	return execute(s.r, SourceStatistics, "monthly_trends", func() ([]domain.MonthlyTrends, error) {
		return s.next.MonthlyTrends(ctx, months)
	})
}
