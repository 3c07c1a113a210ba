package health

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBreakers struct {
	states  map[string]string
	healthy bool
}

func (f fakeBreakers) States() map[string]string { return f.states }
func (f fakeBreakers) Healthy() bool { return f.healthy }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestChecker_Status(t *testing.T) {
	closed := fakeBreakers{states: map[string]string{"stroke": "closed"}, healthy: true}
	open := fakeBreakers{states: map[string]string{"stroke": "open"}, healthy: false}

	tests := []struct {
		name   string
		checks []Check
		want   State
	}{
		{"no checks", nil, StateHealthy},
		{"all healthy", []Check{NewBreakerCheck(closed), NewPingCheck("redis", false, ok), NewPingCheck("preferences", true, ok)}, StateHealthy},
		{"optional dependency down", []Check{NewPingCheck("redis", false, failing), NewPingCheck("preferences", true, ok)}, StateDegraded},
		{"breaker open", []Check{NewBreakerCheck(open), NewPingCheck("preferences", true, ok)}, StateDegraded},
		{"required dependency down", []Check{NewBreakerCheck(open), NewPingCheck("preferences", true, failing)}, StateUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewChecker("1.0.0", time.Second, testLogger(), tt.checks...).Status(context.Background())
			assert.Equal(t, tt.want, status.Overall)
			assert.Len(t, status.Components, len(tt.checks))
			assert.Equal(t, "1.0.0", status.Version)
		})
	}
}

func TestChecker_ReportsComponentDetails(t *testing.T) {
	breakers := fakeBreakers{states: map[string]string{"stroke": "open", "brain_tumor": "closed"}}
	status := NewChecker("dev", time.Second, testLogger(),
		NewBreakerCheck(breakers),
		NewPingCheck("redis", false, failing),
	).Status(context.Background())

	src, found := status.Components["diagnosis_sources"]
	require.True(t, found)
	assert.Equal(t, "open", src.Metadata["stroke"])

	redis := status.Components["redis"]
	assert.Equal(t, StateDegraded, redis.Status)
	assert.Equal(t, "connection refused", redis.Error)
}

func TestChecker_TimeoutBoundsEachCheck(t *testing.T) {
	slow := NewPingCheck("slow", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	status := NewChecker("dev", 20*time.Millisecond, testLogger(), slow).Status(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateUnhealthy, status.Overall)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Components["slow"].Error)
}
