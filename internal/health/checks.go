package health

import (
	"context"
)

// PingCheck reports a dependency reachable through a ping function. A failing
// required dependency makes the service unhealthy; an optional one only
// degrades it.
type PingCheck struct {
	name     string
	ping     func(ctx context.Context) error
	required bool
}

func NewPingCheck(name string, required bool, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping, required: required}
}

func (p *PingCheck) Name() string { return p.name }

func (p *PingCheck) Check(ctx context.Context) ComponentHealth {
	if err := p.ping(ctx); err != nil {
		state := StateDegraded
		if p.required {
			state = StateUnhealthy
		}
		return ComponentHealth{Status: state, Message: "ping failed", Error: err.Error()}
	}
	return ComponentHealth{Status: StateHealthy, Message: "reachable"}
}

// BreakerStates reports per-source circuit breaker states.
type BreakerStates interface {
	States() map[string]string
	Healthy() bool
}

// BreakerCheck reports degraded while any source breaker is open.
type BreakerCheck struct {
	breakers BreakerStates
}

func NewBreakerCheck(breakers BreakerStates) *BreakerCheck {
	return &BreakerCheck{breakers: breakers}
}

func (b *BreakerCheck) Name() string { return "diagnosis_sources" }

func (b *BreakerCheck) Check(context.Context) ComponentHealth {
	metadata := make(map[string]any)
	for name, state := range b.breakers.States() {
		metadata[name] = state
	}
	if !b.breakers.Healthy() {
		return ComponentHealth{Status: StateDegraded, Message: "one or more circuit breakers open", Metadata: metadata}
	}
	return ComponentHealth{Status: StateHealthy, Message: "all circuit breakers closed", Metadata: metadata}
}
