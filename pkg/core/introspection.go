package core

import (
	"github.com/aretw0/introspection"
)

// BrokerState exposes the broker's fan-out state for observability.
type BrokerState struct {
	Keys     int `json:"keys"`
	Watchers int `json:"watchers"`
	Buffer   int `json:"buffer"`
}

// State implements introspection.Introspectable.
func (b *Broker) State() any {
	b.mu.Lock()
	defer b.mu.Unlock()

	watchers := 0
	for _, subs := range b.subs {
		watchers += len(subs)
	}
	return BrokerState{
		Keys:     len(b.subs),
		Watchers: watchers,
		Buffer:   b.buffer,
	}
}

// ComponentType implements introspection.Component.
func (b *Broker) ComponentType() string {
	return "broker"
}

var _ introspection.Introspectable = (*Broker)(nil)
var _ introspection.Component = (*Broker)(nil)
