// Package memory provides in-memory implementations of outbound ports for
// testing and local runs without external infrastructure.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// Compile-time check that EvaluationSink implements outbound.EvaluationSink
var _ outbound.EvaluationSink = (*EvaluationSink)(nil)

// EvaluationSink collects published events in memory.
type EvaluationSink struct {
	mu     sync.Mutex
	events []outbound.EvaluationEvent
	closed bool
}

// NewEvaluationSink creates a new in-memory evaluation sink.
func NewEvaluationSink() *EvaluationSink {
	return &EvaluationSink{}
}

// Publish records the event.
func (s *EvaluationSink) Publish(ctx context.Context, event outbound.EvaluationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("evaluation sink is closed")
	}
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (s *EvaluationSink) Events() []outbound.EvaluationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]outbound.EvaluationEvent, len(s.events))
	copy(events, s.events)
	return events
}

// Close marks the sink as closed.
func (s *EvaluationSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
