package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted while a run progresses.
type EventType string

const (
	EventRunStarted    EventType = "run.started"
	EventRunCompleted  EventType = "run.completed"
	EventRunFailed     EventType = "run.failed"
	EventStageStarted  EventType = "stage.started"
	EventStageComplete EventType = "stage.completed"
	EventStageFailed   EventType = "stage.failed"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type      EventType
	RunID     string
	Task      TaskName
	Agent     AgentRole
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// EventEmitterFunc adapts a function to EventEmitter.
type EventEmitterFunc func(ctx context.Context, event Event)

// Emit implements EventEmitter.
func (f EventEmitterFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NewEvent builds an event stamped with the current time and the run id in ctx.
func NewEvent(ctx context.Context, eventType EventType, task TaskName, agent AgentRole, payload map[string]any) Event {
	runID, _ := RunID(ctx)
	return Event{
		Type:      eventType,
		RunID:     runID,
		Task:      task,
		Agent:     agent,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
