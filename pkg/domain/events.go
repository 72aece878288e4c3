package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventAnswer       EventType = "answer"
	EventCriticalStop EventType = "critical_stop"
	EventComplete     EventType = "complete"
	EventConfigError  EventType = "config_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	ModuleID  string    `json:"module_id"`
}

// SessionEvent reports a status change of a session.
type SessionEvent struct {
	EventBase
	NodeID   string   `json:"node_id,omitempty"`
	Severity Severity `json:"severity"`
	Status   Status   `json:"status"`
	Steps    int      `json:"steps"`
}

// AnswerEvent reports a recorded answer.
type AnswerEvent struct {
	EventBase
	NodeID      string   `json:"node_id"`
	Answer      Value    `json:"answer"`
	Contributed Severity `json:"contributed"`
	Severity    Severity `json:"severity"`
}

// ConfigErrorEvent reports a malformed graph met at traversal time.
type ConfigErrorEvent struct {
	EventBase
	NodeID string `json:"node_id,omitempty"`
	Reason string `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *SessionEvent)
	OnAnswer       func(context.Context, *AnswerEvent)
	OnCriticalStop func(context.Context, *SessionEvent)
	OnComplete     func(context.Context, *SessionEvent)
	OnConfigError  func(context.Context, *ConfigErrorEvent)
}

// Chain returns hooks that call h and then next for every event.
func (h LifecycleHooks) Chain(next LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart: chain(h.OnSessionStart, next.OnSessionStart),
		OnAnswer:       chain(h.OnAnswer, next.OnAnswer),
		OnCriticalStop: chain(h.OnCriticalStop, next.OnCriticalStop),
		OnComplete:     chain(h.OnComplete, next.OnComplete),
		OnConfigError:  chain(h.OnConfigError, next.OnConfigError),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
