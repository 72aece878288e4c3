package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// Engine is the core state machine runner. It holds no session state.
type Engine struct {
	loader    ports.ModuleLoader
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	haltOnTop bool
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. A nil logger keeps the default no-op logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithHaltOnTopSeverity controls whether any answer that takes the session to
// the top severity ends the flow (the default), or only answers on nodes
// flagged criticalStop.
func WithHaltOnTopSeverity(halt bool) EngineOption {
	return func(e *Engine) {
		e.haltOnTop = halt
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine reading graphs from loader.
func NewEngine(loader ports.ModuleLoader, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:    loader,
		logger:    logging.NewNop(),
		haltOnTop: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Loader returns the module source.
func (e *Engine) Loader() ports.ModuleLoader {
	return e.loader
}

// module loads the active graph. A missing module yields (nil, nil) so callers
// degrade to end of flow; any other loader failure is returned.
func (e *Engine) module(ctx context.Context, id string) (*domain.Module, error) {
	if id == "" {
		return nil, nil
	}
	m, err := e.loader.GetModule(ctx, id)
	if errors.Is(err, domain.ErrModuleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load module %s: %w", id, err)
	}
	return m, nil
}

func (e *Engine) base(s *domain.Session, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: s.ID,
		ModuleID:  s.ModuleID,
	}
}

func (e *Engine) sessionEvent(s *domain.Session, t domain.EventType) *domain.SessionEvent {
	return &domain.SessionEvent{
		EventBase: e.base(s, t),
		NodeID:    s.CurrentNodeID,
		Severity:  s.MaxSeverity,
		Status:    s.Status,
		Steps:     len(s.History),
	}
}

func (e *Engine) emitStart(ctx context.Context, s *domain.Session) {
	e.logger.Debug("session started", "session_id", s.ID, "module_id", s.ModuleID, "node_id", s.CurrentNodeID)
	if e.hooks.OnSessionStart != nil {
		e.hooks.OnSessionStart(ctx, e.sessionEvent(s, domain.EventSessionStart))
	}
}

func (e *Engine) emitAnswer(ctx context.Context, s *domain.Session, nodeID string, answer domain.Value, contributed domain.Severity) {
	e.logger.Debug("answer recorded",
		"session_id", s.ID, "node_id", nodeID, "contributed", contributed, "severity", s.MaxSeverity)
	if e.hooks.OnAnswer != nil {
		e.hooks.OnAnswer(ctx, &domain.AnswerEvent{
			EventBase:   e.base(s, domain.EventAnswer),
			NodeID:      nodeID,
			Answer:      answer,
			Contributed: contributed,
			Severity:    s.MaxSeverity,
		})
	}
}

func (e *Engine) emitCriticalStop(ctx context.Context, s *domain.Session) {
	e.logger.Info("critical stop", "session_id", s.ID, "module_id", s.ModuleID, "node_id", s.CurrentNodeID)
	if e.hooks.OnCriticalStop != nil {
		e.hooks.OnCriticalStop(ctx, e.sessionEvent(s, domain.EventCriticalStop))
	}
}

func (e *Engine) emitComplete(ctx context.Context, s *domain.Session) {
	e.logger.Debug("session complete", "session_id", s.ID, "module_id", s.ModuleID, "severity", s.MaxSeverity)
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(ctx, e.sessionEvent(s, domain.EventComplete))
	}
}

// configError reports a malformed graph met at traversal time. It never fails the transition.
func (e *Engine) configError(ctx context.Context, s *domain.Session, nodeID, reason string) {
	e.logger.Warn("module configuration error",
		"session_id", s.ID, "module_id", s.ModuleID, "node_id", nodeID, "reason", reason)
	if e.hooks.OnConfigError != nil {
		e.hooks.OnConfigError(ctx, &domain.ConfigErrorEvent{
			EventBase: e.base(s, domain.EventConfigError),
			NodeID:    nodeID,
			Reason:    reason,
		})
	}
}
