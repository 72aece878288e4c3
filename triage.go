package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/modules"
	"github.com/aretw0/triage/pkg/ports"
)

// Progress is the percent-complete view of a session.
type Progress = runtime.Progress

// Engine is the high-level entry point for the triage library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.ModuleLoader
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	halt    bool
	now     func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom ModuleLoader, bypassing directory loading.
func WithLoader(l ports.ModuleLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithHaltOnTopSeverity controls whether reaching the top severity on any
// question ends the session. When off, only critical-stop questions do.
// Default: on.
func WithHaltOnTopSeverity(halt bool) Option {
	return func(e *Engine) {
		e.halt = halt
	}
}

// WithClock overrides the time source stamped on lifecycle events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes an Engine.
// With an empty dir and no WithLoader option, it serves the built-in modules.
// Otherwise dir is read with LoadDir.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{halt: true}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if dir == "" {
			catalog, err := modules.Catalog()
			if err != nil {
				return nil, err
			}
			eng.loader = catalog
		} else {
			mods, err := LoadDir(context.Background(), dir)
			if err != nil {
				return nil, fmt.Errorf("failed to load modules from %s: %w", dir, err)
			}
			eng.loader = memory.NewLoader(mods...)
		}
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithHaltOnTopSeverity(eng.halt),
	}
	if eng.now != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithClock(eng.now))
	}
	eng.runtime = runtime.NewEngine(eng.loader, runtimeOpts...)
	return eng, nil
}

// StartModule resets s and positions it at the entry of moduleID. entry is
// a node id, a named entry, or empty for the module's default.
func (e *Engine) StartModule(ctx context.Context, s *domain.Session, moduleID, entry string) (*domain.Session, error) {
	return e.runtime.StartModule(ctx, s, moduleID, entry)
}

// AnswerQuestion records the answer to nodeID and updates the severity.
func (e *Engine) AnswerQuestion(ctx context.Context, s *domain.Session, nodeID string, answer domain.Value, risk domain.Severity) (*domain.Session, error) {
	return e.runtime.AnswerQuestion(ctx, s, nodeID, answer, risk)
}

// SetNextQuestion moves s to nodeID. An empty nodeID completes the session.
func (e *Engine) SetNextQuestion(ctx context.Context, s *domain.Session, nodeID string) (*domain.Session, error) {
	return e.runtime.SetNextQuestion(ctx, s, nodeID)
}

// SetPatientData merges data into the session's patient data.
func (e *Engine) SetPatientData(ctx context.Context, s *domain.Session, data domain.PatientData) *domain.Session {
	return e.runtime.SetPatientData(ctx, s, data)
}

// Reset returns the session to its initial state, keeping its id.
func (e *Engine) Reset(ctx context.Context, s *domain.Session) *domain.Session {
	return e.runtime.Reset(ctx, s)
}

// Submit answers the current question and advances to the next one.
func (e *Engine) Submit(ctx context.Context, s *domain.Session, answer domain.Value, risk domain.Severity) (*domain.Session, error) {
	return e.runtime.Submit(ctx, s, answer, risk)
}

// Current returns the node to render, if the session is in progress.
func (e *Engine) Current(ctx context.Context, s *domain.Session) (*domain.Node, bool) {
	return e.runtime.Current(ctx, s)
}

// Progress estimates how far s is through its module.
func (e *Engine) Progress(ctx context.Context, s *domain.Session) (Progress, error) {
	return e.runtime.Progress(ctx, s)
}

// Modules lists the available modules.
func (e *Engine) Modules(ctx context.Context) ([]domain.ModuleInfo, error) {
	return e.loader.ListModules(ctx)
}

// Module returns the compiled graph of a module.
func (e *Engine) Module(ctx context.Context, id string) (*domain.Module, error) {
	return e.loader.GetModule(ctx, id)
}

// Loader returns the underlying ModuleLoader used by the engine.
func (e *Engine) Loader() ports.ModuleLoader {
	return e.loader
}

// Runtime exposes the state machine for adapters that take a
// ports.TriageEngine.
func (e *Engine) Runtime() ports.TriageEngine {
	return e.runtime
}

// ResolveNext returns the next node id for n given the post-answer patient
// data, or "" when the flow ends.
func ResolveNext(n *domain.Node, snapshot domain.PatientData) string {
	return runtime.ResolveNext(n, snapshot)
}

// EstimateTotalSteps returns the longest path length from start.
func EstimateTotalSteps(m *domain.Module, start string) int {
	return runtime.EstimateTotalSteps(m, start)
}
