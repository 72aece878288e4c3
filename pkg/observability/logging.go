package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/triage/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per
// event. Answers are logged at debug level and never include the answer
// value, which may carry patient data.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = slog.Default()
	}
	session := func(msg string, level slog.Level) func(context.Context, *domain.SessionEvent) {
		return func(ctx context.Context, e *domain.SessionEvent) {
			logger.Log(ctx, level, msg,
				"session_id", e.SessionID,
				"module_id", e.ModuleID,
				"node_id", e.NodeID,
				"severity", e.Severity.String(),
				"steps", e.Steps,
			)
		}
	}
	return domain.LifecycleHooks{
		OnSessionStart: session("session_start", slog.LevelInfo),
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer",
				"session_id", e.SessionID,
				"module_id", e.ModuleID,
				"node_id", e.NodeID,
				"contributed", e.Contributed.String(),
				"severity", e.Severity.String(),
			)
		},
		OnCriticalStop: session("critical_stop", slog.LevelWarn),
		OnComplete:     session("session_complete", slog.LevelInfo),
		OnConfigError: func(ctx context.Context, e *domain.ConfigErrorEvent) {
			logger.ErrorContext(ctx, "config_error",
				"session_id", e.SessionID,
				"module_id", e.ModuleID,
				"node_id", e.NodeID,
				"reason", e.Reason,
			)
		},
	}
}
