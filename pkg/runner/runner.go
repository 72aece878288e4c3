package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/session"
)

// ErrTooManyRetries is returned when the user keeps sending invalid answers.
var ErrTooManyRetries = errors.New("too many invalid answers")

// Runner drives a stored session through its questions using an IOHandler.
type Runner struct {
	Manager *session.Manager
	Handler IOHandler
	Logger  *slog.Logger

	// MaxRetries bounds consecutive invalid answers; zero is unlimited.
	MaxRetries int
}

// NewRunner creates a Runner reading stdin and writing stdout.
func NewRunner(manager *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		Manager: manager,
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run asks the questions of sessionID until the session is terminal and
// returns its final state. Typing "exit" or "quit", or closing the input,
// stops early without error; the session stays stored for a later resume.
func (r *Runner) Run(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := r.Manager.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	retries := 0
	for {
		view, err := Describe(ctx, r.Manager.Loader(), s)
		if err != nil {
			return s, fmt.Errorf("describe session: %w", err)
		}
		if err := r.Handler.Output(ctx, view); err != nil {
			return s, fmt.Errorf("output error: %w", err)
		}
		if view.Terminal {
			return s, nil
		}
		if view.Question == nil {
			return s, fmt.Errorf("session %s is %s with no question to ask", s.ID, s.Status)
		}

		reply, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				r.Logger.Debug("Runner stopped", "session_id", s.ID, "node_id", s.CurrentNodeID, "err", err)
				return s, nil
			}
			return s, fmt.Errorf("input error: %w", err)
		}
		if cmd := strings.ToLower(reply); cmd == "exit" || cmd == "quit" {
			return s, nil
		}

		answer, err := ParseAnswer(view.Question, reply)
		if err != nil {
			retries++
			if r.MaxRetries > 0 && retries >= r.MaxRetries {
				return s, fmt.Errorf("%w: %v", ErrTooManyRetries, err)
			}
			if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
				return s, err
			}
			continue
		}
		retries = 0

		_, next, err := r.Manager.Submit(ctx, s.ID, answer, domain.SeverityNone)
		if err != nil {
			return s, fmt.Errorf("submit answer: %w", err)
		}
		r.Logger.Debug("Answer submitted", "session_id", s.ID, "node_id", s.CurrentNodeID, "status", next.Status)
		s = next
	}
}
