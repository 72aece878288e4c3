package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/triage/internal/presentation/tui"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	tea "github.com/charmbracelet/bubbletea"
)

// Mode selects how questions are asked.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
	ModeTUI  Mode = "tui"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ModuleID    string
	Entry       string
	SessionID   string
	PatientData string // raw JSON object
	Fresh       bool
	Watch       bool
	Mode        Mode
	MaxRetries  int

	In  io.Reader
	Out io.Writer
}

func (o *RunOptions) defaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Mode == "" {
		o.Mode = ModeText
	}
}

// Execute handles the run command, dispatching to a single session or to
// watch mode.
func Execute(ctx context.Context, app *App, opts RunOptions) error {
	opts.defaults()
	seed, err := ParseSeed(opts.PatientData)
	if err != nil {
		return err
	}

	if opts.Watch {
		if opts.Mode == ModeTUI {
			return errors.New("--watch and --tui cannot be used together")
		}
		return RunWatch(ctx, app, opts, seed)
	}

	if opts.Fresh {
		if err := deleteSession(ctx, app, opts.SessionID); err != nil {
			return err
		}
	}
	return RunSession(ctx, app, opts, seed)
}

// RunSession asks the questions of one session until it ends or the user
// leaves. A session left halfway stays stored for a later resume.
func RunSession(ctx context.Context, app *App, opts RunOptions, seed domain.PatientData) error {
	opts.defaults()
	quiet := opts.Mode == ModeJSON

	s, resumed, err := runner.LoadOrStart(ctx, app.Manager, opts.SessionID, opts.ModuleID, opts.Entry, seed)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	logSessionStatus(app, opts.Out, s, resumed, quiet)

	var final *domain.Session
	if opts.Mode == ModeTUI {
		final, err = tui.Run(ctx, app.Manager, s, tea.WithInput(opts.In), tea.WithOutput(opts.Out))
	} else {
		r := newRunner(app, opts)
		final, err = r.Run(ctx, s.ID)
	}

	if !quiet {
		logCompletion(opts.Out, final, err, ctxSignal(ctx))
	}
	return handleExecutionError(err)
}

func newRunner(app *App, opts RunOptions) *runner.Runner {
	return runner.NewRunner(app.Manager,
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(newHandler(opts)),
		runner.WithMaxRetries(opts.MaxRetries),
	)
}

func newHandler(opts RunOptions) runner.IOHandler {
	if opts.Mode == ModeJSON {
		return runner.NewJSONHandler(opts.In, opts.Out)
	}
	return runner.NewTextHandler(opts.In, opts.Out,
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
		runner.WithTextHandlerHighlighter(tui.NewHighlighter(opts.Out)),
	)
}

func logSessionStatus(app *App, w io.Writer, s *domain.Session, resumed, quiet bool) {
	if resumed {
		app.Logger.Info("Session resumed", "session_id", s.ID, "node_id", s.CurrentNodeID)
		if !quiet {
			printSystemMessage(w, "Resuming session '%s' at '%s' node...", s.ID, s.CurrentNodeID)
		}
		return
	}
	app.Logger.Info("Session created", "session_id", s.ID, "module_id", s.ModuleID)
	if !quiet {
		printSystemMessage(w, "Session '%s' active.", s.ID)
	}
}

func deleteSession(ctx context.Context, app *App, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := app.Manager.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}
	return nil
}

func ctxSignal(ctx context.Context) os.Signal {
	if sc, ok := ctx.(*SignalContext); ok {
		return sc.Signal()
	}
	return nil
}
