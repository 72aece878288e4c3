package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
)

// reloadSettle lets editors finish writing before the session resumes.
const reloadSettle = 100 * time.Millisecond

type runResult struct {
	session *domain.Session
	err     error
}

// RunWatch runs a session in development mode: every change to the module
// directory reloads the catalog and resumes the same session against the new
// definitions.
func RunWatch(ctx context.Context, app *App, opts RunOptions, seed domain.PatientData) error {
	opts.defaults()
	if opts.SessionID == "" {
		opts.SessionID = "watch-" + opts.ModuleID
	}
	if opts.Fresh {
		if err := deleteSession(ctx, app, opts.SessionID); err != nil {
			return err
		}
	}

	events, err := app.Watch(ctx)
	if err != nil {
		return err
	}
	app.Logger.Info("Starting watcher", "dir", app.Catalog.Dir(), "session_id", opts.SessionID)
	printSystemMessage(opts.Out, "Watching '%s' with session '%s'.", app.Catalog.Dir(), opts.SessionID)

	// One handler for every iteration, so a single reader owns the input.
	r := runner.NewRunner(app.Manager,
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(newHandler(opts)),
		runner.WithMaxRetries(opts.MaxRetries),
	)

	for {
		reload, err := watchIteration(ctx, app, opts, seed, r, events)
		if err != nil || !reload {
			return handleExecutionError(err)
		}
		app.Logger.Info("Watcher restarting")
	}
}

// watchIteration runs the session until it ends, the user leaves, or the
// modules change. It reports whether the caller should start over.
func watchIteration(
	ctx context.Context,
	app *App,
	opts RunOptions,
	seed domain.PatientData,
	r *runner.Runner,
	events <-chan string,
) (bool, error) {
	s, err := resumeForWatch(ctx, app, opts, seed)
	if err != nil {
		app.Logger.Error("Session rehydration failed", "err", err)
		printSystemMessage(opts.Out, "%v. Waiting for changes...", err)
		return waitForChange(ctx, app, opts, events)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan runResult, 1)
	go func() {
		final, err := r.Run(runCtx, s.ID)
		done <- runResult{final, err}
	}()

	select {
	case <-ctx.Done():
		cancel()
		res := <-done
		logCompletion(opts.Out, res.session, ctx.Err(), ctxSignal(ctx))
		return false, nil

	case id, ok := <-events:
		cancel()
		<-done
		if !ok {
			return false, nil
		}
		announceChange(app, opts, id)
		return true, nil

	case res := <-done:
		if res.err != nil {
			return false, res.err
		}
		logCompletion(opts.Out, res.session, nil, nil)
		if res.session == nil || !res.session.Terminal() {
			// The user typed quit.
			return false, nil
		}
		printSystemMessage(opts.Out, "Waiting for changes...")
		return waitForChange(ctx, app, opts, events)
	}
}

func waitForChange(ctx context.Context, app *App, opts RunOptions, events <-chan string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, nil
	case id, ok := <-events:
		if !ok {
			return false, nil
		}
		announceChange(app, opts, id)
		return true, nil
	}
}

func announceChange(app *App, opts RunOptions, id string) {
	app.Logger.Info("Change detected, reloading", "document", id)
	fmt.Fprintln(opts.Out)
	printSystemMessage(opts.Out, "Change detected in '%s'.", id)
	time.Sleep(reloadSettle)
}

// resumeForWatch loads the watched session. A finished session, or one whose
// current question no longer exists, starts over.
func resumeForWatch(ctx context.Context, app *App, opts RunOptions, seed domain.PatientData) (*domain.Session, error) {
	s, resumed, err := runner.LoadOrStart(ctx, app.Manager, opts.SessionID, opts.ModuleID, opts.Entry, seed)
	if err != nil {
		return nil, err
	}
	if !resumed {
		return s, nil
	}

	m, err := app.Catalog.GetModule(ctx, s.ModuleID)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Node(s.CurrentNodeID); ok {
		printSystemMessage(opts.Out, "Resuming at '%s' node...", s.CurrentNodeID)
		return s, nil
	}

	app.Logger.Warn("Current node removed, restarting session",
		"session_id", s.ID, "node_id", s.CurrentNodeID)
	printSystemMessage(opts.Out, "Node '%s' no longer exists. Starting over.", s.CurrentNodeID)
	return app.Manager.StartWithID(ctx, s.ID, opts.ModuleID, opts.Entry, seed)
}
