package runner

import "context"

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the current question, or the outcome once the
	// session has ended.
	Output(ctx context.Context, view *View) error

	// Input reads a reply from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (e.g. an invalid answer) that is
	// not part of the questionnaire.
	SystemOutput(ctx context.Context, msg string) error
}
