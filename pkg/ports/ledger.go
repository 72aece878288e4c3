package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// OutcomeFilter narrows ListOutcomes. Zero values match everything.
type OutcomeFilter struct {
	ModuleID  string
	SessionID string
	Limit     int
}

// OutcomeLedger is an append-only record of finished sessions.
type OutcomeLedger interface {
	RecordOutcome(ctx context.Context, rec domain.OutcomeRecord) error

	// ListOutcomes returns matching records, newest first.
	ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]domain.OutcomeRecord, error)
}
