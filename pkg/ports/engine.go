package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// TriageEngine is the stateless transition surface used by adapters (e.g., HTTP, MCP)
// that keep sessions externally. Every method returns a new session and never mutates its input.
type TriageEngine interface {
	// StartModule resets the session and positions it at the module's entry.
	StartModule(ctx context.Context, s *domain.Session, moduleID, entry string) (*domain.Session, error)

	// Submit answers the current question and advances to the next one.
	Submit(ctx context.Context, s *domain.Session, answer domain.Value, risk domain.Severity) (*domain.Session, error)

	// SetPatientData merges data into the session's patient data.
	SetPatientData(ctx context.Context, s *domain.Session, data domain.PatientData) *domain.Session

	// Reset returns the session to its initial state.
	Reset(ctx context.Context, s *domain.Session) *domain.Session

	// Current returns the node to render, if the session is in progress.
	Current(ctx context.Context, s *domain.Session) (*domain.Node, bool)
}
