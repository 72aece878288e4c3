package runner

import (
	"context"

	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// View combines a session with what a client needs to render it. It is the
// response shape shared by the terminal, HTTP and MCP front ends.
type View struct {
	Session  *domain.Session  `json:"session"`
	Question *domain.Node     `json:"question,omitempty"`
	Progress runtime.Progress `json:"progress"`
	Outcome  domain.Outcome   `json:"outcome,omitempty"`
	Terminal bool             `json:"terminal"`
}

// Describe builds the view of s. The question is only set while the session
// is in progress on a node that exists; the outcome only once it is terminal.
func Describe(ctx context.Context, loader ports.ModuleLoader, s *domain.Session) (*View, error) {
	v := &View{Session: s, Terminal: s.Terminal()}
	if v.Terminal {
		v.Outcome = s.Outcome()
	}
	if s.Status == domain.StatusNotStarted {
		return v, nil
	}

	m, err := loader.GetModule(ctx, s.ModuleID)
	if err != nil {
		return v, err
	}
	v.Progress = runtime.ProgressOf(m, s)
	if v.Terminal {
		v.Progress.Percent = 100
	}
	if s.Status == domain.StatusInProgress {
		if n, ok := m.Node(s.CurrentNodeID); ok {
			v.Question = n
		}
	}
	return v, nil
}
