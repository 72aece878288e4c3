package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/triage/pkg/domain"
)

// StartModule resets s and positions it at the requested entry of moduleID.
// entry may be a node id, a named entry or empty for the module default.
//
// It never fails on graph problems: an unknown module or entry node completes
// the session immediately and is reported as a configuration error.
func (e *Engine) StartModule(ctx context.Context, s *domain.Session, moduleID, entry string) (*domain.Session, error) {
	id := ""
	if s != nil {
		id = s.ID
	}
	next := domain.NewSession(id)
	next.ModuleID = moduleID

	m, err := e.module(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		e.configError(ctx, next, "", fmt.Sprintf("module %q not found", moduleID))
		return e.finish(ctx, next), nil
	}

	next.EntryNodeID = m.ResolveEntry(entry)
	next.Status = domain.StatusInProgress
	if _, ok := m.Node(next.EntryNodeID); !ok {
		e.configError(ctx, next, next.EntryNodeID, fmt.Sprintf("entry node %q not found", next.EntryNodeID))
		return e.finish(ctx, next), nil
	}
	next.CurrentNodeID = next.EntryNodeID
	e.emitStart(ctx, next)
	return next, nil
}

// AnswerQuestion records answer for nodeID, folds its risk into the session
// severity and appends nodeID to history. It does not advance the session;
// callers resolve the next node against the returned patient data.
//
// When the new severity is the top level the session ends in CriticalStop and
// the current node is left in place. Without halt-on-top-severity only nodes
// flagged criticalStop end the flow this way.
func (e *Engine) AnswerQuestion(ctx context.Context, s *domain.Session, nodeID string, answer domain.Value, risk domain.Severity) (*domain.Session, error) {
	switch {
	case s == nil || s.Status == domain.StatusNotStarted:
		return nil, domain.ErrSessionNotStarted
	case s.Terminal():
		return nil, domain.ErrSessionTerminal
	}

	m, err := e.module(ctx, s.ModuleID)
	if err != nil {
		return nil, err
	}
	node, ok := m.Node(nodeID)
	if !ok {
		e.configError(ctx, s, nodeID, fmt.Sprintf("answered node %q not found", nodeID))
	}

	next := s.Clone()
	answer = normalizeAnswer(node, answer)
	next.Answers[nodeID] = answer
	next.PatientData[nodeID] = answer
	if node != nil && node.SaveTo != "" {
		next.PatientData[node.SaveTo] = answer
	}

	contributed := domain.Combine(risk, ContributedRisk(node, answer))
	next.MaxSeverity = domain.Combine(next.MaxSeverity, contributed)
	next.History = append(next.History, nodeID)
	e.emitAnswer(ctx, next, nodeID, answer, contributed)

	if next.MaxSeverity == domain.TopSeverity && (e.haltOnTop || (node != nil && node.CriticalStop)) {
		next.Status = domain.StatusCriticalStop
		e.emitCriticalStop(ctx, next)
	}
	return next, nil
}

// SetNextQuestion moves the session to nodeID. An empty id ends the flow, as
// does an id missing from the graph (reported as a configuration error).
func (e *Engine) SetNextQuestion(ctx context.Context, s *domain.Session, nodeID string) (*domain.Session, error) {
	switch {
	case s == nil || s.Status == domain.StatusNotStarted:
		return nil, domain.ErrSessionNotStarted
	case s.Terminal():
		return nil, domain.ErrSessionTerminal
	}

	next := s.Clone()
	if nodeID == "" {
		return e.finish(ctx, next), nil
	}

	m, err := e.module(ctx, s.ModuleID)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Node(nodeID); !ok {
		e.configError(ctx, next, s.CurrentNodeID, fmt.Sprintf("next node %q not found", nodeID))
		return e.finish(ctx, next), nil
	}
	next.CurrentNodeID = nodeID
	return next, nil
}

// SetPatientData merges data into the session, last write wins per key.
// Severity, history and status are untouched. A nil session is treated as
// a fresh one.
func (e *Engine) SetPatientData(_ context.Context, s *domain.Session, data domain.PatientData) *domain.Session {
	if s == nil {
		s = domain.NewSession("")
	}
	next := s.Clone()
	next.PatientData = next.PatientData.Merge(data)
	return next
}

// Reset returns the NotStarted defaults, keeping only the session id.
func (e *Engine) Reset(_ context.Context, s *domain.Session) *domain.Session {
	if s == nil {
		return domain.NewSession("")
	}
	return domain.NewSession(s.ID)
}

// Submit answers the current question and, unless that ended the session,
// resolves and moves to the next one.
func (e *Engine) Submit(ctx context.Context, s *domain.Session, answer domain.Value, risk domain.Severity) (*domain.Session, error) {
	if s == nil {
		return nil, domain.ErrSessionNotStarted
	}
	current := s.CurrentNodeID
	next, err := e.AnswerQuestion(ctx, s, current, answer, risk)
	if err != nil {
		return nil, err
	}
	if next.Terminal() {
		return next, nil
	}

	m, err := e.module(ctx, next.ModuleID)
	if err != nil {
		return nil, err
	}
	node, _ := m.Node(current)
	return e.SetNextQuestion(ctx, next, ResolveNext(node, next.PatientData))
}

// Current returns the node to render. It reports false unless the session is
// in progress on a node that exists.
func (e *Engine) Current(ctx context.Context, s *domain.Session) (*domain.Node, bool) {
	if s == nil || s.Status != domain.StatusInProgress {
		return nil, false
	}
	m, err := e.module(ctx, s.ModuleID)
	if err != nil {
		e.logger.Error("failed to load module", "module_id", s.ModuleID, "error", err)
		return nil, false
	}
	return m.Node(s.CurrentNodeID)
}

// Progress estimates how far s is through its module. A nil session reports
// the first step of one.
func (e *Engine) Progress(ctx context.Context, s *domain.Session) (Progress, error) {
	if s == nil {
		s = domain.NewSession("")
	}
	m, err := e.module(ctx, s.ModuleID)
	if err != nil {
		return Progress{}, err
	}
	return ProgressOf(m, s), nil
}

func (e *Engine) finish(ctx context.Context, s *domain.Session) *domain.Session {
	s.Status = domain.StatusComplete
	s.IsComplete = true
	e.emitComplete(ctx, s)
	return s
}
