package domain

import (
	"maps"
	"slices"
)

// Status is the lifecycle phase of a session.
type Status string

const (
	StatusNotStarted   Status = "not_started"
	StatusInProgress   Status = "in_progress"
	StatusComplete     Status = "complete"
	StatusCriticalStop Status = "critical_stop"
)

// Terminal reports whether only a reset can leave this status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusCriticalStop
}

// Session is one user's traversal of a module graph.
// Transitions never mutate a Session in place; they return a new value.
type Session struct {
	ID            string           `json:"id"`
	ModuleID      string           `json:"moduleId,omitempty"`
	EntryNodeID   string           `json:"entryNodeId,omitempty"`
	CurrentNodeID string           `json:"currentNodeId,omitempty"`
	Answers       map[string]Value `json:"answers"`
	MaxSeverity   Severity         `json:"maxSeverity"`
	History       []string         `json:"history"`
	IsComplete    bool             `json:"isComplete"`
	Status        Status           `json:"status"`
	PatientData   PatientData      `json:"patientData"`
}

// NewSession returns a session in its NotStarted defaults.
func NewSession(id string) *Session {
	return &Session{
		ID:          id,
		Answers:     make(map[string]Value),
		History:     []string{},
		Status:      StatusNotStarted,
		PatientData: make(PatientData),
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers = maps.Clone(s.Answers)
	if out.Answers == nil {
		out.Answers = make(map[string]Value)
	}
	out.History = slices.Clone(s.History)
	if out.History == nil {
		out.History = []string{}
	}
	out.PatientData = s.PatientData.Clone()
	return &out
}

// Terminal reports whether the session has ended.
func (s *Session) Terminal() bool {
	return s.Status.Terminal()
}

// Outcome is the route for a finished session. A critical stop always routes
// to an emergency call.
func (s *Session) Outcome() Outcome {
	if s.Status == StatusCriticalStop {
		return OutcomeEmergencyCall
	}
	return s.MaxSeverity.Outcome()
}
