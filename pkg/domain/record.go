package domain

import "time"

// OutcomeRecord is the audit entry written when a session reaches a terminal state.
type OutcomeRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	ModuleID    string    `json:"moduleId"`
	Status      Status    `json:"status"`
	MaxSeverity Severity  `json:"maxSeverity"`
	Outcome     Outcome   `json:"outcome"`
	Steps       int       `json:"steps"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// NewOutcomeRecord summarises a terminal session.
func NewOutcomeRecord(id string, s *Session, at time.Time) OutcomeRecord {
	return OutcomeRecord{
		ID:          id,
		SessionID:   s.ID,
		ModuleID:    s.ModuleID,
		Status:      s.Status,
		MaxSeverity: s.MaxSeverity,
		Outcome:     s.Outcome(),
		Steps:       len(s.History),
		RecordedAt:  at.UTC(),
	}
}
