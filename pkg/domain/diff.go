package domain

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentNodeID *string   `json:"current_node_id,omitempty"`
	Status        *Status   `json:"status,omitempty"`
	MaxSeverity   *Severity `json:"max_severity,omitempty"`
	IsComplete    *bool     `json:"is_complete,omitempty"`

	// PatientData contains only added or changed keys.
	PatientData PatientData `json:"patient_data,omitempty"`

	// Appended holds history entries added since the old snapshot.
	Appended []string `json:"appended,omitempty"`

	// Reset is set when the new snapshot does not extend the old one
	// (a module restart or an explicit reset). Clients should replace their state.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, the diff describes the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}
	d := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil {
		oldSession = &Session{}
	}
	if oldSession.CurrentNodeID != newSession.CurrentNodeID {
		d.CurrentNodeID = &newSession.CurrentNodeID
	}
	if oldSession.Status != newSession.Status {
		d.Status = &newSession.Status
	}
	if oldSession.MaxSeverity != newSession.MaxSeverity {
		d.MaxSeverity = &newSession.MaxSeverity
	}
	if oldSession.IsComplete != newSession.IsComplete {
		d.IsComplete = &newSession.IsComplete
	}

	d.Reset = !extends(oldSession, newSession)
	if d.Reset {
		d.PatientData = newSession.PatientData.Clone()
		d.Appended = append([]string(nil), newSession.History...)
	} else {
		d.Appended = append([]string(nil), newSession.History[len(oldSession.History):]...)
		for k, v := range newSession.PatientData {
			if old, ok := oldSession.PatientData[k]; !ok || !old.Equal(v) || old.Kind() != v.Kind() {
				if d.PatientData == nil {
					d.PatientData = make(PatientData)
				}
				d.PatientData[k] = v
			}
		}
	}
	if len(d.PatientData) == 0 {
		d.PatientData = nil
	}
	if len(d.Appended) == 0 {
		d.Appended = nil
	}

	if d.IsEmpty() {
		return nil
	}
	return d
}

// extends reports whether next is reachable from prev without a reset:
// same module, history prefix preserved, no patient-data key removed.
func extends(prev, next *Session) bool {
	if prev.ModuleID != next.ModuleID || len(next.History) < len(prev.History) {
		return false
	}
	for i, id := range prev.History {
		if next.History[i] != id {
			return false
		}
	}
	for k := range prev.PatientData {
		if _, ok := next.PatientData[k]; !ok {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		d.MaxSeverity == nil &&
		d.IsComplete == nil &&
		len(d.PatientData) == 0 &&
		len(d.Appended) == 0 &&
		!d.Reset
}
