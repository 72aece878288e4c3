package domain

import (
	"fmt"
	"strings"
)

// Severity is the urgency classification accumulated by a session.
// The zero value is SeverityNone, which ranks below every level.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityD             // minor or administrative
	SeverityC             // routine, near-term
	SeverityB             // urgent, same day
	SeverityA             // immediately life-threatening
)

// TopSeverity is the level that terminates a flow.
const TopSeverity = SeverityA

// Combine returns the higher ranked of the two severities.
// SeverityNone is the identity element.
func Combine(current, incoming Severity) Severity {
	if incoming > current {
		return incoming
	}
	return current
}

// Max folds Combine over levels.
func Max(levels ...Severity) Severity {
	out := SeverityNone
	for _, l := range levels {
		out = Combine(out, l)
	}
	return out
}

// Valid reports whether s is one of the declared levels.
func (s Severity) Valid() bool {
	return s >= SeverityNone && s <= SeverityA
}

func (s Severity) String() string {
	switch s {
	case SeverityA:
		return "A"
	case SeverityB:
		return "B"
	case SeverityC:
		return "C"
	case SeverityD:
		return "D"
	case SeverityNone:
		return "none"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ParseSeverity accepts "A".."D" (any case). Empty, "none" and "null" map to SeverityNone.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return SeverityA, nil
	case "B":
		return SeverityB, nil
	case "C":
		return SeverityC, nil
	case "D":
		return SeverityD, nil
	case "", "NONE", "NULL":
		return SeverityNone, nil
	}
	return SeverityNone, fmt.Errorf("invalid severity %q", raw)
}

// MarshalText encodes the level as its letter. SeverityNone encodes as an empty string.
func (s Severity) MarshalText() ([]byte, error) {
	if s == SeverityNone {
		return []byte{}, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Outcome is the route a presentation layer takes once a session ends.
type Outcome string

const (
	OutcomeEmergencyCall         Outcome = "emergency_call"
	OutcomePriorityCallback      Outcome = "priority_callback"
	OutcomeScheduledConsultation Outcome = "scheduled_consultation"
)

// Outcome maps the level to its route. C, D and none all schedule a consultation.
func (s Severity) Outcome() Outcome {
	switch s {
	case SeverityA:
		return OutcomeEmergencyCall
	case SeverityB:
		return OutcomePriorityCallback
	default:
		return OutcomeScheduledConsultation
	}
}
