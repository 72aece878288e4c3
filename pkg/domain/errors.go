package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrModuleNotFound is returned when a module ID is not known to the loader.
var ErrModuleNotFound = errors.New("module not found")

var (
	// ErrSessionTerminal is returned when a transition targets a finished session.
	ErrSessionTerminal = errors.New("session is complete; reset to continue")
	// ErrSessionNotStarted is returned when answering before a module is started.
	ErrSessionNotStarted = errors.New("session has not started a module")
	// ErrInvalidAnswer is the sentinel wrapped by AnswerError.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrMissingPatientData is the sentinel wrapped by MissingDataError.
	ErrMissingPatientData = errors.New("missing patient data")
)

// AnswerError describes an answer whose shape does not fit its question.
type AnswerError struct {
	NodeID string
	Reason string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.NodeID, e.Reason)
}

func (e *AnswerError) Unwrap() error { return ErrInvalidAnswer }

// MissingDataError is returned when a module is started without the patient
// data its branch conditions depend on.
type MissingDataError struct {
	ModuleID string
	Keys     []string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("module %s requires patient data: %s", e.ModuleID, strings.Join(e.Keys, ", "))
}

func (e *MissingDataError) Unwrap() error { return ErrMissingPatientData }
