// Package runtime implements the triage state machine: branch resolution,
// risk contribution, session transitions and progress estimation.
//
// Every transition takes a session and returns a new one; the input is never
// mutated, so callers may keep the previous snapshot for diffs or undo.
package runtime
