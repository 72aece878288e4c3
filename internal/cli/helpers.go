package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/triage/pkg/domain"
)

// SignalContext is a context cancelled on SIGINT or SIGTERM that remembers
// which signal arrived.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext works like signal.NotifyContext but keeps the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.mu.Lock()
			sc.sig = sig
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// printSystemMessage writes a standardized system line.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// ParseSeed decodes a JSON object of patient data, e.g. {"ageMonths": 2}.
func ParseSeed(raw string) (domain.PatientData, error) {
	if raw == "" {
		return nil, nil
	}
	var seed domain.PatientData
	if err := json.Unmarshal([]byte(raw), &seed); err != nil {
		return nil, fmt.Errorf("error parsing patient data JSON: %w", err)
	}
	return seed, nil
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handleExecutionError treats an interrupted run as a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

func logCompletion(w io.Writer, s *domain.Session, err error, sig os.Signal) {
	if s == nil {
		return
	}
	switch {
	case err == nil && s.Terminal():
		printSystemMessage(w, "Session '%s' finished: %s.", s.ID, s.Outcome())
	case err == nil || isInterrupted(err):
		if sig == syscall.SIGTERM {
			printSystemMessage(w, "Terminated at '%s' node.", s.CurrentNodeID)
		} else {
			printSystemMessage(w, "Paused at '%s' node. Resume with --session %s.", s.CurrentNodeID, s.ID)
		}
	}
}
