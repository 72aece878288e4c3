package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/session"
)

// LoadOrStart resumes sessionID when it is stored and not finished, and
// starts moduleID under that id otherwise. It reports whether the session
// was resumed. The seed only applies to a new session.
func LoadOrStart(
	ctx context.Context,
	manager *session.Manager,
	sessionID, moduleID, entry string,
	seed domain.PatientData,
) (*domain.Session, bool, error) {
	if sessionID == "" {
		s, err := manager.Start(ctx, moduleID, entry, seed)
		return s, false, err
	}

	s, err := manager.Get(ctx, sessionID)
	switch {
	case err == nil && !s.Terminal() && s.Status != domain.StatusNotStarted &&
		(moduleID == "" || s.ModuleID == moduleID):
		return s, true, nil
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	s, err = manager.StartWithID(ctx, sessionID, moduleID, entry, seed)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}
