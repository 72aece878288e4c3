package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/google/uuid"
)

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	engine ports.TriageEngine
	loader ports.ModuleLoader
	store  ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	ledger  ports.OutcomeLedger
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLedger records an outcome whenever a session becomes terminal.
func WithLedger(ledger ports.OutcomeLedger) Option {
	return func(m *Manager) { m.ledger = ledger }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the clock used for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides how session and outcome ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates a Manager. The loader is consulted for a module's
// required patient data before a session starts.
func NewManager(engine ports.TriageEngine, loader ports.ModuleLoader, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		loader:  loader,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Loader returns the module loader used to check required data.
func (m *Manager) Loader() ports.ModuleLoader {
	return m.loader
}

// Start creates a session positioned at the entry of moduleID, seeded with
// patient data. An unknown module is reported as domain.ErrModuleNotFound and
// missing required keys as *domain.MissingDataError; nothing is stored then.
func (m *Manager) Start(ctx context.Context, moduleID, entry string, seed domain.PatientData) (*domain.Session, error) {
	return m.StartWithID(ctx, m.newID(), moduleID, entry, seed)
}

// StartWithID is Start with a caller-chosen session id. An existing session
// under id is replaced.
func (m *Manager) StartWithID(ctx context.Context, id, moduleID, entry string, seed domain.PatientData) (*domain.Session, error) {
	mod, err := m.loader.GetModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, key := range mod.RequiredData {
		if !seed.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.MissingDataError{ModuleID: moduleID, Keys: missing}
	}

	var out *domain.Session
	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		s, err := m.engine.StartModule(ctx, domain.NewSession(id), moduleID, entry)
		if err != nil {
			return err
		}
		s = m.engine.SetPatientData(ctx, s, seed)
		if err := m.store.Save(ctx, id, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		if s.Terminal() {
			m.record(ctx, s)
		}
		out = s
		return nil
	})
	return out, err
}

// Get loads a session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// Submit answers the current question of a stored session. It returns the
// session before and after the transition.
func (m *Manager) Submit(ctx context.Context, sessionID string, answer domain.Value, risk domain.Severity) (before, after *domain.Session, err error) {
	return m.update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		return m.engine.Submit(ctx, s, answer, risk)
	})
}

// SubmitChecked answers the current question with the value prepare builds
// for it. The question lookup, prepare and the transition all run under the
// session lock, so the answer is checked against the node it is recorded for.
// An error from prepare leaves the session untouched.
func (m *Manager) SubmitChecked(ctx context.Context, sessionID string, prepare func(*domain.Node) (domain.Value, error), risk domain.Severity) (before, after *domain.Session, err error) {
	return m.update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		node, ok := m.engine.Current(ctx, s)
		if !ok {
			if s.Status == domain.StatusNotStarted {
				return nil, domain.ErrSessionNotStarted
			}
			return nil, domain.ErrSessionTerminal
		}
		answer, err := prepare(node)
		if err != nil {
			return nil, err
		}
		return m.engine.Submit(ctx, s, answer, risk)
	})
}

// SetPatientData merges data into a stored session.
func (m *Manager) SetPatientData(ctx context.Context, sessionID string, data domain.PatientData) (before, after *domain.Session, err error) {
	return m.update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		return m.engine.SetPatientData(ctx, s, data), nil
	})
}

// Reset returns a stored session to its initial state, keeping its id.
func (m *Manager) Reset(ctx context.Context, sessionID string) (before, after *domain.Session, err error) {
	return m.update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		return m.engine.Reset(ctx, s), nil
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) update(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) (*domain.Session, error)) (before, after *domain.Session, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		next, err := fn(ctx, s)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, sessionID, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		if !s.Terminal() && next.Terminal() {
			m.record(ctx, next)
		}
		before, after = s, next
		return nil
	})
	return before, after, err
}

// record appends the outcome of a terminal session. Ledger failures are
// logged; the session itself is already saved.
func (m *Manager) record(ctx context.Context, s *domain.Session) {
	if m.ledger == nil {
		return
	}
	rec := domain.NewOutcomeRecord(m.newID(), s, m.now())
	if err := m.ledger.RecordOutcome(ctx, rec); err != nil {
		m.logger.Error("Failed to record outcome",
			"session_id", s.ID,
			"module_id", s.ModuleID,
			"outcome", rec.Outcome,
			"err", err,
		)
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
