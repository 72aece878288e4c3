package ports_test

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// MockStore is an in-memory implementation of SessionStore for testing purposes.
// Sessions are kept as JSON to simulate serialization.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(_ context.Context, sessionID string, s *domain.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = raw
	return nil
}

func (m *MockStore) Load(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	raw, ok := m.data[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// MockLedger keeps outcome records in insertion order.
type MockLedger struct {
	records []domain.OutcomeRecord
}

func (m *MockLedger) RecordOutcome(_ context.Context, rec domain.OutcomeRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *MockLedger) ListOutcomes(_ context.Context, f ports.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	var out []domain.OutcomeRecord
	for _, rec := range slices.Backward(m.records) {
		if f.ModuleID != "" && rec.ModuleID != f.ModuleID {
			continue
		}
		if f.SessionID != "" && rec.SessionID != f.SessionID {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestOutcomeLedger_Contract(t *testing.T) {
	ports.RunOutcomeLedgerContract(t, &MockLedger{})
}
