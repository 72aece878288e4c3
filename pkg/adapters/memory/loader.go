package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
)

// Loader implements ports.ModuleLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu      sync.RWMutex
	modules map[string]*domain.Module
}

// NewLoader creates a loader serving the given modules.
func NewLoader(modules ...*domain.Module) *Loader {
	l := &Loader{modules: make(map[string]*domain.Module)}
	for _, m := range modules {
		_ = l.Add(m)
	}
	return l
}

// Add registers (or replaces) a module. Nodes keyed by id get their ID field filled in.
func (l *Loader) Add(m *domain.Module) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("module missing ID")
	}
	for id, n := range m.Nodes {
		if n != nil && n.ID == "" {
			n.ID = id
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modules[m.ID] = m
	return nil
}

// GetModule retrieves a module by ID.
func (l *Loader) GetModule(_ context.Context, id string) (*domain.Module, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.modules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, id)
	}
	return m, nil
}

// ListModules returns all available modules ordered by ID.
func (l *Loader) ListModules(_ context.Context) ([]domain.ModuleInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	infos := make([]domain.ModuleInfo, 0, len(l.modules))
	for _, m := range l.modules {
		infos = append(infos, m.Info())
	}
	slices.SortFunc(infos, func(a, b domain.ModuleInfo) int { return strings.Compare(a.ID, b.ID) })
	return infos, nil
}
