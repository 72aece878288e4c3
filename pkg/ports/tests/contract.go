package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// ModuleLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ModuleLoader.
// expected maps each module ID the loader must serve to its entry node.
func ModuleLoaderContractTest(t *testing.T, loader ports.ModuleLoader, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetModule_Success", func(t *testing.T) {
		for id, entry := range expected {
			m, err := loader.GetModule(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting module %s: %v", id, err)
			}
			if m.ID != id {
				t.Errorf("module id mismatch: got %q, want %q", m.ID, id)
			}
			if m.Entry != entry {
				t.Errorf("entry mismatch for %s: got %q, want %q", id, m.Entry, entry)
			}
			if _, ok := m.Node(m.Entry); !ok {
				t.Errorf("entry node %s missing from module %s", m.Entry, id)
			}
			for nodeID, n := range m.Nodes {
				if n.ID != nodeID {
					t.Errorf("node keyed %q reports id %q", nodeID, n.ID)
				}
			}
		}
	})

	t.Run("GetModule_NotFound", func(t *testing.T) {
		_, err := loader.GetModule(ctx, "non-existent-module")
		if !errors.Is(err, domain.ErrModuleNotFound) {
			t.Errorf("expected ErrModuleNotFound, got %v", err)
		}
	})

	t.Run("ListModules", func(t *testing.T) {
		infos, err := loader.ListModules(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing modules: %v", err)
		}
		if len(infos) != len(expected) {
			t.Errorf("expected %d modules, got %d", len(expected), len(infos))
		}

		lookup := make(map[string]domain.ModuleInfo)
		for i, info := range infos {
			if i > 0 && infos[i-1].ID >= info.ID {
				t.Errorf("modules not ordered by id: %s before %s", infos[i-1].ID, info.ID)
			}
			lookup[info.ID] = info
		}
		for id := range expected {
			info, ok := lookup[id]
			if !ok {
				t.Errorf("module %s missing from list", id)
				continue
			}
			if info.Questions == 0 {
				t.Errorf("module %s reports no questions", id)
			}
		}
	})
}
