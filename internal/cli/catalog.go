package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/pkg/adapters/loam"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/modules"
)

// Catalog serves the built-in modules plus those found in a directory, and
// can re-read the directory while sessions are running.
// Modules from the directory replace built-ins with the same id.
type Catalog struct {
	builtin bool
	dir     string

	mu      sync.RWMutex
	current *memory.Loader
}

// NewCatalog loads the catalog once.
func NewCatalog(ctx context.Context, builtin bool, dir string) (*Catalog, error) {
	c := &Catalog{builtin: builtin, dir: dir}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir is the module directory, empty when only built-ins are served.
func (c *Catalog) Dir() string { return c.dir }

// Reload rebuilds the catalog. On error the previous catalog stays in place.
func (c *Catalog) Reload(ctx context.Context) error {
	next := memory.NewLoader()
	if c.builtin {
		mods, err := modules.Load()
		if err != nil {
			return err
		}
		for _, m := range mods {
			if err := next.Add(m); err != nil {
				return err
			}
		}
	}
	if c.dir != "" {
		mods, err := triage.LoadDir(ctx, c.dir)
		if err != nil {
			return err
		}
		for _, m := range mods {
			if err := next.Add(m); err != nil {
				return err
			}
		}
	}

	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	return nil
}

func (c *Catalog) loader() *memory.Loader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// GetModule implements ports.ModuleLoader.
func (c *Catalog) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	return c.loader().GetModule(ctx, id)
}

// ListModules implements ports.ModuleLoader.
func (c *Catalog) ListModules(ctx context.Context) ([]domain.ModuleInfo, error) {
	return c.loader().ListModules(ctx)
}

// Watch re-reads the directory on every change and reports the changed
// document. Reload failures are sent to onError and the old catalog is kept.
func (c *Catalog) Watch(ctx context.Context, onError func(error)) (<-chan string, error) {
	if c.dir == "" {
		return nil, errors.New("watch requires a module directory")
	}
	l, err := loam.Open(c.dir)
	if err != nil {
		return nil, err
	}
	events, err := l.Watch(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for id := range events {
			if err := c.Reload(ctx); err != nil {
				if onError != nil {
					onError(fmt.Errorf("reload after %s changed: %w", id, err))
				}
				continue
			}
			select {
			case ch <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
