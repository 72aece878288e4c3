package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// ModuleLoader defines how the engine retrieves question graphs.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type ModuleLoader interface {
	// GetModule retrieves a fully decoded module by ID.
	// Returns domain.ErrModuleNotFound if the module does not exist.
	GetModule(ctx context.Context, id string) (*domain.Module, error)

	// ListModules returns a summary of every available module, ordered by ID.
	ListModules(ctx context.Context) ([]domain.ModuleInfo, error)
}
