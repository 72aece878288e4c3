// Package loam loads a question module from a Loam repository: one markdown
// (or JSON/YAML) document per question plus a module.md header document.
package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/triage/internal/compiler"
	"github.com/aretw0/triage/internal/dto"
	"github.com/aretw0/triage/pkg/domain"
)

// Loader adapts a Loam repository to ports.ModuleLoader. The repository holds
// exactly one module.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
	// Name is the module id used when module.md does not declare one.
	Name string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata], name string) *Loader {
	return &Loader{Repo: repo, Name: name}
}

// Open initializes a read-only, strict Loam repository at dir. The directory
// name becomes the fallback module id.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number across markdown and JSON documents.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo), filepath.Base(absPath)), nil
}

// Module reads every document and compiles the module. List only carries
// front matter, so each question is fetched again for its body.
func (l *Loader) Module(ctx context.Context) (*domain.Module, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	mod := &dto.ModuleDocument{ID: l.Name}
	seen := make(map[string]string)
	var errs []error
	for _, doc := range docs {
		docID := trimExtension(doc.ID)
		if docID == ModuleDoc {
			applyHeader(mod, doc.Data)
			continue
		}

		id := docID
		if doc.Data.ID != "" {
			id = trimExtension(doc.Data.ID)
		}
		if prev, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, prev, doc.ID))
			continue
		}
		seen[id] = doc.ID

		full, err := l.Repo.Get(ctx, doc.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("loam get failed for %s: %w", doc.ID, err))
			continue
		}
		nd, err := full.Data.document(id, strings.TrimSpace(full.Content))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		mod.Nodes = append(mod.Nodes, *nd)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if mod.ID == "" {
		return nil, errors.New("module has no id: add one to module.md")
	}
	if mod.Entry == "" {
		return nil, fmt.Errorf("module %s: module.md must declare an entry", mod.ID)
	}
	return compiler.Compile(mod)
}

func applyHeader(mod *dto.ModuleDocument, meta NodeMetadata) {
	if meta.ID != "" {
		mod.ID = meta.ID
	}
	mod.Title = meta.Title
	mod.Description = meta.Description
	mod.Entry = meta.Entry
	mod.Entries = meta.Entries
	mod.RequiredData = meta.RequiredData
}

// GetModule implements ports.ModuleLoader.
func (l *Loader) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	m, err := l.Module(ctx)
	if err != nil {
		return nil, err
	}
	if m.ID != id {
		return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, id)
	}
	return m, nil
}

// ListModules implements ports.ModuleLoader.
func (l *Loader) ListModules(ctx context.Context) ([]domain.ModuleInfo, error) {
	m, err := l.Module(ctx)
	if err != nil {
		return nil, err
	}
	return []domain.ModuleInfo{m.Info()}, nil
}

// Watch reports the id of every changed document until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
