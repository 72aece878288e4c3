package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
)

// Builder manages the module construction.
type Builder struct {
	module domain.Module
	order  []string
	nodes  map[string]*NodeBuilder
}

// New creates a new module builder.
func New(moduleID string) *Builder {
	return &Builder{
		module: domain.Module{ID: moduleID},
		nodes:  make(map[string]*NodeBuilder),
	}
}

// Title sets the display title.
func (b *Builder) Title(title string) *Builder {
	b.module.Title = title
	return b
}

// Describe sets the module description.
func (b *Builder) Describe(description string) *Builder {
	b.module.Description = description
	return b
}

// Entry sets the default entry node. When omitted the first added node is used.
func (b *Builder) Entry(nodeID string) *Builder {
	b.module.Entry = nodeID
	return b
}

// NamedEntry registers an alternative entry point.
func (b *Builder) NamedEntry(name, nodeID string) *Builder {
	if b.module.Entries == nil {
		b.module.Entries = make(map[string]string)
	}
	b.module.Entries[name] = nodeID
	return b
}

// Requires lists patient-data keys that must be seeded before starting.
func (b *Builder) Requires(keys ...string) *Builder {
	b.module.RequiredData = append(b.module.RequiredData, keys...)
	return b
}

// Add creates a new node in the module.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the module. It reports every condition that failed to parse.
func (b *Builder) Build() (*domain.Module, error) {
	if b.module.ID == "" {
		return nil, errors.New("module missing ID")
	}
	m := b.module
	if m.Entry == "" && len(b.order) > 0 {
		m.Entry = b.order[0]
	}

	var errs []error
	m.Nodes = make(map[string]*domain.Node, len(b.nodes))
	for _, id := range b.order {
		nb := b.nodes[id]
		errs = append(errs, nb.errs...)
		n := nb.Build()
		m.Nodes[id] = &n
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("module %s: %w", m.ID, err)
	}
	return &m, nil
}

// Loader builds the module and serves it from memory.
func (b *Builder) Loader() (*memory.Loader, error) {
	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(m), nil
}
