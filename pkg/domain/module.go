package domain

import (
	"maps"
	"slices"
)

// Module is a specialty questionnaire: a question graph plus its entry points.
type Module struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Entry is the node a session starts at when no entry is requested.
	Entry string `json:"entry"`
	// Entries names alternative starting nodes (e.g. "postpartum").
	Entries map[string]string `json:"entries,omitempty"`

	// RequiredData lists patient-data keys that must be seeded before starting.
	RequiredData []string `json:"requiredData,omitempty"`

	Nodes map[string]*Node `json:"nodes"`
}

// Node looks up a question by id.
func (m *Module) Node(id string) (*Node, bool) {
	if m == nil || id == "" {
		return nil, false
	}
	n, ok := m.Nodes[id]
	return n, ok && n != nil
}

// ResolveEntry maps an entry name or node id to a node id. An empty request
// selects the default entry.
func (m *Module) ResolveEntry(requested string) string {
	if requested == "" {
		return m.Entry
	}
	if id, ok := m.Entries[requested]; ok {
		return id
	}
	return requested
}

// NodeIDs returns the node ids in lexical order.
func (m *Module) NodeIDs() []string {
	return slices.Sorted(maps.Keys(m.Nodes))
}

// EntryNames returns the named entries in lexical order.
func (m *Module) EntryNames() []string {
	return slices.Sorted(maps.Keys(m.Entries))
}

// ModuleInfo is the listing view of a module.
type ModuleInfo struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Entry        string            `json:"entry"`
	Entries      map[string]string `json:"entries,omitempty"`
	RequiredData []string          `json:"requiredData,omitempty"`
	Questions    int               `json:"questions"`
}

// Info summarises the module.
func (m *Module) Info() ModuleInfo {
	return ModuleInfo{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Entry:        m.Entry,
		Entries:      maps.Clone(m.Entries),
		RequiredData: slices.Clone(m.RequiredData),
		Questions:    len(m.Nodes),
	}
}
