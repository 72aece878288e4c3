// Package validator checks module graphs for authoring mistakes that the
// engine would otherwise only discover mid-session.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
)

// Issue is one finding. Warnings do not make a module invalid.
type Issue struct {
	NodeID  string
	Message string
	Warning bool
}

func (i Issue) String() string {
	level := "error"
	if i.Warning {
		level = "warning"
	}
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", level, i.Message)
	}
	return fmt.Sprintf("%s: node %s: %s", level, i.NodeID, i.Message)
}

// Check walks m and reports every issue found, errors first.
func Check(m *domain.Module) []Issue {
	if m == nil {
		return []Issue{{Message: "module is nil"}}
	}
	var issues []Issue
	add := func(nodeID string, warning bool, format string, args ...any) {
		issues = append(issues, Issue{NodeID: nodeID, Message: fmt.Sprintf(format, args...), Warning: warning})
	}

	if _, ok := m.Node(m.Entry); !ok {
		add("", false, "entry node %q not found", m.Entry)
	}
	for _, name := range m.EntryNames() {
		if _, ok := m.Node(m.Entries[name]); !ok {
			add("", false, "entry %q points to missing node %q", name, m.Entries[name])
		}
	}

	written := writtenKeys(m)
	for _, id := range m.NodeIDs() {
		n := m.Nodes[id]
		for _, target := range n.Next.Targets() {
			if _, ok := m.Node(target); !ok {
				add(id, false, "next node %q not found", target)
			}
		}
		checkNode(n, add)
		for _, b := range n.Next.Branches {
			if b.When == nil {
				continue
			}
			if err := b.When.Validate(); err != nil {
				add(id, false, "branch to %s: %v", b.To, err)
			}
			for _, key := range b.When.Keys() {
				if !written[key] {
					add(id, true, "branch to %s reads %q, which no question or required data provides", b.To, key)
				}
			}
		}
		if n.CriticalStop && !canReachTop(n) {
			add(id, true, "criticalStop is set but no answer reaches severity %s", domain.TopSeverity)
		}
	}

	reachable := Reachable(m)
	for _, id := range m.NodeIDs() {
		if !reachable[id] {
			add(id, true, "unreachable from any entry")
		}
	}

	slices.SortStableFunc(issues, func(a, b Issue) int {
		switch {
		case a.Warning == b.Warning:
			return 0
		case b.Warning:
			return -1
		}
		return 1
	})
	return issues
}

// Report is the error returned by Validate. It carries every issue found,
// warnings included.
type Report struct {
	ModuleID string
	Issues   []Issue
}

// Errors returns the issues that make the module invalid.
func (r *Report) Errors() []Issue {
	return slices.DeleteFunc(slices.Clone(r.Issues), func(i Issue) bool { return i.Warning })
}

func (r *Report) Error() string {
	errs := r.Errors()
	lines := make([]string, len(errs))
	for i, issue := range errs {
		lines[i] = issue.String()
	}
	return fmt.Sprintf("module %s has %d errors:\n- %s", r.ModuleID, len(errs), strings.Join(lines, "\n- "))
}

// Validate returns a *Report when Check finds at least one error, and nil
// when the module only has warnings.
func Validate(m *domain.Module) error {
	r := &Report{ModuleID: moduleID(m), Issues: Check(m)}
	if len(r.Errors()) == 0 {
		return nil
	}
	return r
}

// Reachable returns the set of nodes reachable from the default and named
// entries, following every branch regardless of its condition.
func Reachable(m *domain.Module) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{m.Entry}
	for _, name := range m.EntryNames() {
		queue = append(queue, m.Entries[name])
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		n, ok := m.Node(id)
		if !ok {
			continue
		}
		visited[id] = true
		for _, target := range n.Next.Targets() {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	return visited
}

func checkNode(n *domain.Node, add func(string, bool, string, ...any)) {
	switch {
	case n.Type.IsChoice() && len(n.Options) == 0:
		add(n.ID, false, "%s question has no options", n.Type)
	case n.Type == domain.NodeTypeNumeric && n.Min != nil && n.Max != nil && *n.Min > *n.Max:
		add(n.ID, false, "min %v is greater than max %v", *n.Min, *n.Max)
	case n.Type != domain.NodeTypeNumeric && (n.Min != nil || n.Max != nil):
		add(n.ID, true, "min and max only apply to numeric questions")
	}

	seen := make(map[string]bool, len(n.Options))
	for _, o := range n.Options {
		key := o.Value.String()
		if seen[key] {
			add(n.ID, false, "duplicate option value %q", key)
		}
		seen[key] = true
	}
	if n.Type == domain.NodeTypeSingleChoice {
		for _, o := range n.Options {
			if o.Exclusive {
				add(n.ID, true, "exclusive has no effect on single choice option %q", o.Label)
				break
			}
		}
	}
}

func writtenKeys(m *domain.Module) map[string]bool {
	keys := make(map[string]bool)
	for _, k := range m.RequiredData {
		keys[k] = true
	}
	for id, n := range m.Nodes {
		keys[id] = true
		if n.SaveTo != "" {
			keys[n.SaveTo] = true
		}
	}
	return keys
}

func canReachTop(n *domain.Node) bool {
	if n.Criticality == domain.TopSeverity {
		return true
	}
	for _, o := range n.Options {
		if o.RiskLevel == domain.TopSeverity {
			return true
		}
	}
	return false
}

func moduleID(m *domain.Module) string {
	if m == nil {
		return "<nil>"
	}
	return m.ID
}
