package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
)

// endID is the synthetic node every terminal question points to.
const endID = "__end"

// Overlay contains session state to highlight on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayOf returns the overlay for s: its history, and the current node
// while the session is still in progress.
func OverlayOf(s *domain.Session) *Overlay {
	if s == nil {
		return nil
	}
	o := &Overlay{Visited: slices.Clone(s.History)}
	if s.Status == domain.StatusInProgress || s.Status == domain.StatusCriticalStop {
		o.Current = s.CurrentNodeID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the module graph.
// Shapes follow the question type:
//   - entry: ((circle))
//   - critical stop: {{hexagon}}
//   - choice: [/parallelogram/]
//   - info: (rounded)
//   - others: [rectangle]
//
// Conditional edges carry the condition shorthand; the fallback is "else".
func GenerateMermaid(m *domain.Module, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entries := map[string]bool{m.Entry: true}
	for _, id := range m.Entries {
		entries[id] = true
	}

	hasEnd := false
	var critical []string
	for _, id := range m.NodeIDs() {
		n := m.Nodes[id]
		safeID := sanitizeID(id)

		opener, closer := "[", "]"
		switch {
		case entries[id]:
			opener, closer = "((", "))"
		case n.CriticalStop:
			opener, closer = "{{", "}}"
		case n.Type.IsChoice():
			opener, closer = "[/", "/]"
		case n.Type == domain.NodeTypeInfo:
			opener, closer = "(", ")"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label(n), closer)
		if n.CriticalStop || n.Criticality == domain.TopSeverity {
			critical = append(critical, safeID)
		}

		if n.Next.IsEnd() {
			hasEnd = true
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, endID)
			continue
		}
		if n.Next.To != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeID(n.Next.To))
		}
		for _, b := range n.Next.Branches {
			cond := "else"
			if b.When != nil {
				cond = strings.ReplaceAll(b.When.String(), "\"", "'")
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, cond, sanitizeID(b.To))
		}
	}
	if hasEnd {
		fmt.Fprintf(&sb, "    %s((\"end\"))\n", endID)
	}

	if len(critical) > 0 {
		sb.WriteString("\n    classDef critical stroke:#ef4444,stroke-width:3px;\n")
		for _, id := range critical {
			fmt.Fprintf(&sb, "    class %s critical;\n", id)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Session overlay\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			if _, ok := m.Node(id); !ok || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeID(id))
		}
		if _, ok := m.Node(overlay.Current); ok {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.Current))
		}
	}

	return sb.String()
}

func label(n *domain.Node) string {
	l := fmt.Sprintf("%s <br/> %s", n.ID, n.Type)
	if n.Criticality != domain.SeverityNone {
		l += " · " + n.Criticality.String()
	}
	return l
}

func sanitizeID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
