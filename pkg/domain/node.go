package domain

import (
	"fmt"
	"slices"
)

// NodeType selects the answer widget and the risk rule of a question.
type NodeType string

const (
	NodeTypeBoolean        NodeType = "boolean"
	NodeTypeNumeric        NodeType = "numeric"
	NodeTypeSingleChoice   NodeType = "single_choice"
	NodeTypeMultipleChoice NodeType = "multiple_choice"
	NodeTypeText           NodeType = "text"
	// NodeTypeInfo shows text and waits for an acknowledgement.
	NodeTypeInfo NodeType = "info"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeBoolean, NodeTypeNumeric, NodeTypeSingleChoice,
		NodeTypeMultipleChoice, NodeTypeText, NodeTypeInfo:
		return true
	}
	return false
}

// IsChoice reports whether answers are picked from Options.
func (t NodeType) IsChoice() bool {
	return t == NodeTypeSingleChoice || t == NodeTypeMultipleChoice
}

// Option is a selectable answer of a choice question.
type Option struct {
	Label     string   `json:"label"`
	Value     Value    `json:"value"`
	RiskLevel Severity `json:"riskLevel,omitempty"`
	// Exclusive deselects every other option ("none of the above").
	Exclusive bool `json:"exclusive,omitempty"`
}

// Branch is a conditional edge. A nil When always matches.
type Branch struct {
	To   string     `json:"to"`
	When *Condition `json:"when,omitempty"`
}

// Matches reports whether the branch is taken for data.
func (b Branch) Matches(data PatientData) bool {
	return b.When == nil || b.When.Evaluate(data)
}

// Next is the outgoing edge of a node: a single target or an ordered branch
// list. The zero value means end of flow.
type Next struct {
	To       string   `json:"to,omitempty"`
	Branches []Branch `json:"branches,omitempty"`
}

// Goto is an unconditional edge to id.
func Goto(id string) Next { return Next{To: id} }

// Branches is an ordered, first-match edge list.
func Branches(bs ...Branch) Next { return Next{Branches: bs} }

// IsEnd reports whether no edge is declared.
func (n Next) IsEnd() bool {
	return n.To == "" && len(n.Branches) == 0
}

// Targets lists every node id the edge may lead to, in declaration order.
func (n Next) Targets() []string {
	if n.To != "" {
		return []string{n.To}
	}
	out := make([]string, 0, len(n.Branches))
	for _, b := range n.Branches {
		if b.To != "" && !slices.Contains(out, b.To) {
			out = append(out, b.To)
		}
	}
	return out
}

// Node is a single question of a module graph.
type Node struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Type NodeType `json:"type"`

	// Numeric constraints.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Unit string   `json:"unit,omitempty"`

	Options []Option `json:"options,omitempty"`

	// Criticality is contributed when a boolean question is answered "yes",
	// or when any other non-choice question is answered at all.
	Criticality Severity `json:"criticality,omitempty"`
	// CriticalStop ends the flow when this answer leaves the session at the top level.
	CriticalStop bool `json:"criticalStop,omitempty"`

	// SaveTo copies the answer into patient data under an extra key.
	SaveTo string `json:"saveTo,omitempty"`

	Next Next `json:"next"`
}

// Option returns the option whose value equals v.
func (n *Node) Option(v Value) (Option, bool) {
	for _, o := range n.Options {
		if o.Value.Equal(v) {
			return o, true
		}
	}
	return Option{}, false
}

// NormalizeSelection drops duplicates and applies exclusivity: when any
// exclusive option is present only the last one submitted is kept.
func (n *Node) NormalizeSelection(selected []string) []string {
	out := make([]string, 0, len(selected))
	lastExclusive := ""
	for _, s := range selected {
		if o, ok := n.Option(StringValue(s)); ok && o.Exclusive {
			lastExclusive = s
		}
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if lastExclusive != "" {
		return []string{lastExclusive}
	}
	return out
}

// ToggleOption applies a click on value to the current selection the way a
// checkbox list does: exclusive options clear the rest, any other option
// clears the exclusive ones.
func (n *Node) ToggleOption(selection []string, value string) []string {
	if i := slices.Index(selection, value); i >= 0 {
		return slices.Delete(slices.Clone(selection), i, i+1)
	}
	if o, ok := n.Option(StringValue(value)); ok && o.Exclusive {
		return []string{value}
	}
	out := make([]string, 0, len(selection)+1)
	for _, s := range selection {
		if o, ok := n.Option(StringValue(s)); ok && o.Exclusive {
			continue
		}
		out = append(out, s)
	}
	return append(out, value)
}

// CheckAnswer validates the shape of v for this node. Presentation layers
// call it before submitting; the engine accepts whatever it is given.
func (n *Node) CheckAnswer(v Value) error {
	fail := func(format string, args ...any) error {
		return &AnswerError{NodeID: n.ID, Reason: fmt.Sprintf(format, args...)}
	}
	switch n.Type {
	case NodeTypeBoolean:
		if _, ok := v.AsBool(); !ok {
			return fail("expected yes or no, got %q", v.String())
		}
	case NodeTypeNumeric:
		f, ok := v.AsNumber()
		if !ok {
			return fail("expected a number, got %q", v.String())
		}
		if n.Min != nil && f < *n.Min {
			return fail("%v is below the minimum %v", f, *n.Min)
		}
		if n.Max != nil && f > *n.Max {
			return fail("%v is above the maximum %v", f, *n.Max)
		}
	case NodeTypeSingleChoice:
		if v.Kind() == KindList {
			return fail("expected a single option")
		}
		if _, ok := n.Option(v); !ok {
			return fail("unknown option %q", v.String())
		}
	case NodeTypeMultipleChoice:
		items, ok := v.AsList()
		if !ok {
			return fail("expected a list of options")
		}
		for _, item := range items {
			if _, ok := n.Option(StringValue(item)); !ok {
				return fail("unknown option %q", item)
			}
		}
	case NodeTypeText:
		if v.Kind() != KindString && !v.IsNull() {
			return fail("expected text")
		}
	}
	return nil
}
