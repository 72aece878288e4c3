package dsl

import (
	"fmt"
	"slices"

	"github.com/aretw0/triage/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a question.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
	errs    []error
}

func (n *NodeBuilder) ask(t domain.NodeType, text string) *NodeBuilder {
	n.node.Type = t
	n.node.Text = text
	return n
}

// Boolean makes a yes/no question.
func (n *NodeBuilder) Boolean(text string) *NodeBuilder {
	return n.ask(domain.NodeTypeBoolean, text)
}

// Numeric makes a numeric question bounded by [lo, hi].
func (n *NodeBuilder) Numeric(text string, lo, hi float64, unit string) *NodeBuilder {
	n.node.Min = &lo
	n.node.Max = &hi
	n.node.Unit = unit
	return n.ask(domain.NodeTypeNumeric, text)
}

// SingleChoice makes a pick-one question. Add options with Option.
func (n *NodeBuilder) SingleChoice(text string) *NodeBuilder {
	return n.ask(domain.NodeTypeSingleChoice, text)
}

// MultipleChoice makes a pick-many question. Add options with Option.
func (n *NodeBuilder) MultipleChoice(text string) *NodeBuilder {
	return n.ask(domain.NodeTypeMultipleChoice, text)
}

// Text makes a free-text question.
func (n *NodeBuilder) Text(text string) *NodeBuilder {
	return n.ask(domain.NodeTypeText, text)
}

// Info makes an informational screen the user acknowledges.
func (n *NodeBuilder) Info(text string) *NodeBuilder {
	return n.ask(domain.NodeTypeInfo, text)
}

// Option appends a choice carrying the given risk level.
func (n *NodeBuilder) Option(label string, value any, risk domain.Severity) *NodeBuilder {
	return n.addOption(label, value, risk, false)
}

// Exclusive appends a "none of the above" style option.
func (n *NodeBuilder) Exclusive(label string, value any) *NodeBuilder {
	return n.addOption(label, value, domain.SeverityNone, true)
}

func (n *NodeBuilder) addOption(label string, value any, risk domain.Severity, exclusive bool) *NodeBuilder {
	v, err := domain.ValueOf(value)
	if err != nil {
		n.errs = append(n.errs, fmt.Errorf("node %s option %q: %w", n.node.ID, label, err))
		return n
	}
	n.node.Options = append(n.node.Options, domain.Option{
		Label:     label,
		Value:     v,
		RiskLevel: risk,
		Exclusive: exclusive,
	})
	return n
}

// Criticality sets the severity a "yes" contributes.
func (n *NodeBuilder) Criticality(level domain.Severity) *NodeBuilder {
	n.node.Criticality = level
	return n
}

// CriticalStop ends the flow when an answer here reaches the top severity.
func (n *NodeBuilder) CriticalStop() *NodeBuilder {
	n.node.CriticalStop = true
	return n
}

// SaveTo copies the answer into patient data under key.
func (n *NodeBuilder) SaveTo(key string) *NodeBuilder {
	n.node.SaveTo = key
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.node.Next = domain.Goto(target)
	return n
}

// Branch adds a conditional transition. expr uses the condition shorthand,
// e.g. "ageMonths ?? 0 < 3 && temp >= 38".
func (n *NodeBuilder) Branch(expr string, target string) *NodeBuilder {
	c, err := domain.ParseCondition(expr)
	if err != nil {
		n.errs = append(n.errs, fmt.Errorf("node %s branch to %s: %w", n.node.ID, target, err))
		return n
	}
	return n.When(c, target)
}

// When adds a transition guarded by a structured condition.
func (n *NodeBuilder) When(c domain.Condition, target string) *NodeBuilder {
	n.node.Next.Branches = append(n.node.Next.Branches, domain.Branch{To: target, When: &c})
	return n
}

// Otherwise adds the fallback branch, taken when no earlier branch matched.
func (n *NodeBuilder) Otherwise(target string) *NodeBuilder {
	n.node.Next.Branches = append(n.node.Next.Branches, domain.Branch{To: target})
	return n
}

// Terminal marks the node as the end of the flow.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Next = domain.Next{}
	return n
}

// Add starts the next node on the same module.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// Build returns a copy of the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	out := n.node
	out.Options = slices.Clone(n.node.Options)
	out.Next.Branches = slices.Clone(n.node.Next.Branches)
	return out
}
