package runtime

import "github.com/aretw0/triage/pkg/domain"

// normalizeAnswer applies node-type rules to a submitted value before it is
// recorded. Multiple-choice selections are deduplicated and exclusive options
// override the rest.
func normalizeAnswer(n *domain.Node, answer domain.Value) domain.Value {
	if n == nil || n.Type != domain.NodeTypeMultipleChoice {
		return answer
	}
	selected, ok := answer.AsList()
	if !ok {
		return answer
	}
	return domain.ListValue(n.NormalizeSelection(selected)...)
}

// ContributedRisk is the severity an answer adds on its own, before the
// caller-supplied level is combined in.
//
//   - boolean: Criticality when the answer is affirmative.
//   - single_choice: the chosen option's level.
//   - multiple_choice: the highest level among selected options.
//   - info: the acknowledged option's level, else Criticality.
//   - numeric and text: Criticality, when the node is tagged with one.
func ContributedRisk(n *domain.Node, answer domain.Value) domain.Severity {
	if n == nil || answer.IsNull() {
		return domain.SeverityNone
	}
	switch n.Type {
	case domain.NodeTypeBoolean:
		if answer.Truthy() {
			return n.Criticality
		}
		return domain.SeverityNone
	case domain.NodeTypeSingleChoice:
		if o, ok := n.Option(answer); ok {
			return o.RiskLevel
		}
		return domain.SeverityNone
	case domain.NodeTypeMultipleChoice:
		selected, _ := answer.AsList()
		level := domain.SeverityNone
		for _, s := range selected {
			if o, ok := n.Option(domain.StringValue(s)); ok {
				level = domain.Combine(level, o.RiskLevel)
			}
		}
		return level
	case domain.NodeTypeInfo:
		if o, ok := n.Option(answer); ok && o.RiskLevel != domain.SeverityNone {
			return o.RiskLevel
		}
		return n.Criticality
	}
	return n.Criticality
}
