package runtime

import "github.com/aretw0/triage/pkg/domain"

// ResolveNext picks the node that follows n for the given snapshot.
// An unconditional edge wins outright. Otherwise branches are tried in
// declaration order and the first match is taken. An empty result means
// the flow ends at n.
func ResolveNext(n *domain.Node, snapshot domain.PatientData) string {
	if n == nil {
		return ""
	}
	if n.Next.To != "" {
		return n.Next.To
	}
	for _, b := range n.Next.Branches {
		if b.Matches(snapshot) {
			return b.To
		}
	}
	return ""
}
