package runtime

import "github.com/aretw0/triage/pkg/domain"

// Progress is the percent-complete view of a session.
type Progress struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// EstimateTotalSteps returns the length of the longest path from start,
// following every branch target. Missing nodes count 0 and a back-edge into
// the active path counts 0, so cyclic graphs are undercounted but finite.
// The result is never below 1.
//
// The walk uses an explicit stack; the memo lives for this call only.
func EstimateTotalSteps(m *domain.Module, start string) int {
	type frame struct {
		id      string
		targets []string
		next    int
		best    int
	}

	memo := make(map[string]int)
	active := make(map[string]bool)

	var stack []*frame
	push := func(id string) bool {
		n, ok := m.Node(id)
		if !ok {
			return false
		}
		active[id] = true
		stack = append(stack, &frame{id: id, targets: n.Next.Targets()})
		return true
	}

	depth := 0
	if push(start) {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next < len(top.targets) {
				child := top.targets[top.next]
				top.next++
				if d, ok := memo[child]; ok {
					top.best = max(top.best, d)
					continue
				}
				if active[child] {
					continue
				}
				push(child)
				continue
			}

			d := 1 + top.best
			memo[top.id] = d
			delete(active, top.id)
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.best = max(parent.best, d)
			} else {
				depth = d
			}
		}
	}
	return max(depth, 1)
}

// ProgressOf computes the progress of s through m. The current step is
// len(history)+1 and the percentage is clamped to [0, 100].
func ProgressOf(m *domain.Module, s *domain.Session) Progress {
	total := EstimateTotalSteps(m, s.EntryNodeID)
	current := len(s.History) + 1
	pct := float64(current) / float64(total) * 100
	return Progress{
		Current: current,
		Total:   total,
		Percent: min(100, max(0, pct)),
	}
}
