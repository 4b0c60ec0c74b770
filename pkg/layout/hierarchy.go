package layout

import "github.com/matzehuels/goalgraph/pkg/goal"

// Hierarchy is the level assignment for one graph slice.
//
// Levels maps each level index to its nodes in input order; NodeLevel is the
// inverse lookup. ActiveColumns counts the levels whose node set is not
// entirely Completed - fully completed columns are collapsed by the UI and do
// not count against a sub-view's width budget.
type Hierarchy struct {
	Levels        map[int][]goal.NodeID
	NodeLevel     map[goal.NodeID]int
	ActiveColumns int
}

// BuildHierarchy computes sink-anchored longest-path levels for the slice.
//
// Each node's distance to its farthest in-slice terminal is relaxed to a
// fixpoint, then inverted so prerequisite-free chains start at level 0 and
// terminal nodes share the maximum level. Parent references pointing outside
// the slice are ignored. The relaxation stops after len(slice)+5 sweeps even
// if values are still changing, so a cycle degrades the result instead of
// hanging; no attempt is made to detect or report one.
//
// An empty slice yields empty maps and zero active columns. Ties within a
// level keep the slice's input order, which callers make deterministic by
// passing nodes in creation order.
func BuildHierarchy(slice []*goal.Node) Hierarchy {
	h := Hierarchy{
		Levels:    make(map[int][]goal.NodeID),
		NodeLevel: make(map[goal.NodeID]int),
	}
	if len(slice) == 0 {
		return h
	}

	member := make(map[goal.NodeID]*goal.Node, len(slice))
	for _, n := range slice {
		member[n.ID] = n
	}

	// In-slice child adjacency, derived from the parent arrays.
	children := make(map[goal.NodeID][]goal.NodeID, len(slice))
	for _, n := range slice {
		for _, p := range n.Parents {
			if _, ok := member[p]; ok {
				children[p] = append(children[p], n.ID)
			}
		}
	}

	depth := make(map[goal.NodeID]int, len(slice))
	for sweep := 0; sweep < len(slice)+5; sweep++ {
		changed := false
		for _, n := range slice {
			v := 0
			for _, c := range children[n.ID] {
				if depth[c]+1 > v {
					v = depth[c] + 1
				}
			}
			if v != depth[n.ID] {
				depth[n.ID] = v
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	maxDepth := 0
	for _, v := range depth {
		if v > maxDepth {
			maxDepth = v
		}
	}

	for _, n := range slice {
		level := maxDepth - depth[n.ID]
		h.NodeLevel[n.ID] = level
		h.Levels[level] = append(h.Levels[level], n.ID)
	}

	for _, ids := range h.Levels {
		for _, id := range ids {
			if !member[id].Completed() {
				h.ActiveColumns++
				break
			}
		}
	}

	return h
}
