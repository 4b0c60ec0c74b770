package layout

import "github.com/matzehuels/goalgraph/pkg/goal"

// DefaultMaxActiveColumns bounds how many active columns a sub-view may span
// before new nodes spill into a nested view.
const DefaultMaxActiveColumns = 6

// PartitionGraph assigns every node to a bounded sub-view.
//
// Nodes are visited once, in creation order. Each node is tentatively placed
// in the same sub-view as its first listed parent (or the main view if it has
// no parent, or its parent is not yet assigned). If that placement would push
// the sub-view past maxActiveColumns active columns and the node has a parent,
// the node is moved into the view keyed by that parent's ID instead - the
// drill-down view the user opens from the parent.
//
// The pass is strictly forward-only: an assignment is never revisited, even
// when a later node's insertion would have changed an earlier decision.
// Parentless nodes are never nested. Fully completed columns do not count
// against the budget, so finishing work frees width for new nodes.
//
// maxActiveColumns values below 1 fall back to DefaultMaxActiveColumns.
func PartitionGraph(doc *goal.Document, maxActiveColumns int) map[goal.NodeID]goal.GraphID {
	if maxActiveColumns < 1 {
		maxActiveColumns = DefaultMaxActiveColumns
	}

	assign := make(map[goal.NodeID]goal.GraphID, len(doc.Nodes))
	views := map[goal.GraphID][]*goal.Node{goal.MainGraph: nil}

	for _, n := range doc.OrderedNodes() {
		gid := goal.MainGraph
		if p := n.FirstParent(); p != "" {
			if g, ok := assign[p]; ok {
				gid = g
			}
		}

		views[gid] = append(views[gid], n)
		assign[n.ID] = gid

		h := BuildHierarchy(views[gid])
		if h.ActiveColumns > maxActiveColumns && n.FirstParent() != "" {
			views[gid] = views[gid][:len(views[gid])-1]
			nested := goal.GraphID(n.FirstParent())
			views[nested] = append(views[nested], n)
			assign[n.ID] = nested
		}
	}

	return assign
}

// SliceFor returns the nodes assigned to one sub-view, in creation order.
// This is the slice the hierarchy and positioner operate on when the view is
// active.
func SliceFor(doc *goal.Document, assign map[goal.NodeID]goal.GraphID, gid goal.GraphID) []*goal.Node {
	var out []*goal.Node
	for _, n := range doc.OrderedNodes() {
		if assign[n.ID] == gid {
			out = append(out, n)
		}
	}
	return out
}
