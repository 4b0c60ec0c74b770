package layout

import (
	"fmt"
	"testing"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

func docWith(nodes ...*goal.Node) *goal.Document {
	d := goal.NewDocument()
	for _, n := range nodes {
		d.Nodes[n.ID] = n
	}
	return d
}

// chainDoc builds n1 <- n2 <- ... <- nk with ascending creation times.
func chainDoc(k int) *goal.Document {
	d := goal.NewDocument()
	var prev goal.NodeID
	for i := 1; i <= k; i++ {
		id := goal.NodeID(fmt.Sprintf("n%d", i))
		var parents []goal.NodeID
		if prev != "" {
			parents = []goal.NodeID{prev}
		}
		d.Nodes[id] = node(id, i, parents...)
		prev = id
	}
	return d
}

func TestPartitionGraph_WithinBudgetStaysMain(t *testing.T) {
	d := chainDoc(6)

	assign := PartitionGraph(d, 6)

	for id, gid := range assign {
		if gid != goal.MainGraph {
			t.Errorf("assign[%s] = %s, want main", id, gid)
		}
	}
}

func TestPartitionGraph_OverflowNestsIntoParent(t *testing.T) {
	d := chainDoc(8)

	assign := PartitionGraph(d, 6)

	for i := 1; i <= 6; i++ {
		id := goal.NodeID(fmt.Sprintf("n%d", i))
		if assign[id] != goal.MainGraph {
			t.Errorf("assign[%s] = %s, want main", id, assign[id])
		}
	}
	// n7 would make main span 7 active columns, so it nests under its parent.
	if assign["n7"] != goal.GraphID("n6") {
		t.Errorf("assign[n7] = %s, want n6", assign["n7"])
	}
	// n8 follows its first parent's assignment.
	if assign["n8"] != goal.GraphID("n6") {
		t.Errorf("assign[n8] = %s, want n6", assign["n8"])
	}
}

func TestPartitionGraph_CompletedColumnsFreeBudget(t *testing.T) {
	d := chainDoc(8)
	for _, id := range []goal.NodeID{"n1", "n2", "n3"} {
		n := d.Nodes[id]
		n.Status = goal.StatusCompleted
		ts := n.CreatedAt
		n.CompletedAt = &ts
	}

	assign := PartitionGraph(d, 6)

	// Three fully completed columns no longer count, so the whole chain fits.
	for id, gid := range assign {
		if gid != goal.MainGraph {
			t.Errorf("assign[%s] = %s, want main", id, gid)
		}
	}
}

func TestPartitionGraph_ParentlessNeverNested(t *testing.T) {
	d := docWith(
		node("r1", 1),
		node("r2", 2),
		node("r3", 3),
		node("c1", 4, "r1"),
	)

	assign := PartitionGraph(d, 6)

	for _, id := range []goal.NodeID{"r1", "r2", "r3"} {
		if assign[id] != goal.MainGraph {
			t.Errorf("assign[%s] = %s, want main", id, assign[id])
		}
	}
}

func TestPartitionGraph_BoundHolds(t *testing.T) {
	d := chainDoc(20)

	assign := PartitionGraph(d, 6)

	views := make(map[goal.GraphID]bool)
	for _, gid := range assign {
		views[gid] = true
	}
	for gid := range views {
		h := BuildHierarchy(SliceFor(d, assign, gid))
		if h.ActiveColumns > 6 {
			t.Errorf("view %s spans %d active columns, want <= 6", gid, h.ActiveColumns)
		}
	}
}

func TestPartitionGraph_ForwardOnly(t *testing.T) {
	// Re-running over the same document yields the identical assignment.
	d := chainDoc(15)

	first := PartitionGraph(d, 6)
	second := PartitionGraph(d, 6)

	for id, gid := range first {
		if second[id] != gid {
			t.Errorf("assign[%s] differs across runs: %s vs %s", id, gid, second[id])
		}
	}
}

func TestSliceFor_FiltersAndOrders(t *testing.T) {
	d := chainDoc(8)
	assign := PartitionGraph(d, 6)

	slice := SliceFor(d, assign, goal.GraphID("n6"))

	if len(slice) != 2 || slice[0].ID != "n7" || slice[1].ID != "n8" {
		ids := make([]goal.NodeID, len(slice))
		for i, n := range slice {
			ids[i] = n.ID
		}
		t.Errorf("SliceFor(n6) = %v, want [n7 n8]", ids)
	}
}
