package layout

import (
	"testing"
	"time"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

func node(id goal.NodeID, created int, parents ...goal.NodeID) *goal.Node {
	return &goal.Node{
		ID:                 id,
		Label:              string(id),
		Status:             goal.StatusNotStarted,
		Parents:            parents,
		PercentageOfParent: 100,
		CreatedAt:          time.Date(2024, 1, 1, 0, 0, created, 0, time.UTC),
	}
}

func completedNode(id goal.NodeID, created int, parents ...goal.NodeID) *goal.Node {
	n := node(id, created, parents...)
	n.Status = goal.StatusCompleted
	t := n.CreatedAt
	n.CompletedAt = &t
	return n
}

func TestBuildHierarchy_Chain(t *testing.T) {
	slice := []*goal.Node{
		node("a", 1),
		node("b", 2, "a"),
		node("c", 3, "b"),
	}

	h := BuildHierarchy(slice)

	want := map[goal.NodeID]int{"a": 0, "b": 1, "c": 2}
	for id, level := range want {
		if h.NodeLevel[id] != level {
			t.Errorf("NodeLevel[%s] = %d, want %d", id, h.NodeLevel[id], level)
		}
	}
	if h.ActiveColumns != 3 {
		t.Errorf("ActiveColumns = %d, want 3", h.ActiveColumns)
	}
}

func TestBuildHierarchy_Diamond(t *testing.T) {
	slice := []*goal.Node{
		node("a", 1),
		node("b", 2, "a"),
		node("c", 3, "a"),
		node("d", 4, "b", "c"),
	}

	h := BuildHierarchy(slice)

	want := map[goal.NodeID]int{"a": 0, "b": 1, "c": 1, "d": 2}
	for id, level := range want {
		if h.NodeLevel[id] != level {
			t.Errorf("NodeLevel[%s] = %d, want %d", id, h.NodeLevel[id], level)
		}
	}
	if got := h.Levels[1]; len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Levels[1] = %v, want [b c]", got)
	}
}

func TestBuildHierarchy_Empty(t *testing.T) {
	h := BuildHierarchy(nil)

	if len(h.Levels) != 0 || len(h.NodeLevel) != 0 {
		t.Errorf("BuildHierarchy(nil) returned non-empty maps")
	}
	if h.ActiveColumns != 0 {
		t.Errorf("ActiveColumns = %d, want 0", h.ActiveColumns)
	}
}

func TestBuildHierarchy_ParentAlwaysAbove(t *testing.T) {
	slice := []*goal.Node{
		node("a", 1),
		node("b", 2, "a"),
		node("c", 3, "a"),
		node("d", 4, "b", "c"),
		node("e", 5, "a", "d"),
	}

	h := BuildHierarchy(slice)

	for _, n := range slice {
		for _, p := range n.Parents {
			if h.NodeLevel[n.ID] <= h.NodeLevel[p] {
				t.Errorf("level(%s) = %d, not greater than level(parent %s) = %d",
					n.ID, h.NodeLevel[n.ID], p, h.NodeLevel[p])
			}
		}
	}
}

func TestBuildHierarchy_OutOfSliceParentsIgnored(t *testing.T) {
	// b's second parent is not part of the slice and must not affect levels.
	slice := []*goal.Node{
		node("a", 1),
		node("b", 2, "a", "outside"),
	}

	h := BuildHierarchy(slice)

	if h.NodeLevel["a"] != 0 || h.NodeLevel["b"] != 1 {
		t.Errorf("levels = %v, want a:0 b:1", h.NodeLevel)
	}
}

func TestBuildHierarchy_Deterministic(t *testing.T) {
	slice := []*goal.Node{
		node("a", 1),
		node("b", 2, "a"),
		node("c", 3, "a"),
		node("d", 4, "b", "c"),
	}

	first := BuildHierarchy(slice)
	second := BuildHierarchy(slice)

	for id, level := range first.NodeLevel {
		if second.NodeLevel[id] != level {
			t.Errorf("NodeLevel[%s] differs across runs: %d vs %d", id, level, second.NodeLevel[id])
		}
	}
	for l, ids := range first.Levels {
		for i, id := range ids {
			if second.Levels[l][i] != id {
				t.Errorf("Levels[%d][%d] differs across runs: %s vs %s", l, i, id, second.Levels[l][i])
			}
		}
	}
}

func TestBuildHierarchy_CycleTerminates(t *testing.T) {
	// Mutual parents form a cycle. The relaxation must stop at its sweep cap
	// and still hand back an assignment for every node.
	slice := []*goal.Node{
		node("a", 1, "b"),
		node("b", 2, "a"),
	}

	h := BuildHierarchy(slice)

	if len(h.NodeLevel) != 2 {
		t.Errorf("NodeLevel has %d entries, want 2", len(h.NodeLevel))
	}
}

func TestBuildHierarchy_CompletedColumnsInactive(t *testing.T) {
	slice := []*goal.Node{
		completedNode("a", 1),
		completedNode("b", 2, "a"),
		node("c", 3, "b"),
	}

	h := BuildHierarchy(slice)

	if h.ActiveColumns != 1 {
		t.Errorf("ActiveColumns = %d, want 1", h.ActiveColumns)
	}
}

func TestBuildHierarchy_MixedColumnStaysActive(t *testing.T) {
	slice := []*goal.Node{
		node("a", 1),
		completedNode("b", 2, "a"),
		node("c", 3, "a"),
	}

	h := BuildHierarchy(slice)

	// Level 1 holds one completed and one open node, so it still counts.
	if h.ActiveColumns != 2 {
		t.Errorf("ActiveColumns = %d, want 2", h.ActiveColumns)
	}
}
