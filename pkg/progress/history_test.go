package progress

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func node(id goal.NodeID, pct float64, parents ...goal.NodeID) *goal.Node {
	return &goal.Node{
		ID:                 id,
		Label:              string(id),
		Status:             goal.StatusNotStarted,
		Parents:            parents,
		PercentageOfParent: pct,
		CreatedAt:          day(1),
	}
}

func completed(n *goal.Node, at time.Time) *goal.Node {
	n.Status = goal.StatusCompleted
	n.CompletedAt = &at
	return n
}

func docWith(nodes ...*goal.Node) *goal.Document {
	d := goal.NewDocument()
	for _, n := range nodes {
		d.Nodes[n.ID] = n
	}
	return d
}

func TestCalculate_SingleEndNode(t *testing.T) {
	d := docWith(completed(node("E", 100), day(2)))

	history := Calculate(d, day(2))

	stats, ok := history["2024-01-02"]
	if !ok {
		t.Fatalf("no entry for 2024-01-02, history = %v", history)
	}
	if len(stats.CompletedNodeIDs) != 1 || stats.CompletedNodeIDs[0] != "E" {
		t.Errorf("CompletedNodeIDs = %v, want [E]", stats.CompletedNodeIDs)
	}
	if stats.TotalPercentageComplete != 100 {
		t.Errorf("TotalPercentageComplete = %v, want 100", stats.TotalPercentageComplete)
	}
	if stats.DailyGain != 100 {
		t.Errorf("DailyGain = %v, want 100", stats.DailyGain)
	}
}

func TestCalculate_EndNodesNormalizeTo100(t *testing.T) {
	d := docWith(
		completed(node("a", 30), day(2)),
		completed(node("b", 50), day(2)),
		completed(node("c", 40), day(2)),
	)

	history := Calculate(d, day(2))

	total := history["2024-01-02"].TotalPercentageComplete
	if math.Abs(total-100) > 1e-9 {
		t.Errorf("total with all end nodes complete = %v, want 100", total)
	}
}

func TestCalculate_QuietDaysCarryForward(t *testing.T) {
	d := docWith(
		completed(node("a", 50), day(1)),
		completed(node("b", 50), day(3)),
	)

	history := Calculate(d, day(3))

	if len(history) != 3 {
		t.Fatalf("history has %d entries, want 3", len(history))
	}
	d2 := history["2024-01-02"]
	if d2.TotalPercentageComplete != 50 {
		t.Errorf("day 2 total = %v, want 50", d2.TotalPercentageComplete)
	}
	if d2.DailyGain != 0 {
		t.Errorf("day 2 gain = %v, want 0", d2.DailyGain)
	}
	d3 := history["2024-01-03"]
	if d3.TotalPercentageComplete != 100 || d3.DailyGain != 50 {
		t.Errorf("day 3 = %+v, want total 100 gain 50", d3)
	}
}

func TestCalculate_InternalNodeBroadcastsOwnWeight(t *testing.T) {
	// P carries 50% and has two end-node children weighted 60 and 40.
	// P's absolute share uses P's own weight for both children:
	// (60 * 50/100) + (40 * 50/100) = 50.
	d := docWith(
		completed(node("P", 50), day(2)),
		node("C1", 60, "P"),
		node("C2", 40, "P"),
	)

	history := Calculate(d, day(2))

	total := history["2024-01-02"].TotalPercentageComplete
	if math.Abs(total-50) > 1e-9 {
		t.Errorf("total with only P complete = %v, want 50", total)
	}
}

func TestCalculate_NoCompletions(t *testing.T) {
	d := docWith(node("a", 100))

	if history := Calculate(d, day(5)); len(history) != 0 {
		t.Errorf("history = %v, want empty", history)
	}
}

func TestCalculate_ZeroWeightEndNodes(t *testing.T) {
	d := docWith(completed(node("a", 0), day(1)))

	if history := Calculate(d, day(1)); len(history) != 0 {
		t.Errorf("history = %v, want empty (no normalization scale)", history)
	}
}

func TestCalculate_UncompletingRewritesPast(t *testing.T) {
	a := completed(node("a", 50), day(1))
	b := completed(node("b", 50), day(2))
	d := docWith(a, b)

	before := Calculate(d, day(2))
	if before["2024-01-01"].TotalPercentageComplete != 50 {
		t.Fatalf("day 1 total = %v, want 50", before["2024-01-01"].TotalPercentageComplete)
	}

	a.Status = goal.StatusInProgress
	a.CompletedAt = nil

	after := Calculate(d, day(2))
	if after["2024-01-01"].TotalPercentageComplete != 0 {
		t.Errorf("day 1 total after un-complete = %v, want 0", after["2024-01-01"].TotalPercentageComplete)
	}
	if after["2024-01-02"].TotalPercentageComplete != 50 {
		t.Errorf("day 2 total after un-complete = %v, want 50", after["2024-01-02"].TotalPercentageComplete)
	}
}
