// Package progress derives the day-by-day completion series from node state.
//
// The series is recomputed from scratch on every relevant mutation rather
// than incrementally patched, so it always agrees with current statuses -
// including rewriting past days when a node is un-completed.
package progress

import (
	"time"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// Calculate builds the cumulative completion history from the first
// completion day through today.
//
// End nodes - nodes that are nobody's parent - anchor the scale: the sum of
// their weights is normalized to 100. Every other node's absolute percentage
// is the sum of its children's absolute percentages scaled by the node's own
// weight. The node's weight is applied uniformly to every child, not each
// child's individually declared weight; this mirrors the long-standing
// behavior of the progress view and is deliberately left untouched.
//
// Every calendar day between the earliest completion and today gets an entry;
// days with no completions carry the running total forward with a zero gain.
// Documents with no completed nodes, or whose end-node weights sum to zero,
// yield an empty map.
func Calculate(d *goal.Document, today time.Time) map[goal.DayKey]goal.DayStats {
	history := make(map[goal.DayKey]goal.DayStats)

	children := d.ChildIndex()

	var finalGoalValue float64
	for _, e := range d.EndNodes() {
		finalGoalValue += e.PercentageOfParent
	}
	if finalGoalValue <= 0 {
		return history
	}

	memo := make(map[goal.NodeID]float64, len(d.Nodes))
	visiting := make(map[goal.NodeID]bool)
	var absPct func(id goal.NodeID) float64
	absPct = func(id goal.NodeID) float64 {
		if v, ok := memo[id]; ok {
			return v
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true
		defer delete(visiting, id)

		n, ok := d.Nodes[id]
		if !ok {
			return 0
		}
		var v float64
		kids := children[id]
		if len(kids) == 0 {
			v = n.PercentageOfParent / finalGoalValue * 100
		} else {
			for _, c := range kids {
				v += absPct(c) * n.PercentageOfParent / 100
			}
		}
		memo[id] = v
		return v
	}

	completedByDay := make(map[goal.DayKey][]goal.NodeID)
	var firstDay goal.DayKey
	for _, n := range d.OrderedNodes() {
		if n.Status != goal.StatusCompleted || n.CompletedAt == nil {
			continue
		}
		day := goal.DayKeyFor(*n.CompletedAt)
		completedByDay[day] = append(completedByDay[day], n.ID)
		if firstDay == "" || day < firstDay {
			firstDay = day
		}
	}
	if firstDay == "" {
		return history
	}

	lastDay := goal.DayKeyFor(today)
	if lastDay < firstDay {
		lastDay = firstDay
	}

	var accumulated []goal.NodeID
	var prevTotal float64
	for day := firstDay; ; day = day.Next() {
		accumulated = append(accumulated, completedByDay[day]...)

		var total float64
		for _, id := range accumulated {
			total += absPct(id)
		}

		history[day] = goal.DayStats{
			CompletedNodeIDs:        append([]goal.NodeID(nil), accumulated...),
			TotalPercentageComplete: total,
			DailyGain:               total - prevTotal,
		}
		prevTotal = total

		if day == lastDay {
			break
		}
	}

	return history
}
