package goal

import (
	"fmt"
	"time"
)

// NodeID uniquely identifies a node within a document.
type NodeID string

// GraphID names a bounded sub-view. It is either MainGraph or the ID of the
// node the user drills into to reveal the sub-view.
type GraphID string

// MainGraph is the top-level sub-view every document starts with.
const MainGraph GraphID = "main"

// Status is the completion state of a node. It is a closed set; code that
// switches on Status should handle every constant explicitly.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ErrInvalidStatus is returned by mutations that receive a status outside the
// closed set of Status constants.
var ErrInvalidStatus = fmt.Errorf("invalid node status")

// Node is a single goal or task in the document.
//
// Parents lists prerequisite node IDs. References to nodes that no longer
// exist are tolerated everywhere and silently skipped; use
// [Document.PruneDanglingParents] to drop them permanently.
//
// CompletedAt is set exactly when Status is StatusCompleted and cleared
// otherwise. PercentageOfParent is the node's weight within its parent slice,
// in the range 0-100.
type Node struct {
	ID                 NodeID     `json:"id" bson:"id"`
	Type               string     `json:"type,omitempty" bson:"type,omitempty"`
	Label              string     `json:"label" bson:"label"`
	Status             Status     `json:"status" bson:"status"`
	Parents            []NodeID   `json:"parents,omitempty" bson:"parents,omitempty"`
	PercentageOfParent float64    `json:"percentage_of_parent" bson:"percentage_of_parent"`
	ScheduledStart     *time.Time `json:"scheduled_start,omitempty" bson:"scheduled_start,omitempty"`
	ScheduledEnd       *time.Time `json:"scheduled_end,omitempty" bson:"scheduled_end,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
}

// Completed reports whether the node's status is StatusCompleted.
func (n *Node) Completed() bool { return n.Status == StatusCompleted }

// HasParent reports whether id appears in the node's parents list.
func (n *Node) HasParent(id NodeID) bool {
	for _, p := range n.Parents {
		if p == id {
			return true
		}
	}
	return false
}

// FirstParent returns the first listed parent, or "" if the node has none.
func (n *Node) FirstParent() NodeID {
	if len(n.Parents) == 0 {
		return ""
	}
	return n.Parents[0]
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Parents = append([]NodeID(nil), n.Parents...)
	if n.ScheduledStart != nil {
		t := *n.ScheduledStart
		c.ScheduledStart = &t
	}
	if n.ScheduledEnd != nil {
		t := *n.ScheduledEnd
		c.ScheduledEnd = &t
	}
	if n.CompletedAt != nil {
		t := *n.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// DayKey identifies one calendar day in "YYYY-MM-DD" form.
type DayKey string

// DayKeyFor returns the day key for t in t's own location.
func DayKeyFor(t time.Time) DayKey {
	return DayKey(t.Format("2006-01-02"))
}

// Time parses the day key back into a midnight UTC timestamp.
func (k DayKey) Time() (time.Time, error) {
	return time.Parse("2006-01-02", string(k))
}

// Next returns the key for the following calendar day.
func (k DayKey) Next() DayKey {
	t, err := k.Time()
	if err != nil {
		return k
	}
	return DayKeyFor(t.AddDate(0, 0, 1))
}

// DayStats records cumulative completion progress for one calendar day.
// Entries are fully recomputed from node state, so un-completing a node
// rewrites past days rather than appending a correction.
type DayStats struct {
	CompletedNodeIDs        []NodeID `json:"completed_node_ids" bson:"completed_node_ids"`
	TotalPercentageComplete float64  `json:"total_percentage_complete" bson:"total_percentage_complete"`
	DailyGain               float64  `json:"daily_gain" bson:"daily_gain"`
}

// Viewport stores the user's pan/zoom state for the active sub-view.
type Viewport struct {
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
	Zoom float64 `json:"zoom" bson:"zoom"`
}
