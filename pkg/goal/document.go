package goal

import (
	"errors"
	"slices"
)

var (
	// ErrNodeNotFound is returned by mutations that reference a node ID not
	// present in the document.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when adding a node whose ID already exists.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrCycleDetected is returned when a relationship would close a cycle in
	// the prerequisite relation, or when DetectCycle finds an existing one.
	ErrCycleDetected = errors.New("graph contains a cycle")
)

// Document is the root record: every node, the viewport, and the derived
// progress history. It is persisted as one unit, never row-per-node.
type Document struct {
	Nodes    map[NodeID]*Node    `json:"nodes" bson:"nodes"`
	Viewport Viewport            `json:"viewport" bson:"viewport"`
	History  map[DayKey]DayStats `json:"historical_progress" bson:"historical_progress"`
}

// NewDocument returns an empty document with initialized maps.
func NewDocument() *Document {
	return &Document{
		Nodes:    make(map[NodeID]*Node),
		Viewport: Viewport{Zoom: 1},
		History:  make(map[DayKey]DayStats),
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		Nodes:    make(map[NodeID]*Node, len(d.Nodes)),
		Viewport: d.Viewport,
		History:  make(map[DayKey]DayStats, len(d.History)),
	}
	for id, n := range d.Nodes {
		c.Nodes[id] = n.Clone()
	}
	for k, s := range d.History {
		s.CompletedNodeIDs = append([]NodeID(nil), s.CompletedNodeIDs...)
		c.History[k] = s
	}
	return c
}

// Node returns the node with the given ID.
func (d *Document) Node(id NodeID) (*Node, bool) {
	n, ok := d.Nodes[id]
	return n, ok
}

// OrderedNodes returns all nodes sorted by creation time, ties broken by ID.
// Every derived computation walks nodes in this order so results are
// deterministic across runs.
func (d *Document) OrderedNodes() []*Node {
	nodes := make([]*Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.Before(b.CreatedAt) {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return nodes
}

// ChildIndex builds the inverse of the parent relation: for every node, the
// IDs of nodes that list it as a parent, in creation order. Dangling parent
// references contribute nothing.
func (d *Document) ChildIndex() map[NodeID][]NodeID {
	children := make(map[NodeID][]NodeID, len(d.Nodes))
	for _, n := range d.OrderedNodes() {
		for _, p := range n.Parents {
			if _, ok := d.Nodes[p]; ok {
				children[p] = append(children[p], n.ID)
			}
		}
	}
	return children
}

// EndNodes returns the nodes that are nobody's parent, in creation order.
// These are the terminal goals that progress is normalized against.
func (d *Document) EndNodes() []*Node {
	children := d.ChildIndex()
	var ends []*Node
	for _, n := range d.OrderedNodes() {
		if len(children[n.ID]) == 0 {
			ends = append(ends, n)
		}
	}
	return ends
}

// PruneDanglingParents removes parent references that no longer resolve to a
// node in the document. Missing references are an input anomaly, not an
// error, so this never fails.
func (d *Document) PruneDanglingParents() {
	for _, n := range d.Nodes {
		n.Parents = slices.DeleteFunc(n.Parents, func(p NodeID) bool {
			_, ok := d.Nodes[p]
			return !ok
		})
	}
}

// WouldCycle reports whether appending source to target's parents would close
// a cycle in the prerequisite relation. That is the case when target already
// sits somewhere in source's ancestor chain, or when source and target are the
// same node.
func (d *Document) WouldCycle(source, target NodeID) bool {
	if source == target {
		return true
	}
	seen := make(map[NodeID]bool)
	stack := []NodeID{source}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := d.Nodes[id]
		if !ok {
			continue
		}
		for _, p := range n.Parents {
			if p == target {
				return true
			}
			stack = append(stack, p)
		}
	}
	return false
}

// DetectCycle checks the whole prerequisite relation and returns
// ErrCycleDetected if any directed cycle exists. Detection uses depth-first
// search with white/gray/black coloring over child edges.
func (d *Document) DetectCycle() error {
	const (
		white = iota
		gray
		black
	)

	children := d.ChildIndex()
	color := make(map[NodeID]int, len(d.Nodes))
	var hasCycle bool

	var dfs func(id NodeID)
	dfs = func(id NodeID) {
		color[id] = gray
		for _, c := range children[id] {
			switch color[c] {
			case white:
				dfs(c)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, n := range d.OrderedNodes() {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrCycleDetected
			}
		}
	}
	return nil
}

// Descendants returns every node reachable from id via child edges, not
// including id itself, in breadth-first wavefront order. This is the set a
// completion or deletion cascade touches.
func (d *Document) Descendants(id NodeID) []NodeID {
	children := d.ChildIndex()
	seen := map[NodeID]bool{id: true}
	var out []NodeID
	queue := []NodeID{id}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, c := range children[curr] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
