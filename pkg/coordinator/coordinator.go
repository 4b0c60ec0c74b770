// Package coordinator owns the goal document and serializes every mutation.
//
// The coordinator is the only writer of the document. Each mutation applies
// optimistically to local state, recomputes the derived artifacts (sub-view
// partition, positions, progress history), and then persists the whole
// document to the store. Inbound realtime changes re-enter through the same
// recompute path unless their origin token matches this coordinator's client
// ID, in which case they are self-echoes and dropped.
//
// Remote write failures are returned as coded errors and logged; the local
// optimistic state is deliberately not rolled back, so the document may
// diverge from the store until the next successful write or refetch.
package coordinator

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	gerrors "github.com/matzehuels/goalgraph/pkg/errors"
	"github.com/matzehuels/goalgraph/pkg/goal"
	"github.com/matzehuels/goalgraph/pkg/layout"
	"github.com/matzehuels/goalgraph/pkg/observability"
	"github.com/matzehuels/goalgraph/pkg/progress"
	"github.com/matzehuels/goalgraph/pkg/store"
)

// View is what the UI collaborator receives after every recompute: positions
// for the active sub-view, the full node-to-sub-view assignment, and the
// progress history. All maps are copies and safe to retain.
type View struct {
	ActiveGraph goal.GraphID                    `json:"active_graph"`
	Positions   map[goal.NodeID]layout.Position `json:"positions"`
	Graphs      map[goal.NodeID]goal.GraphID    `json:"graphs"`
	History     map[goal.DayKey]goal.DayStats   `json:"history"`
}

// Config configures a Coordinator. Store is required; everything else has a
// usable default.
type Config struct {
	Store    store.Store
	Measurer layout.Measurer // defaults to a fresh EstimateMeasurer
	Logger   *log.Logger     // defaults to a silent logger
	ClientID string          // defaults to a random UUID; used as the write origin token

	MaxActiveColumns int            // defaults to layout.DefaultMaxActiveColumns
	Layout           layout.Options // zero values use the layout defaults

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Coordinator wires the store, the measurer, and the derived-state pipeline
// around a single document. All state lives on the struct; there are no
// package-level caches.
type Coordinator struct {
	mu sync.Mutex

	st       store.Store
	measurer layout.Measurer
	logger   *log.Logger
	clientID string
	maxCols  int
	layOpts  layout.Options
	now      func() time.Time

	doc         *goal.Document
	activeGraph goal.GraphID
	assign      map[goal.NodeID]goal.GraphID
	positions   map[goal.NodeID]layout.Position

	onUpdate func(View)
	unsub    store.Unsubscribe
}

// New creates a coordinator. Call Start to load the document and begin
// receiving remote changes.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, gerrors.New(gerrors.ErrCodeInternal, "coordinator requires a store")
	}
	if cfg.Measurer == nil {
		cfg.Measurer = layout.NewEstimateMeasurer()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	if cfg.MaxActiveColumns < 1 {
		cfg.MaxActiveColumns = layout.DefaultMaxActiveColumns
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		st:          cfg.Store,
		measurer:    cfg.Measurer,
		logger:      cfg.Logger,
		clientID:    cfg.ClientID,
		maxCols:     cfg.MaxActiveColumns,
		layOpts:     cfg.Layout,
		now:         cfg.Now,
		doc:         goal.NewDocument(),
		activeGraph: goal.MainGraph,
	}, nil
}

// ClientID returns the origin token this coordinator stamps on its writes.
func (c *Coordinator) ClientID() string { return c.clientID }

// OnUpdate registers the UI collaborator's callback. It is invoked after
// every recompute, outside the coordinator's lock.
func (c *Coordinator) OnUpdate(fn func(View)) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Start fetches the document and subscribes to remote changes.
func (c *Coordinator) Start(ctx context.Context) error {
	doc, err := c.st.Fetch(ctx)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeSyncFetch, err, "load document")
	}

	c.mu.Lock()
	c.doc = doc
	c.doc.PruneDanglingParents()
	c.recompute(ctx)
	c.mu.Unlock()

	unsub, err := c.st.Subscribe(ctx, func(ch store.Change) { c.handleChange(ctx, ch) })
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeSyncSubscribe, err, "subscribe to changes")
	}
	c.mu.Lock()
	c.unsub = unsub
	c.mu.Unlock()

	c.notify()
	return nil
}

// Stop detaches from the store's change feed.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Document returns a deep copy of the current document.
func (c *Coordinator) Document() *goal.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// View returns the current derived state for the active sub-view.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Coordinator) viewLocked() View {
	v := View{
		ActiveGraph: c.activeGraph,
		Positions:   make(map[goal.NodeID]layout.Position, len(c.positions)),
		Graphs:      make(map[goal.NodeID]goal.GraphID, len(c.assign)),
		History:     make(map[goal.DayKey]goal.DayStats, len(c.doc.History)),
	}
	for id, p := range c.positions {
		v.Positions[id] = p
	}
	for id, g := range c.assign {
		v.Graphs[id] = g
	}
	for k, s := range c.doc.History {
		s.CompletedNodeIDs = append([]goal.NodeID(nil), s.CompletedNodeIDs...)
		v.History[k] = s
	}
	return v
}

// SetActiveGraph switches the drill-down view and relays out its slice.
func (c *Coordinator) SetActiveGraph(gid goal.GraphID) {
	c.mu.Lock()
	c.activeGraph = gid
	c.relayout(context.Background())
	c.mu.Unlock()
	c.notify()
}

// ObserveSize records a rendered node size and runs the corrective layout
// pass. Sizes outside the sane maxima are ignored by the measurer.
func (c *Coordinator) ObserveSize(id goal.NodeID, s layout.Size) {
	type observer interface {
		Observe(goal.NodeID, layout.Size)
	}
	if o, ok := c.measurer.(observer); ok {
		o.Observe(id, s)
	}
	c.mu.Lock()
	c.relayout(context.Background())
	c.mu.Unlock()
	c.notify()
}

// AddNode creates a node and persists the document. Parent references that do
// not resolve are silently dropped. The weight must lie in [0, 100].
func (c *Coordinator) AddNode(ctx context.Context, label, nodeType string, pct float64, parents []goal.NodeID) (goal.NodeID, error) {
	if pct < 0 || pct > 100 {
		return "", gerrors.New(gerrors.ErrCodeInvalidNode, "weight %v outside [0, 100]", pct)
	}

	c.mu.Lock()
	kept := make([]goal.NodeID, 0, len(parents))
	for _, p := range parents {
		if _, ok := c.doc.Nodes[p]; ok {
			kept = append(kept, p)
		}
	}
	n := &goal.Node{
		ID:                 goal.NodeID(uuid.NewString()),
		Type:               nodeType,
		Label:              label,
		Status:             goal.StatusNotStarted,
		Parents:            kept,
		PercentageOfParent: pct,
		CreatedAt:          c.now(),
	}
	c.doc.Nodes[n.ID] = n
	c.recompute(ctx)
	c.mu.Unlock()

	observability.Sync().OnMutation(ctx, "add_node", 0)
	c.notify()
	return n.ID, c.persist(ctx, "add_node")
}

// SetNodeStatus updates a node's status. Completing a node completes every
// not-yet-completed transitive descendant in the same wavefront, all sharing
// one timestamp. Any other target touches only the node itself and clears its
// completion time.
func (c *Coordinator) SetNodeStatus(ctx context.Context, id goal.NodeID, target goal.Status) error {
	if !target.Valid() {
		return gerrors.New(gerrors.ErrCodeInvalidStatus, "unknown status %q", target)
	}

	c.mu.Lock()
	n, ok := c.doc.Nodes[id]
	if !ok {
		c.mu.Unlock()
		return gerrors.Wrap(gerrors.ErrCodeNodeNotFound, goal.ErrNodeNotFound, "set status of %s", id)
	}

	cascade := 0
	if target == goal.StatusCompleted {
		ts := c.now()
		mark := func(n *goal.Node) {
			if !n.Completed() {
				n.Status = goal.StatusCompleted
				t := ts
				n.CompletedAt = &t
			}
		}
		mark(n)
		for _, did := range c.doc.Descendants(id) {
			if d, ok := c.doc.Nodes[did]; ok && !d.Completed() {
				mark(d)
				cascade++
			}
		}
	} else {
		n.Status = target
		n.CompletedAt = nil
	}
	c.recompute(ctx)
	c.mu.Unlock()

	observability.Sync().OnMutation(ctx, "set_status", cascade)
	c.notify()
	return c.persist(ctx, "set_status")
}

// DeleteNode removes the node and its whole descendant subtree, then strips
// the deleted IDs from every surviving parents array.
func (c *Coordinator) DeleteNode(ctx context.Context, id goal.NodeID) error {
	c.mu.Lock()
	if _, ok := c.doc.Nodes[id]; !ok {
		c.mu.Unlock()
		return gerrors.Wrap(gerrors.ErrCodeNodeNotFound, goal.ErrNodeNotFound, "delete %s", id)
	}

	doomed := append([]goal.NodeID{id}, c.doc.Descendants(id)...)
	for _, did := range doomed {
		delete(c.doc.Nodes, did)
	}
	c.doc.PruneDanglingParents()
	c.recompute(ctx)
	c.mu.Unlock()

	observability.Sync().OnMutation(ctx, "delete_node", len(doomed)-1)
	c.notify()
	return c.persist(ctx, "delete_node")
}

// AddRelationship appends source to target's parents. Re-adding an existing
// relationship is a no-op that skips the write. Edges that would close a
// cycle in the prerequisite relation are refused.
func (c *Coordinator) AddRelationship(ctx context.Context, source, target goal.NodeID) error {
	c.mu.Lock()
	if _, ok := c.doc.Nodes[source]; !ok {
		c.mu.Unlock()
		return gerrors.Wrap(gerrors.ErrCodeNodeNotFound, goal.ErrNodeNotFound, "relationship source %s", source)
	}
	tgt, ok := c.doc.Nodes[target]
	if !ok {
		c.mu.Unlock()
		return gerrors.Wrap(gerrors.ErrCodeNodeNotFound, goal.ErrNodeNotFound, "relationship target %s", target)
	}
	if tgt.HasParent(source) {
		c.mu.Unlock()
		return nil
	}
	if c.doc.WouldCycle(source, target) {
		c.mu.Unlock()
		return gerrors.Wrap(gerrors.ErrCodeCycleDetected, goal.ErrCycleDetected, "%s -> %s", source, target)
	}

	tgt.Parents = append(tgt.Parents, source)
	c.recompute(ctx)
	c.mu.Unlock()

	observability.Sync().OnMutation(ctx, "add_relationship", 0)
	c.notify()
	return c.persist(ctx, "add_relationship")
}

// UpdateViewport stores the pan/zoom state. Derived state is unaffected, so
// no recompute runs.
func (c *Coordinator) UpdateViewport(ctx context.Context, vp goal.Viewport) error {
	c.mu.Lock()
	c.doc.Viewport = vp
	c.mu.Unlock()

	observability.Sync().OnMutation(ctx, "update_viewport", 0)
	return c.persist(ctx, "update_viewport")
}

// recompute rebuilds every derived artifact from the document. Caller holds
// the lock.
func (c *Coordinator) recompute(ctx context.Context) {
	start := time.Now()
	c.assign = layout.PartitionGraph(c.doc, c.maxCols)
	views := make(map[goal.GraphID]bool)
	for _, g := range c.assign {
		views[g] = true
	}
	observability.Layout().OnPartition(ctx, len(c.doc.Nodes), len(views), time.Since(start))

	c.relayout(ctx)

	start = time.Now()
	c.doc.History = progress.Calculate(c.doc, c.now())
	observability.Layout().OnHistory(ctx, len(c.doc.Nodes), len(c.doc.History), time.Since(start))
}

// relayout recomputes positions for the active sub-view only. Caller holds
// the lock.
func (c *Coordinator) relayout(ctx context.Context) {
	start := time.Now()
	slice := layout.SliceFor(c.doc, c.assign, c.activeGraph)
	h := layout.BuildHierarchy(slice)
	sizeOf := func(n *goal.Node) layout.Size { return layout.SizeOf(c.measurer, n) }
	c.positions = layout.PositionSlices(slice, h, sizeOf, c.layOpts)
	observability.Layout().OnPosition(ctx, c.activeGraph, len(slice), time.Since(start))
}

// persist writes the current document to the store with this coordinator's
// origin token. Local state is already updated and is kept on failure.
func (c *Coordinator) persist(ctx context.Context, op string) error {
	c.mu.Lock()
	doc := c.doc.Clone()
	c.mu.Unlock()

	if err := c.st.Write(ctx, doc, c.clientID); err != nil {
		c.logger.Error("persist failed; local state retained", "op", op, "err", err)
		return gerrors.Wrap(gerrors.ErrCodeSyncWrite, err, "persist after %s", op)
	}
	return nil
}

// handleChange is the realtime re-entry point. Self-echoes are identified by
// origin token and dropped; everything else replaces the document wholesale
// and reruns the derived pipeline.
func (c *Coordinator) handleChange(ctx context.Context, ch store.Change) {
	if ch.Origin == c.clientID {
		observability.Sync().OnEchoSuppressed(ctx, ch.Origin)
		return
	}
	observability.Sync().OnRemoteChange(ctx, ch.Origin)

	c.mu.Lock()
	c.doc = ch.Doc.Clone()
	c.doc.PruneDanglingParents()
	c.recompute(ctx)
	c.mu.Unlock()

	c.notify()
}

// notify delivers the current view to the UI collaborator, outside the lock.
func (c *Coordinator) notify() {
	c.mu.Lock()
	fn := c.onUpdate
	var v View
	if fn != nil {
		v = c.viewLocked()
	}
	c.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}
