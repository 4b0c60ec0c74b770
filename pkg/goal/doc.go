// Package goal defines the graph document model for goalgraph.
//
// A document is a single flat map of nodes. Each node carries the IDs of its
// parents (prerequisites), a completion status, and a weight describing how
// much of its parent slice it accounts for. Everything else in the system -
// layout levels, sub-view partitions, progress history - is derived from this
// map and never authored directly.
//
// The document is owned by a single coordinator and is not safe for concurrent
// mutation. All derived state is recomputed from scratch after every mutation;
// nothing in this package maintains incremental indexes across calls.
package goal
