// Package store persists the goal document and fans out change notifications.
//
// The contract is deliberately coarse: Write replaces the whole document, and
// Subscribe delivers the full updated document on any change by any client.
// There is no row-level access. Every change carries the origin token of the
// client that wrote it, which is how the coordinator tells its own echoes
// apart from genuinely remote updates.
//
// Three backends are provided:
//   - MemoryStore: in-process, for tests and single-process use
//   - FileStore: one JSON file, for CLI use
//   - MongoStore: a MongoDB document with Redis pub/sub change fan-out
package store

import (
	"context"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// Change is a full-document update notification.
type Change struct {
	// Doc is the complete document after the change.
	Doc *goal.Document

	// Origin is the client token supplied to the Write that produced this
	// change. Subscribers compare it against their own token to drop
	// self-echoes.
	Origin string
}

// Unsubscribe stops delivery for one subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the persistence collaborator for the coordinator.
type Store interface {
	// Fetch returns the current document. A store that has never been
	// written returns a fresh empty document, not an error.
	Fetch(ctx context.Context) (*goal.Document, error)

	// Write replaces the stored document and notifies subscribers.
	// origin identifies the writing client and is passed through unchanged.
	Write(ctx context.Context, doc *goal.Document, origin string) error

	// Subscribe registers fn to receive every subsequent change.
	Subscribe(ctx context.Context, fn func(Change)) (Unsubscribe, error)
}
