package store

import (
	"context"
	"sync"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// MemoryStore is an in-process Store. Writes are visible to every subscriber
// in the same process, which makes it useful both for tests and for running
// several coordinators against one document without external infrastructure.
type MemoryStore struct {
	mu     sync.Mutex
	doc    *goal.Document
	subs   map[int]func(Change)
	nextID int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int]func(Change))}
}

// Fetch returns a copy of the stored document, or a fresh empty document if
// nothing has been written yet.
func (s *MemoryStore) Fetch(ctx context.Context) (*goal.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return goal.NewDocument(), nil
	}
	return s.doc.Clone(), nil
}

// Write replaces the stored document and delivers a Change to every
// subscriber synchronously, each with its own copy.
func (s *MemoryStore) Write(ctx context.Context, doc *goal.Document, origin string) error {
	s.mu.Lock()
	s.doc = doc.Clone()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(Change{Doc: doc.Clone(), Origin: origin})
	}
	return nil
}

// Subscribe registers fn for future changes.
func (s *MemoryStore) Subscribe(ctx context.Context, fn func(Change)) (Unsubscribe, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

var _ Store = (*MemoryStore)(nil)
