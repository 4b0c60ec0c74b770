package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// FileStore persists the document as one JSON file. Change notifications are
// in-process only: another process editing the same file is not observed
// until the next Fetch.
type FileStore struct {
	mu     sync.Mutex
	path   string
	subs   map[int]func(Change)
	nextID int
}

// NewFileStore creates a file-backed store at path.
// If path is empty, defaults to ~/.config/goalgraph/document.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "goalgraph", "document.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &FileStore{path: path, subs: make(map[int]func(Change))}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Fetch(ctx context.Context) (*goal.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return goal.NewDocument(), nil
		}
		return nil, fmt.Errorf("read document file: %w", err)
	}

	doc := goal.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = make(map[goal.NodeID]*goal.Node)
	}
	if doc.History == nil {
		doc.History = make(map[goal.DayKey]goal.DayStats)
	}
	return doc, nil
}

func (s *FileStore) Write(ctx context.Context, doc *goal.Document, origin string) error {
	s.mu.Lock()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("write document file: %w", err)
	}
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

func (s *FileStore) Subscribe(ctx context.Context, fn func(Change)) (Unsubscribe, error) {
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

var _ Store = (*FileStore)(nil)
