package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

func sampleDoc() *goal.Document {
	d := goal.NewDocument()
	d.Nodes["a"] = &goal.Node{
		ID:                 "a",
		Label:              "a",
		Status:             goal.StatusInProgress,
		PercentageOfParent: 100,
		CreatedAt:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return d
}

func TestMemoryStore_FetchEmpty(t *testing.T) {
	s := NewMemoryStore()

	doc, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(doc.Nodes) != 0 {
		t.Errorf("Fetch() on empty store returned %d nodes, want 0", len(doc.Nodes))
	}
}

func TestMemoryStore_WriteFetchRoundtrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Write(ctx, sampleDoc(), "client-1"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	doc, err := s.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	n, ok := doc.Node("a")
	if !ok {
		t.Fatalf("node a missing after roundtrip")
	}
	if n.Status != goal.StatusInProgress {
		t.Errorf("Status = %s, want %s", n.Status, goal.StatusInProgress)
	}
}

func TestMemoryStore_FetchReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Write(ctx, sampleDoc(), "client-1")

	doc, _ := s.Fetch(ctx)
	doc.Nodes["a"].Label = "mutated"

	again, _ := s.Fetch(ctx)
	if again.Nodes["a"].Label != "a" {
		t.Errorf("stored document mutated through fetched copy")
	}
}

func TestMemoryStore_SubscribeDeliversOrigin(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var got []Change
	unsub, err := s.Subscribe(ctx, func(c Change) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	_ = s.Write(ctx, sampleDoc(), "client-1")
	if len(got) != 1 {
		t.Fatalf("received %d changes, want 1", len(got))
	}
	if got[0].Origin != "client-1" {
		t.Errorf("Origin = %q, want %q", got[0].Origin, "client-1")
	}
	if _, ok := got[0].Doc.Node("a"); !ok {
		t.Errorf("delivered document missing node a")
	}

	unsub()
	_ = s.Write(ctx, sampleDoc(), "client-2")
	if len(got) != 1 {
		t.Errorf("received change after unsubscribe")
	}
}

func TestFileStore_FetchEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "document.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	doc, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(doc.Nodes) != 0 {
		t.Errorf("Fetch() on missing file returned %d nodes, want 0", len(doc.Nodes))
	}
}

func TestFileStore_WriteFetchRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	ctx := context.Background()

	if err := s.Write(ctx, sampleDoc(), "client-1"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	// A second store over the same path sees the write.
	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	doc, err := s2.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if _, ok := doc.Node("a"); !ok {
		t.Errorf("node a missing after roundtrip through file")
	}
}

func TestFileStore_SubscribeInProcess(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "document.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	ctx := context.Background()

	var origins []string
	unsub, err := s.Subscribe(ctx, func(c Change) { origins = append(origins, c.Origin) })
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer unsub()

	_ = s.Write(ctx, sampleDoc(), "client-9")
	if len(origins) != 1 || origins[0] != "client-9" {
		t.Errorf("origins = %v, want [client-9]", origins)
	}
}
