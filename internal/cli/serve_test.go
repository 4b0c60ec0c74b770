package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	"github.com/matzehuels/goalgraph/pkg/goal"
	"github.com/matzehuels/goalgraph/pkg/store"
)

func newTestServer(t *testing.T) (*coordinator.Coordinator, *httptest.Server) {
	t.Helper()

	c, err := coordinator.New(coordinator.Config{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("coordinator.New() error: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(c.Stop)

	srv := httptest.NewServer(newRouter(c, charmlog.New(io.Discard)))
	t.Cleanup(srv.Close)
	return c, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestAPI_AddAndFetchNode(t *testing.T) {
	c, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/nodes", map[string]any{
		"label":                "ship v1",
		"type":                 "goal",
		"percentage_of_parent": 100,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created map[string]goal.NodeID
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := c.Document().Node(created["id"]); !ok {
		t.Errorf("created node %s missing from document", created["id"])
	}

	graphResp, err := http.Get(srv.URL + "/api/graph")
	if err != nil {
		t.Fatalf("GET /api/graph: %v", err)
	}
	defer graphResp.Body.Close()
	var doc goal.Document
	if err := json.NewDecoder(graphResp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(doc.Nodes) != 1 {
		t.Errorf("document has %d nodes, want 1", len(doc.Nodes))
	}
}

func TestAPI_SetStatusAndProgress(t *testing.T) {
	c, srv := newTestServer(t)
	id, err := c.AddNode(context.Background(), "task", "task", 100, nil)
	if err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}

	resp := postJSON(t, srv.URL+"/api/nodes/"+string(id)+"/status", map[string]string{
		"status": "completed",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	progResp, err := http.Get(srv.URL + "/api/progress")
	if err != nil {
		t.Fatalf("GET /api/progress: %v", err)
	}
	defer progResp.Body.Close()
	var history map[goal.DayKey]goal.DayStats
	if err := json.NewDecoder(progResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) == 0 {
		t.Errorf("history empty after completing the only node")
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	c, srv := newTestServer(t)

	// Unknown node -> 404.
	resp := postJSON(t, srv.URL+"/api/nodes/ghost/status", map[string]string{"status": "completed"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing node: status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	// Invalid status -> 400.
	id, _ := c.AddNode(context.Background(), "a", "task", 100, nil)
	resp = postJSON(t, srv.URL+"/api/nodes/"+string(id)+"/status", map[string]string{"status": "paused"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	// Cycle -> 409.
	b, _ := c.AddNode(context.Background(), "b", "task", 100, []goal.NodeID{id})
	resp = postJSON(t, srv.URL+"/api/relationships", map[string]goal.NodeID{"source": b, "target": id})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("cycle: status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	var body map[string]apiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"].Code != "CYCLE_DETECTED" {
		t.Errorf("error code = %s, want CYCLE_DETECTED", body["error"].Code)
	}
}

func TestAPI_LayoutDrillDown(t *testing.T) {
	c, srv := newTestServer(t)
	id, _ := c.AddNode(context.Background(), "root", "goal", 100, nil)

	resp, err := http.Get(srv.URL + "/api/layout")
	if err != nil {
		t.Fatalf("GET /api/layout: %v", err)
	}
	defer resp.Body.Close()
	var v coordinator.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.ActiveGraph != goal.MainGraph {
		t.Errorf("ActiveGraph = %s, want %s", v.ActiveGraph, goal.MainGraph)
	}
	if _, ok := v.Positions[id]; !ok {
		t.Errorf("view missing position for %s", id)
	}
}

func TestAPI_Viewport(t *testing.T) {
	c, srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/viewport",
		bytes.NewReader([]byte(`{"x": 5, "y": -3, "zoom": 2}`)))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/viewport: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	vp := c.Document().Viewport
	if vp.X != 5 || vp.Y != -3 || vp.Zoom != 2 {
		t.Errorf("Viewport = %+v, want {5 -3 2}", vp)
	}
}
