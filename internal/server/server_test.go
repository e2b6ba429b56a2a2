package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/flowscope/pkg/coordinator"
	"github.com/matzehuels/flowscope/pkg/hgraph"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/state"
)

type stubEngine struct{}

func (stubEngine) Algorithm() string { return "dot" }

func (stubEngine) Layout(ctx context.Context, s *hgraph.Store) (*layout.Result, error) {
	items := make(map[string]hgraph.Rect)
	x := 0.0
	for _, id := range s.PreOrder() {
		if !s.Visible(id) {
			continue
		}
		items[id] = hgraph.Rect{X: x, Y: 0, Width: 180, Height: 90}
		x += 200
	}
	return &layout.Result{Items: items}, nil
}

func newTestServer(t *testing.T) (*Server, *coordinator.Coordinator) {
	t.Helper()
	s := hgraph.New()
	for _, c := range []hgraph.Container{{ID: "outer", Label: "Outer"}, {ID: "inner", Label: "Inner"}} {
		if err := s.AddContainer(c); err != nil {
			t.Fatalf("AddContainer: %v", err)
		}
	}
	for _, n := range []hgraph.Node{
		{ID: "leaf", Label: "Payments Worker"},
		{ID: "api", Label: "API Gateway"},
	} {
		if err := s.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := s.AddChild("outer", "inner"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddChild("inner", "leaf"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEdge(hgraph.Edge{ID: "e1", Source: "api", Target: "leaf"}); err != nil {
		t.Fatal(err)
	}

	coord, err := coordinator.New(coordinator.Config{Store: s, Engine: stubEngine{}})
	if err != nil {
		t.Fatalf("coordinator.New: %v", err)
	}
	t.Cleanup(coord.Close)

	snaps, err := state.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return New(coord, Options{Snapshots: snaps}), coord
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	}
	return rec, payload
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, payload := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["status"] != "ok" {
		t.Errorf("payload = %v", payload)
	}
}

func TestFrameRunsPipelineWhenEmpty(t *testing.T) {
	srv, coord := newTestServer(t)
	rec, payload := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/frame", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if payload["nodes"] == nil {
		t.Error("expected nodes in frame")
	}
	if coord.LayoutCount() != 1 {
		t.Errorf("LayoutCount = %d, want 1", coord.LayoutCount())
	}

	// Second fetch serves the cached frame without another layout pass.
	rec, _ = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/frame", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if coord.LayoutCount() != 1 {
		t.Errorf("LayoutCount = %d after cached fetch, want 1", coord.LayoutCount())
	}
}

func TestCollapseEndpoint(t *testing.T) {
	srv, coord := newTestServer(t)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/containers/inner/collapse", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if coord.Store().Visible("leaf") {
		t.Error("leaf should be hidden after collapse")
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/containers/ghost/collapse", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown container status = %d, want 404", rec.Code)
	}
}

func TestExpandRefusedUnderCollapsedAncestor(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, id := range []string{"inner", "outer"} {
		rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/containers/"+id+"/collapse", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("collapse %s: status = %d", id, rec.Code)
		}
	}

	rec, payload := doJSON(t, h, http.MethodPost, "/api/v1/containers/inner/expand", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	check, _ := payload["check"].(map[string]any)
	if check == nil || check["can_expand"] != false {
		t.Errorf("payload = %v, want refused check", payload)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, payload := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/search?q=payments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	matches, _ := payload["matches"].([]any)
	if len(matches) != 1 {
		t.Fatalf("matches = %v, want one", payload["matches"])
	}
}

func TestStyleEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec, _ := doJSON(t, h, http.MethodPut, "/api/v1/style", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty style status = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPut, "/api/v1/style", `{"palette":"no-such-palette"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid palette status = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPut, "/api/v1/style", `{"palette":"ocean","edge_style":"curved"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("valid style status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPut, "/api/v1/layout", `{"algorithm":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid algorithm status = %d, want 400", rec.Code)
	}
}

func TestFocusUnknownNode(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/focus/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec, _ := doJSON(t, h, http.MethodPut, "/api/v1/snapshots/view1", `{"query":"payments"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d body = %s", rec.Code, rec.Body)
	}

	rec, payload := doJSON(t, h, http.MethodGet, "/api/v1/snapshots/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	names, _ := payload["snapshots"].([]any)
	if len(names) != 1 || names[0] != "view1" {
		t.Errorf("snapshots = %v, want [view1]", payload["snapshots"])
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/v1/snapshots/view1/apply", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("apply status = %d body = %s", rec.Code, rec.Body)
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/v1/snapshots/view1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/snapshots/view1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestSnapshotBadName(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPut, "/api/v1/snapshots/..%2Fescape", "")
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want rejection", rec.Code)
	}
}
