package collapse

import (
	"testing"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// buildFixture creates the hierarchy and edges used across collapse tests:
//
//	root
//	├── child
//	│   ├── node1
//	│   └── node2
//	└── node3
//	orphan (top-level node)
//
//	e1: node1 -> node2   (internal to child)
//	e2: node1 -> node3   (crosses the child boundary)
//	e3: node1 -> orphan  (crosses out of root)
//	e4: node3 -> orphan
func buildFixture(t *testing.T) *Ops {
	t.Helper()
	s := hgraph.New()
	for _, c := range []hgraph.Container{{ID: "root"}, {ID: "child"}} {
		if err := s.AddContainer(c); err != nil {
			t.Fatalf("AddContainer(%s): %v", c.ID, err)
		}
	}
	for _, n := range []hgraph.Node{{ID: "node1"}, {ID: "node2"}, {ID: "node3"}, {ID: "orphan"}} {
		if err := s.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, rel := range [][2]string{{"root", "child"}, {"child", "node1"}, {"child", "node2"}, {"root", "node3"}} {
		if err := s.AddChild(rel[0], rel[1]); err != nil {
			t.Fatalf("AddChild(%s, %s): %v", rel[0], rel[1], err)
		}
	}
	for _, e := range []hgraph.Edge{
		{ID: "e1", Source: "node1", Target: "node2"},
		{ID: "e2", Source: "node1", Target: "node3"},
		{ID: "e3", Source: "node1", Target: "orphan"},
		{ID: "e4", Source: "node3", Target: "orphan"},
	} {
		if err := s.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}
	return NewOps(s, nil)
}

func edgeHidden(t *testing.T, s *hgraph.Store, id string) bool {
	t.Helper()
	e, ok := s.Edge(id)
	if !ok {
		t.Fatalf("Edge(%s) not found", id)
	}
	return e.Hidden
}

func TestCollapseHidesSubtreeAndFoldsEdges(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse(child): %v", err)
	}

	for _, id := range []string{"node1", "node2"} {
		if s.Visible(id) {
			t.Errorf("%s visible after collapse", id)
		}
	}
	for _, id := range []string{"child", "root", "node3", "orphan"} {
		if !s.Visible(id) {
			t.Errorf("%s hidden after collapse", id)
		}
	}

	// Every edge with a hidden endpoint is hidden; e4 is untouched.
	for _, id := range []string{"e1", "e2", "e3"} {
		if !edgeHidden(t, s, id) {
			t.Errorf("%s visible after collapse", id)
		}
	}
	if edgeHidden(t, s, "e4") {
		t.Error("e4 hidden after collapse of unrelated container")
	}

	// Boundary-crossing edges fold into hyperedges; the internal e1 does
	// not appear in any member list.
	h, ok := s.HyperEdgeBetween("child", "node3")
	if !ok {
		t.Fatal("missing hyperedge child->node3")
	}
	if h.Multiplicity() != 1 || !h.HasMember("e2") {
		t.Errorf("child->node3 members = %v, want [e2]", h.Members)
	}
	h, ok = s.HyperEdgeBetween("child", "orphan")
	if !ok {
		t.Fatal("missing hyperedge child->orphan")
	}
	if !h.HasMember("e3") {
		t.Errorf("child->orphan members = %v, want [e3]", h.Members)
	}
	for _, h := range s.HyperEdges() {
		if h.HasMember("e1") {
			t.Errorf("internal edge e1 folded into %s", h.ID)
		}
	}
}

func TestCollapseIdempotent(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	v := s.Version()
	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("second Collapse: %v", err)
	}
	if s.Version() != v {
		t.Errorf("second collapse bumped version %d -> %d", v, s.Version())
	}
}

func TestCollapseUnknownContainer(t *testing.T) {
	o := buildFixture(t)

	err := o.Collapse("ghost", OriginUser)
	if err == nil {
		t.Fatal("Collapse(ghost) succeeded")
	}
	if errors.GetCode(err) != errors.ErrCodeContainerNotFound {
		t.Errorf("code = %v, want CONTAINER_NOT_FOUND", errors.GetCode(err))
	}
}

func TestNestedCollapseReanchorsHyperEdges(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse(child): %v", err)
	}
	if err := o.Collapse("root", OriginUser); err != nil {
		t.Fatalf("Collapse(root): %v", err)
	}

	// child->node3 became internal to root; child->orphan re-anchored to
	// root->orphan and absorbed e4.
	if _, ok := s.HyperEdgeBetween("child", "node3"); ok {
		t.Error("stale hyperedge child->node3 survived nested collapse")
	}
	if _, ok := s.HyperEdgeBetween("child", "orphan"); ok {
		t.Error("stale hyperedge child->orphan survived nested collapse")
	}
	h, ok := s.HyperEdgeBetween("root", "orphan")
	if !ok {
		t.Fatal("missing hyperedge root->orphan")
	}
	if h.Multiplicity() != 2 || !h.HasMember("e3") || !h.HasMember("e4") {
		t.Errorf("root->orphan members = %v, want [e3 e4]", h.Members)
	}

	// The nested flag is preserved: child stays collapsed while hidden.
	c, _ := s.Container("child")
	if !c.Collapsed {
		t.Error("nested collapse cleared the child flag")
	}
}

func TestCollapseAllThenExpandAllRoundtrip(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.CollapseAll(OriginUser); err != nil {
		t.Fatalf("CollapseAll: %v", err)
	}
	for _, id := range []string{"child", "node1", "node2", "node3"} {
		if s.Visible(id) {
			t.Errorf("%s visible after CollapseAll", id)
		}
	}
	if !s.Visible("root") || !s.Visible("orphan") {
		t.Error("top-level entities hidden after CollapseAll")
	}

	if err := o.ExpandAll(OriginUser); err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	for _, id := range []string{"root", "child", "node1", "node2", "node3", "orphan"} {
		if !s.Visible(id) {
			t.Errorf("%s hidden after ExpandAll", id)
		}
	}
	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		if edgeHidden(t, s, id) {
			t.Errorf("%s hidden after ExpandAll", id)
		}
	}
	if n := len(s.HyperEdges()); n != 0 {
		t.Errorf("%d hyperedges left after ExpandAll, want 0", n)
	}
}

func TestToggle(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if _, err := o.Toggle("child", OriginUser); err != nil {
		t.Fatalf("Toggle collapse: %v", err)
	}
	if c, _ := s.Container("child"); !c.Collapsed {
		t.Fatal("Toggle did not collapse")
	}
	check, err := o.Toggle("child", OriginUser)
	if err != nil {
		t.Fatalf("Toggle expand: %v", err)
	}
	if !check.CanExpand {
		t.Errorf("Toggle expand check = %+v, want CanExpand", check)
	}
	if c, _ := s.Container("child"); c.Collapsed {
		t.Error("Toggle did not expand")
	}
}
