package collapse

import (
	"testing"

	"github.com/matzehuels/flowscope/pkg/errors"
)

func TestExpandRestoresPreviousVisibleSet(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	check, err := o.Expand("child", OriginUser)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !check.CanExpand {
		t.Fatalf("check = %+v, want CanExpand", check)
	}

	for _, id := range []string{"root", "child", "node1", "node2", "node3", "orphan"} {
		if !s.Visible(id) {
			t.Errorf("%s hidden after expand", id)
		}
	}
	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		if edgeHidden(t, s, id) {
			t.Errorf("%s hidden after expand", id)
		}
	}
	if n := len(s.HyperEdges()); n != 0 {
		t.Errorf("%d orphaned hyperedges after expand, want 0", n)
	}
}

// Collapsing an outer container and expanding it again must bring back the
// inner aggregation exactly as it was, including the edge that was internal
// to the outer subtree while it was closed.
func TestExpandOuterKeepsInnerCollapsed(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse(child): %v", err)
	}
	if err := o.Collapse("root", OriginUser); err != nil {
		t.Fatalf("Collapse(root): %v", err)
	}
	if _, err := o.Expand("root", OriginUser); err != nil {
		t.Fatalf("Expand(root): %v", err)
	}

	// child comes back visible but still collapsed, its contents hidden.
	c, _ := s.Container("child")
	if c.Hidden || !c.Collapsed {
		t.Errorf("child hidden=%v collapsed=%v, want visible and collapsed", c.Hidden, c.Collapsed)
	}
	for _, id := range []string{"node1", "node2"} {
		if s.Visible(id) {
			t.Errorf("%s visible under collapsed child", id)
		}
	}
	if !s.Visible("node3") {
		t.Error("node3 hidden after expanding root")
	}

	if edgeHidden(t, s, "e4") {
		t.Error("e4 hidden with both endpoints visible")
	}
	h, ok := s.HyperEdgeBetween("child", "node3")
	if !ok {
		t.Fatal("missing hyperedge child->node3")
	}
	if !h.HasMember("e2") {
		t.Errorf("child->node3 members = %v, want [e2]", h.Members)
	}
	h, ok = s.HyperEdgeBetween("child", "orphan")
	if !ok {
		t.Fatal("missing hyperedge child->orphan")
	}
	if !h.HasMember("e3") {
		t.Errorf("child->orphan members = %v, want [e3]", h.Members)
	}
	if _, ok := s.HyperEdgeBetween("root", "orphan"); ok {
		t.Error("stale hyperedge root->orphan survived expansion")
	}
}

func TestExpandUnderCollapsedAncestorRefused(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse(child): %v", err)
	}
	if err := o.Collapse("root", OriginUser); err != nil {
		t.Fatalf("Collapse(root): %v", err)
	}

	v := s.Version()
	check, err := o.Expand("child", OriginUser)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if check.CanExpand {
		t.Fatal("expand under collapsed ancestor allowed")
	}
	if len(check.Issues) == 0 {
		t.Error("refused check carries no issues")
	}
	if s.Version() != v {
		t.Errorf("refused expand mutated the store (version %d -> %d)", v, s.Version())
	}
}

func TestValidateExpansionListsAffectedEdges(t *testing.T) {
	o := buildFixture(t)

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	check := o.ValidateExpansion("child")
	if !check.CanExpand {
		t.Fatalf("check = %+v, want CanExpand", check)
	}
	want := map[string]bool{"e1": true, "e2": true, "e3": true}
	if len(check.AffectedEdges) != len(want) {
		t.Fatalf("AffectedEdges = %v, want e1,e2,e3", check.AffectedEdges)
	}
	for _, id := range check.AffectedEdges {
		if !want[id] {
			t.Errorf("unexpected affected edge %s", id)
		}
	}

	check = o.ValidateExpansion("ghost")
	if check.CanExpand || len(check.Issues) == 0 {
		t.Errorf("ValidateExpansion(ghost) = %+v, want refusal with issue", check)
	}
}

func TestExpandForSearch(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.CollapseAll(OriginUser); err != nil {
		t.Fatalf("CollapseAll: %v", err)
	}
	if err := o.ExpandForSearch("node1"); err != nil {
		t.Fatalf("ExpandForSearch: %v", err)
	}
	if !s.Visible("node1") {
		t.Error("search target still hidden")
	}
	for _, id := range []string{"root", "child"} {
		if c, _ := s.Container(id); c.Collapsed {
			t.Errorf("ancestor %s still collapsed", id)
		}
	}

	if err := o.ExpandForSearch("ghost"); errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("ExpandForSearch(ghost) code = %v, want NOT_FOUND", errors.GetCode(err))
	}
}

// Search expansion expands ancestors only: a matching container that is
// itself collapsed stays collapsed, it just has to be visible.
func TestExpandForSearchKeepsTargetCollapsed(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.CollapseAll(OriginUser); err != nil {
		t.Fatalf("CollapseAll: %v", err)
	}
	if err := o.ExpandForSearch("child"); err != nil {
		t.Fatalf("ExpandForSearch: %v", err)
	}
	c, _ := s.Container("child")
	if c.Hidden {
		t.Error("search target still hidden")
	}
	if !c.Collapsed {
		t.Error("search expansion opened the target itself")
	}
}

func TestPostExpansionEdgeValidationRepairs(t *testing.T) {
	o := buildFixture(t)
	s := o.Store()

	if err := o.Collapse("child", OriginUser); err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	if _, err := o.Expand("child", OriginUser); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	// Simulate drift: hide an edge whose endpoints are both visible.
	if err := s.SetEdgeHidden("e4", true); err != nil {
		t.Fatalf("SetEdgeHidden: %v", err)
	}

	result := o.PostExpansionEdgeValidation("root")
	if len(result.Fixed) != 1 || result.Fixed[0] != "e4" {
		t.Errorf("Fixed = %v, want [e4]", result.Fixed)
	}
	if len(result.Invalid) != 0 {
		t.Errorf("Invalid = %v, want none", result.Invalid)
	}
	if edgeHidden(t, s, "e4") {
		t.Error("e4 not repaired")
	}
}
