package graphio

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

func buildDocument() Document {
	return Document{
		Containers: []Container{
			{ID: "services", Label: "Services"},
			{ID: "workers", Label: "Workers", Parent: "services"},
		},
		Nodes: []Node{
			{ID: "api", Label: "API", Parent: "services", Type: "service"},
			{ID: "consumer", Parent: "workers"},
			{ID: "db", Type: "database", Tags: []string{"stateful"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "api", Target: "db"},
			{ID: "e2", Source: "consumer", Target: "db", Type: "reads"},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	doc := buildDocument()
	s, err := ToStore(doc, log.Default())
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	s2, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(FromStore(s), FromStore(s2)) {
		t.Errorf("round trip changed the document:\n%+v\nvs\n%+v", FromStore(s), FromStore(s2))
	}
}

func TestToStoreResolvesForwardParents(t *testing.T) {
	// Children listed before the containers they belong to.
	doc := Document{
		Containers: []Container{
			{ID: "inner", Parent: "outer"},
			{ID: "outer"},
		},
		Nodes: []Node{{ID: "leaf", Parent: "inner"}},
	}
	s, err := ToStore(doc, log.Default())
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}
	if parent, _ := s.Parent("leaf"); parent != "inner" {
		t.Errorf("leaf parent = %q, want inner", parent)
	}
	if parent, _ := s.Parent("inner"); parent != "outer" {
		t.Errorf("inner parent = %q, want outer", parent)
	}
}

func TestToStoreReplaysCollapses(t *testing.T) {
	doc := buildDocument()
	doc.Containers[1].Collapsed = true // workers

	s, err := ToStore(doc, log.Default())
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}

	if s.Visible("consumer") {
		t.Error("consumer should be hidden under collapsed workers")
	}
	e, ok := s.Edge("e2")
	if !ok || !e.Hidden {
		t.Error("edge into collapsed container should be hidden")
	}
	h, ok := s.HyperEdgeBetween("workers", "db")
	if !ok {
		t.Fatal("expected hyperedge workers->db after replay")
	}
	if !h.HasMember("e2") {
		t.Errorf("hyperedge members = %v, want e2", h.Members)
	}
}

func TestToStoreBrokenReference(t *testing.T) {
	doc := Document{
		Nodes: []Node{{ID: "a"}},
		Edges: []Edge{{Source: "a", Target: "ghost"}},
	}
	if _, err := ToStore(doc, log.Default()); err == nil {
		t.Fatal("expected error for edge to unknown entity")
	}
}

func TestToStoreDerivesEdgeID(t *testing.T) {
	doc := Document{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{Source: "a", Target: "b"}},
	}
	s, err := ToStore(doc, log.Default())
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}
	if _, ok := s.Edge("a->b"); !ok {
		t.Error("expected derived edge ID a->b")
	}
}

func TestFromStoreSortsDeterministically(t *testing.T) {
	s := hgraph.New()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := s.AddNode(hgraph.Node{ID: id}); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	doc := FromStore(s)
	got := []string{doc.Nodes[0].ID, doc.Nodes[1].ID, doc.Nodes[2].ID}
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("node order = %v, want %v", got, want)
	}
}

func TestReadMalformed(t *testing.T) {
	if _, err := Read(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := UnmarshalDocument([]byte("[]")); err == nil {
		t.Fatal("expected decode error for non-object document")
	}
}

func TestWriteFileAndReadFile(t *testing.T) {
	doc := buildDocument()
	s, err := ToStore(doc, log.Default())
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}

	path := t.TempDir() + "/graph.json"
	if err := WriteFile(s, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s2, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if s2.NodeCount() != s.NodeCount() || s2.EdgeCount() != s.EdgeCount() {
		t.Errorf("counts differ after file round trip")
	}
}
