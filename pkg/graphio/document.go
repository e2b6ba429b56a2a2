package graphio

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/hgraph"
	"github.com/matzehuels/flowscope/pkg/hgraph/collapse"
)

// =============================================================================
// Document - Hierarchical Graph Serialization
// =============================================================================

// Document is the canonical serialization format for hierarchical graphs.
// Used for graph files, API payloads, and storage.
//
// Hidden flags and hyperedges are derived state and never serialized;
// loading replays the recorded collapse flags so aggregation is rebuilt.
type Document struct {
	Containers []Container `json:"containers,omitempty" bson:"containers,omitempty"`
	Nodes      []Node      `json:"nodes" bson:"nodes"`
	Edges      []Edge      `json:"edges,omitempty" bson:"edges,omitempty"`
}

// Node is the wire form of a leaf entity.
type Node struct {
	ID     string   `json:"id" bson:"id"`
	Label  string   `json:"label,omitempty" bson:"label,omitempty"`
	Type   string   `json:"type,omitempty" bson:"type,omitempty"`
	Parent string   `json:"parent,omitempty" bson:"parent,omitempty"`
	Tags   []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// Container is the wire form of a group entity.
type Container struct {
	ID        string `json:"id" bson:"id"`
	Label     string `json:"label,omitempty" bson:"label,omitempty"`
	Parent    string `json:"parent,omitempty" bson:"parent,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
}

// Edge is the wire form of a directed connection.
type Edge struct {
	ID     string   `json:"id,omitempty" bson:"id,omitempty"`
	Source string   `json:"source" bson:"source"`
	Target string   `json:"target" bson:"target"`
	Type   string   `json:"type,omitempty" bson:"type,omitempty"`
	Tags   []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// =============================================================================
// Store ↔ Document Conversion
// =============================================================================

// FromStore converts a store to its serialization format.
// Entities are sorted by ID for deterministic output.
func FromStore(s *hgraph.Store) Document {
	doc := Document{}

	for _, c := range s.Containers() {
		parent, _ := s.Parent(c.ID)
		doc.Containers = append(doc.Containers, Container{
			ID:        c.ID,
			Label:     c.Label,
			Parent:    parent,
			Collapsed: c.Collapsed,
		})
	}
	for _, n := range s.Nodes() {
		parent, _ := s.Parent(n.ID)
		doc.Nodes = append(doc.Nodes, Node{
			ID:     n.ID,
			Label:  n.Label,
			Type:   n.Type,
			Parent: parent,
			Tags:   slices.Clone(n.Tags),
		})
	}
	for _, e := range s.Edges() {
		doc.Edges = append(doc.Edges, Edge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Type:   e.Type,
			Tags:   slices.Clone(e.Tags),
		})
	}

	slices.SortFunc(doc.Containers, func(a, b Container) int { return compareID(a.ID, b.ID) })
	slices.SortFunc(doc.Nodes, func(a, b Node) int { return compareID(a.ID, b.ID) })
	slices.SortFunc(doc.Edges, func(a, b Edge) int { return compareID(a.ID, b.ID) })
	return doc
}

// ToStore converts a document into a populated store.
// Entities are registered before hierarchy, and hierarchy before edges, so
// every reference resolves regardless of document ordering. Recorded
// collapse flags are replayed through the collapse engine.
func ToStore(doc Document, logger *log.Logger) (*hgraph.Store, error) {
	s := hgraph.New()

	for _, c := range doc.Containers {
		if err := s.AddContainer(hgraph.Container{ID: c.ID, Label: c.Label}); err != nil {
			return nil, fmt.Errorf("container %q: %w", c.ID, err)
		}
	}
	for _, n := range doc.Nodes {
		if err := s.AddNode(hgraph.Node{
			ID:    n.ID,
			Label: n.Label,
			Type:  n.Type,
			Tags:  slices.Clone(n.Tags),
		}); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}

	for _, c := range doc.Containers {
		if c.Parent == "" {
			continue
		}
		if err := s.AddChild(c.Parent, c.ID); err != nil {
			return nil, fmt.Errorf("container %q parent: %w", c.ID, err)
		}
	}
	for _, n := range doc.Nodes {
		if n.Parent == "" {
			continue
		}
		if err := s.AddChild(n.Parent, n.ID); err != nil {
			return nil, fmt.Errorf("node %q parent: %w", n.ID, err)
		}
	}

	for _, e := range doc.Edges {
		id := e.ID
		if id == "" {
			id = e.Source + "->" + e.Target
		}
		if err := s.AddEdge(hgraph.Edge{
			ID:     id,
			Source: e.Source,
			Target: e.Target,
			Type:   e.Type,
			Tags:   slices.Clone(e.Tags),
		}); err != nil {
			return nil, fmt.Errorf("edge %q: %w", id, err)
		}
	}

	if err := replayCollapses(s, doc, logger); err != nil {
		return nil, err
	}
	return s, nil
}

// replayCollapses applies recorded collapse flags deepest first, the same
// order CollapseAll uses, so nested aggregations re-anchor step by step.
func replayCollapses(s *hgraph.Store, doc Document, logger *log.Logger) error {
	collapsed := make(map[string]bool, len(doc.Containers))
	for _, c := range doc.Containers {
		if c.Collapsed {
			collapsed[c.ID] = true
		}
	}
	if len(collapsed) == 0 {
		return nil
	}

	ops := collapse.NewOps(s, logger)
	order := s.PreOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if !collapsed[order[i]] {
			continue
		}
		if err := ops.Collapse(order[i], collapse.OriginSystem); err != nil {
			return fmt.Errorf("collapse %q: %w", order[i], err)
		}
	}
	return nil
}

func compareID(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// UnmarshalDocument parses JSON bytes into a Document without building a
// store. Useful for validation and inspection.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}
