package hgraph

import "slices"

// Rect is a placement computed by a layout pass: position plus dimensions.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a leaf vertex in the hierarchical graph.
//
// The zero value is not usable - ID must be set before adding to a Store.
// Hidden is derived state maintained by collapse cascades; callers should
// not flip it directly outside the collapse package.
type Node struct {
	ID     string   // Unique identifier across all entities
	Label  string   // Display label (defaults to ID)
	Type   string   // Type tag for styling (e.g. "service", "queue")
	Tags   []string // Semantic tags consumed by the renderer
	Hidden bool     // True when an ancestor container is collapsed

	// Placement is set once a layout pass has run. Nil before the first pass.
	Placement *Rect
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// HasTag reports whether the node carries the given semantic tag.
func (n *Node) HasTag(tag string) bool { return slices.Contains(n.Tags, tag) }

// Container is a nestable group entity. Collapsed containers remain visible
// (a compact summary) while everything beneath them is hidden. Children are
// tracked by the store's parent/child indices, not embedded here.
type Container struct {
	ID        string
	Label     string
	Collapsed bool
	Hidden    bool

	// Placement is set once a layout pass has run. Nil before the first pass.
	Placement *Rect
	// ExpandedSize caches the container's footprint when expanded, used by
	// the smart-collapse heuristic before any layout pass has run.
	ExpandedSize *Rect
}

// DisplayLabel returns the label if set, otherwise the ID.
func (c *Container) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// Edge is a directed connection between two entities (nodes or containers).
// An edge is hidden iff either endpoint is hidden.
type Edge struct {
	ID     string
	Source string
	Target string
	Type   string
	Tags   []string
	Hidden bool
}

// HyperEdge is a synthesized edge representing one or more real edges whose
// endpoints are hidden inside collapsed containers. Its endpoints are the
// nearest visible ancestors of the original endpoints, and Members records
// the contributing edge IDs so the aggregation can be reversed exactly on
// expansion. Hyperedges are derived state: they are recomputed whenever the
// collapse set changes and are never persisted independently.
type HyperEdge struct {
	ID      string
	Source  string   // Nearest visible ancestor of the original sources
	Target  string   // Nearest visible ancestor of the original targets
	Members []string // Original edge IDs represented by this hyperedge
}

// Multiplicity returns the number of real edges this hyperedge represents.
func (h *HyperEdge) Multiplicity() int { return len(h.Members) }

// HasMember reports whether the hyperedge represents the given edge.
func (h *HyperEdge) HasMember(edgeID string) bool { return slices.Contains(h.Members, edgeID) }
