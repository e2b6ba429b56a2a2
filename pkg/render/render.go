// Package render turns the visible entity set into render-ready frames:
// an ordered list of drawable boxes with parent-nesting metadata and an
// edge list with aggregation counts. Frame building is stateless with
// respect to the store; the renderer only carries style configuration.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// Highlight kinds attached to display nodes.
const (
	HighlightNone   = ""
	HighlightSearch = "search"
	HighlightFocus  = "focus"
)

// Edge style names accepted by SetEdgeStyle.
const (
	EdgeStyleStraight   = "straight"
	EdgeStyleCurved     = "curved"
	EdgeStyleOrthogonal = "orthogonal"
)

// DefaultPalette is the palette selected by New.
const DefaultPalette = "default"

// palettes maps palette names to container fill colors by nesting depth;
// depth wraps around when the hierarchy is deeper than the palette.
var palettes = map[string][]string{
	"default": {"#ffffff", "#f0f4f8", "#d9e2ec", "#bcccdc"},
	"ocean":   {"#e0fbfc", "#98c1d9", "#3d5a80", "#293241"},
	"sunset":  {"#fff3e0", "#ffcc80", "#ff8a65", "#d84315"},
	"mono":    {"#ffffff", "#eeeeee", "#dddddd", "#cccccc"},
}

var edgeStyles = map[string]bool{
	EdgeStyleStraight:   true,
	EdgeStyleCurved:     true,
	EdgeStyleOrthogonal: true,
}

// DisplayNode is one drawable box: a node or a container summary. Parent
// and Depth carry the nesting metadata renderers need to draw containers
// behind their children.
type DisplayNode struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Kind      string       `json:"kind"`
	Parent    string       `json:"parent,omitempty"`
	Depth     int          `json:"depth"`
	Collapsed bool         `json:"collapsed,omitempty"`
	Rect      *hgraph.Rect `json:"rect,omitempty"`
	Color     string       `json:"color"`
	Highlight string       `json:"highlight,omitempty"`
	Tags      []string     `json:"tags,omitempty"`
}

// DisplayEdge is one drawable connection. Aggregated edges carry the
// multiplicity of the original edges they summarize.
type DisplayEdge struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Type       string `json:"type,omitempty"`
	Style      string `json:"style"`
	Aggregated bool   `json:"aggregated,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// Frame is one render-ready snapshot. Nodes are in hierarchy pre-order so
// parents precede their children; drawing in slice order nests correctly.
type Frame struct {
	Nodes   []DisplayNode `json:"nodes"`
	Edges   []DisplayEdge `json:"edges"`
	Palette string        `json:"palette"`
	Version uint64        `json:"version"`
}

// Highlights are the ad-hoc annotations accompanying a frame request.
type Highlights struct {
	SearchMatches []string
	FocusTarget   string
}

// Renderer builds frames. Safe to call repeatedly; it never mutates the
// store.
type Renderer struct {
	palette   string
	edgeStyle string
	logger    *log.Logger
}

// New creates a renderer with the default palette and straight edges.
func New(logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Renderer{palette: DefaultPalette, edgeStyle: EdgeStyleStraight, logger: logger}
}

// SetPalette switches the color palette. Unknown names are rejected.
func (r *Renderer) SetPalette(name string) error {
	if _, ok := palettes[name]; !ok {
		return fmt.Errorf("unknown palette %q", name)
	}
	r.palette = name
	return nil
}

// Palette returns the active palette name.
func (r *Renderer) Palette() string { return r.palette }

// SetEdgeStyle switches the edge drawing style. Unknown names are rejected.
func (r *Renderer) SetEdgeStyle(name string) error {
	if !edgeStyles[name] {
		return fmt.Errorf("unknown edge style %q", name)
	}
	r.edgeStyle = name
	return nil
}

// EdgeStyle returns the active edge style name.
func (r *Renderer) EdgeStyle() string { return r.edgeStyle }

// Palettes returns the available palette names, sorted.
func Palettes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Frame builds a render-ready frame from the current visible entity set.
func (r *Renderer) Frame(s *hgraph.Store, hl Highlights) *Frame {
	matches := make(map[string]struct{}, len(hl.SearchMatches))
	for _, id := range hl.SearchMatches {
		matches[id] = struct{}{}
	}
	colors := palettes[r.palette]

	frame := &Frame{Palette: r.palette, Version: s.Version()}
	for _, id := range s.PreOrder() {
		if !s.Visible(id) {
			continue
		}
		dn, ok := r.displayNode(s, id)
		if !ok {
			continue
		}
		dn.Color = colors[dn.Depth%len(colors)]
		if id == hl.FocusTarget {
			dn.Highlight = HighlightFocus
		} else if _, hit := matches[id]; hit {
			dn.Highlight = HighlightSearch
		}
		frame.Nodes = append(frame.Nodes, dn)
	}

	for _, e := range s.VisibleEdges() {
		frame.Edges = append(frame.Edges, DisplayEdge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Type:   e.Type,
			Style:  r.edgeStyle,
		})
	}
	hyper := s.HyperEdges()
	sort.Slice(hyper, func(i, j int) bool { return hyper[i].ID < hyper[j].ID })
	for _, h := range hyper {
		frame.Edges = append(frame.Edges, DisplayEdge{
			ID:         h.ID,
			Source:     h.Source,
			Target:     h.Target,
			Style:      r.edgeStyle,
			Aggregated: true,
			Count:      h.Multiplicity(),
		})
	}

	r.logger.Debug("frame", "nodes", len(frame.Nodes), "edges", len(frame.Edges))
	return frame
}

func (r *Renderer) displayNode(s *hgraph.Store, id string) (DisplayNode, bool) {
	parent, _ := s.Parent(id)
	depth := len(s.HierarchyPath(id)) - 1
	if depth < 0 {
		depth = 0
	}

	if n, ok := s.Node(id); ok {
		return DisplayNode{
			ID:     n.ID,
			Label:  n.DisplayLabel(),
			Kind:   "node",
			Parent: parent,
			Depth:  depth,
			Rect:   n.Placement,
			Tags:   n.Tags,
		}, true
	}
	if c, ok := s.Container(id); ok {
		label := c.Label
		if label == "" {
			label = c.ID
		}
		return DisplayNode{
			ID:        c.ID,
			Label:     label,
			Kind:      "container",
			Parent:    parent,
			Depth:     depth,
			Collapsed: c.Collapsed,
			Rect:      c.Placement,
		}, true
	}
	return DisplayNode{}, false
}
