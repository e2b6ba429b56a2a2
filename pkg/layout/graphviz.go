package layout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// Supported Graphviz layout algorithms.
const (
	AlgorithmDot   = "dot"
	AlgorithmNeato = "neato"
	AlgorithmFDP   = "fdp"
	AlgorithmCirco = "circo"
)

// ValidAlgorithms is the set of accepted algorithm names.
var ValidAlgorithms = map[string]bool{
	AlgorithmDot:   true,
	AlgorithmNeato: true,
	AlgorithmFDP:   true,
	AlgorithmCirco: true,
}

// Graphviz lays out the visible hierarchy with a Graphviz engine. Expanded
// containers become clusters, collapsed containers and nodes become boxes,
// hyperedges become weighted edges between their anchors.
type Graphviz struct {
	algorithm string
	logger    *log.Logger
}

// NewGraphviz creates a Graphviz layout engine. An empty or unknown
// algorithm falls back to dot.
func NewGraphviz(algorithm string, logger *log.Logger) *Graphviz {
	if !ValidAlgorithms[algorithm] {
		algorithm = AlgorithmDot
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Graphviz{algorithm: algorithm, logger: logger}
}

// Algorithm returns the configured algorithm name.
func (g *Graphviz) Algorithm() string { return g.algorithm }

// Layout converts the visible entity set to DOT, runs the configured
// Graphviz algorithm, and parses positions from the xdot output.
func (g *Graphviz) Layout(ctx context.Context, s *hgraph.Store) (*Result, error) {
	dot := BuildDOT(s)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(g.algorithm))

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	result := ParseXDOT(buf.String())
	g.logger.Debug("layout pass", "algorithm", g.algorithm, "entities", len(result.Items))
	return result, nil
}

// BuildDOT renders the visible hierarchy as a DOT digraph. Top-level
// visible entities are emitted in hierarchy order; expanded containers
// recurse as clusters. Hidden entities and hidden edges never appear.
func BuildDOT(s *hgraph.Store) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n\n")

	for _, id := range s.PreOrder() {
		if _, hasParent := s.Parent(id); hasParent {
			continue
		}
		writeEntity(&buf, s, id, 1)
	}

	buf.WriteString("\n")
	for _, e := range s.VisibleEdges() {
		writeEdge(&buf, s, e.Source, e.Target, "")
	}
	for _, h := range s.HyperEdges() {
		attrs := fmt.Sprintf("penwidth=%d", clampPenwidth(h.Multiplicity()))
		if m := h.Multiplicity(); m > 1 {
			attrs += fmt.Sprintf(", label=\"x%d\"", m)
		}
		writeEdge(&buf, s, h.Source, h.Target, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeEntity emits one visible entity. Expanded containers with visible
// children become clusters and recurse; everything else is a plain box.
func writeEntity(buf *bytes.Buffer, s *hgraph.Store, id string, depth int) {
	if !s.Visible(id) {
		return
	}
	indent := strings.Repeat("  ", depth)

	if n, ok := s.Node(id); ok {
		fmt.Fprintf(buf, "%s%q [label=%q];\n", indent, n.ID, n.DisplayLabel())
		return
	}
	c, ok := s.Container(id)
	if !ok {
		return
	}
	label := c.Label
	if label == "" {
		label = c.ID
	}
	if c.Collapsed || len(s.Children(id)) == 0 {
		// Compact summary box; collapsed styling mirrors the subdivider
		// treatment so closed groups read differently from plain nodes.
		fmt.Fprintf(buf, "%s%q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n",
			indent, c.ID, label)
		return
	}
	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+c.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, label)
	for _, child := range s.Children(id) {
		writeEntity(buf, s, child, depth+1)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

// writeEdge emits one edge, redirecting cluster endpoints to a
// representative interior node with lhead/ltail so Graphviz clips the edge
// at the cluster border.
func writeEdge(buf *bytes.Buffer, s *hgraph.Store, source, target, attrs string) {
	src, ltail := edgeAnchor(s, source)
	dst, lhead := edgeAnchor(s, target)
	if src == "" || dst == "" {
		return
	}
	var extra []string
	if attrs != "" {
		extra = append(extra, attrs)
	}
	if ltail != "" {
		extra = append(extra, fmt.Sprintf("ltail=%q", ltail))
	}
	if lhead != "" {
		extra = append(extra, fmt.Sprintf("lhead=%q", lhead))
	}
	if len(extra) > 0 {
		fmt.Fprintf(buf, "  %q -> %q [%s];\n", src, dst, strings.Join(extra, ", "))
		return
	}
	fmt.Fprintf(buf, "  %q -> %q;\n", src, dst)
}

// edgeAnchor resolves an edge endpoint to a DOT node name. Expanded
// containers are clusters, so the edge attaches to their first visible
// descendant box and names the cluster for clipping.
func edgeAnchor(s *hgraph.Store, id string) (node, cluster string) {
	c, ok := s.Container(id)
	if !ok || c.Collapsed || len(s.Children(id)) == 0 {
		return id, ""
	}
	for _, desc := range s.Descendants(id) {
		if !s.Visible(desc) {
			continue
		}
		if dc, isContainer := s.Container(desc); isContainer && !dc.Collapsed && len(s.Children(desc)) > 0 {
			continue
		}
		return desc, "cluster_" + id
	}
	return "", ""
}

func clampPenwidth(multiplicity int) int {
	if multiplicity < 1 {
		return 1
	}
	if multiplicity > 6 {
		return 6
	}
	return multiplicity
}
