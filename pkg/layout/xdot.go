package layout

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// pointsPerInch converts the width/height attributes (inches) to the pos
// coordinate space (points).
const pointsPerInch = 72.0

var (
	nodeStmtRe = regexp.MustCompile(`^\s*("(?:[^"\\]|\\.)*"|[^\s\[]+)\s+\[(.+)\];?\s*$`)
	posRe      = regexp.MustCompile(`pos="(-?[0-9.]+),(-?[0-9.]+)`)
	widthRe    = regexp.MustCompile(`width="?(-?[0-9.]+)"?`)
	heightRe   = regexp.MustCompile(`height="?(-?[0-9.]+)"?`)
	bbRe       = regexp.MustCompile(`bb="(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+)"`)
	clusterRe  = regexp.MustCompile(`subgraph\s+("cluster_(?:[^"\\]|\\.)*"|cluster_\S+)\s*\{`)
)

// ParseXDOT extracts entity placements from Graphviz xdot output. Node
// statements yield center positions (points) and sizes (inches); cluster
// subgraphs yield their bounding box. Coordinates are normalized to
// top-left-origin rectangles in points.
func ParseXDOT(xdot string) *Result {
	result := &Result{Items: make(map[string]hgraph.Rect)}

	// Undo line continuations so each statement fits one line.
	src := strings.ReplaceAll(xdot, "\\\n", "")

	var clusterStack []string
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := clusterRe.FindStringSubmatch(trimmed); m != nil {
			clusterStack = append(clusterStack, strings.TrimPrefix(unquote(m[1]), "cluster_"))
			continue
		}
		if trimmed == "}" {
			if len(clusterStack) > 0 {
				clusterStack = clusterStack[:len(clusterStack)-1]
			}
			continue
		}

		m := nodeStmtRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		name, attrs := unquote(m[1]), m[2]

		if name == "graph" {
			// Cluster bounding box; the root graph's bb is not an entity.
			if len(clusterStack) == 0 {
				continue
			}
			if bb := bbRe.FindStringSubmatch(attrs); bb != nil {
				x1, _ := strconv.ParseFloat(bb[1], 64)
				y1, _ := strconv.ParseFloat(bb[2], 64)
				x2, _ := strconv.ParseFloat(bb[3], 64)
				y2, _ := strconv.ParseFloat(bb[4], 64)
				result.Items[clusterStack[len(clusterStack)-1]] = hgraph.Rect{
					X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1,
				}
			}
			continue
		}
		if name == "node" || name == "edge" || strings.Contains(trimmed, "->") {
			continue
		}

		pos := posRe.FindStringSubmatch(attrs)
		width := widthRe.FindStringSubmatch(attrs)
		height := heightRe.FindStringSubmatch(attrs)
		if pos == nil || width == nil || height == nil {
			continue
		}
		cx, _ := strconv.ParseFloat(pos[1], 64)
		cy, _ := strconv.ParseFloat(pos[2], 64)
		w, _ := strconv.ParseFloat(width[1], 64)
		h, _ := strconv.ParseFloat(height[1], 64)
		w *= pointsPerInch
		h *= pointsPerInch
		result.Items[name] = hgraph.Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
	}
	return result
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
