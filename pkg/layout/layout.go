// Package layout computes positions and dimensions for the visible entity
// set. The Graphviz engine converts the visible hierarchy to DOT (expanded
// containers become clusters, collapsed ones compact summary boxes), runs a
// Graphviz layout pass, and reads positions back from the xdot output.
package layout

import (
	"context"

	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// Result holds per-entity placements in layout points. Keys are entity IDs;
// expanded containers carry their cluster bounding box.
type Result struct {
	Items map[string]hgraph.Rect `json:"items"`
}

// Engine computes a layout for the currently visible entity set.
// Implementations must not mutate the store.
type Engine interface {
	Layout(ctx context.Context, s *hgraph.Store) (*Result, error)
}

// Apply writes the computed placements back into the store and returns the
// number applied. Entities in the result that no longer exist are skipped:
// layout runs asynchronously and the store may have changed under it.
func Apply(s *hgraph.Store, r *Result) int {
	if r == nil {
		return 0
	}
	applied := 0
	for id, rect := range r.Items {
		if err := s.SetPlacement(id, rect); err == nil {
			applied++
		}
	}
	return applied
}

// Degenerate reports whether the result is unusable for viewport fitting:
// no items, or every placement collapsed onto a single point.
func Degenerate(r *Result) bool {
	if r == nil || len(r.Items) == 0 {
		return true
	}
	var first hgraph.Rect
	got := false
	for _, rect := range r.Items {
		if rect.Width > 0 || rect.Height > 0 {
			return false
		}
		if !got {
			first, got = rect, true
			continue
		}
		if rect.X != first.X || rect.Y != first.Y {
			return false
		}
	}
	return true
}
