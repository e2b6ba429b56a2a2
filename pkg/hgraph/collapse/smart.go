package collapse

import "math"

// Smart-collapse thresholds. A top-level container is collapsed on the very
// first layout pass when its child count or estimated expanded footprint
// exceeds these limits, keeping the opening view legible for graphs with a
// handful of very large groups.
const (
	// SmartChildThreshold is the child count above which a container is
	// auto-collapsed.
	SmartChildThreshold = 7

	// SmartWidthThreshold and SmartHeightThreshold bound the estimated
	// expanded footprint in layout units.
	SmartWidthThreshold  = 1200.0
	SmartHeightThreshold = 900.0

	// Per-child box estimate used before any layout pass has produced real
	// dimensions. Children are assumed to pack into a rough square grid.
	estimatedChildWidth  = 180.0
	estimatedChildHeight = 90.0
)

// SmartCollapse runs the one-time heuristic: for each top-level visible
// container whose child count exceeds SmartChildThreshold or whose estimated
// expanded footprint exceeds the width/height thresholds, the container is
// collapsed as a system operation. Containers under the thresholds are left
// expanded.
//
// The pass runs at most once: only when layoutCount is zero and no user
// collapse/expand has happened this session (or a one-shot override was
// armed via EnableSmartCollapseOnce). Returns the IDs that were collapsed,
// or nil when the pass was skipped.
func (o *Ops) SmartCollapse(layoutCount int) ([]string, error) {
	if layoutCount != 0 {
		return nil, nil
	}
	if o.userOperated && !o.smartOverride {
		return nil, nil
	}
	o.smartOverride = false

	var collapsed []string
	for _, c := range o.store.VisibleContainers() {
		if _, hasParent := o.store.Parent(c.ID); hasParent {
			continue
		}
		if c.Collapsed {
			continue
		}
		if !o.oversized(c.ID) {
			continue
		}
		if err := o.Collapse(c.ID, OriginSystem); err != nil {
			return collapsed, err
		}
		collapsed = append(collapsed, c.ID)
	}

	if len(collapsed) > 0 {
		o.logger.Info("smart collapse", "containers", len(collapsed))
	}
	return collapsed, nil
}

// EnableSmartCollapseOnce re-arms the heuristic for the next pipeline run
// even if a user operation disabled it. The override is consumed by the next
// SmartCollapse call.
func (o *Ops) EnableSmartCollapseOnce() { o.smartOverride = true }

// SmartCollapseDisabled reports whether a user operation has permanently
// disabled the heuristic for this session.
func (o *Ops) SmartCollapseDisabled() bool { return o.userOperated }

// DisableSmartCollapse switches the heuristic off for this session, the
// same way a user operation would. Used when configuration opts out.
func (o *Ops) DisableSmartCollapse() { o.userOperated = true }

// oversized reports whether a container trips the child-count or footprint
// thresholds.
func (o *Ops) oversized(id string) bool {
	n := len(o.store.Children(id))
	if n > SmartChildThreshold {
		return true
	}
	w, h := o.estimateFootprint(id, n)
	return w > SmartWidthThreshold || h > SmartHeightThreshold
}

// estimateFootprint returns the expected expanded dimensions: the cached
// expanded size when a previous layout produced one, otherwise a square-grid
// estimate from the child count.
func (o *Ops) estimateFootprint(id string, childCount int) (float64, float64) {
	if c, ok := o.store.Container(id); ok && c.ExpandedSize != nil {
		return c.ExpandedSize.Width, c.ExpandedSize.Height
	}
	if childCount == 0 {
		return 0, 0
	}
	cols := math.Ceil(math.Sqrt(float64(childCount)))
	rows := math.Ceil(float64(childCount) / cols)
	return cols * estimatedChildWidth, rows * estimatedChildHeight
}
