package collapse

import (
	"fmt"

	"github.com/matzehuels/flowscope/pkg/errors"
)

// ExpansionCheck is the structured result of the expansion precondition
// validation. CanExpand=false is not an error: callers inspect Issues and
// react without a try/catch dance.
type ExpansionCheck struct {
	CanExpand     bool     `json:"can_expand"`
	Issues        []string `json:"issues,omitempty"`
	AffectedEdges []string `json:"affected_edges,omitempty"`
}

// InvalidEdge describes an edge that failed post-expansion validation.
type InvalidEdge struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// EdgeValidation is the result of PostExpansionEdgeValidation.
type EdgeValidation struct {
	Valid   []string      `json:"valid,omitempty"`
	Invalid []InvalidEdge `json:"invalid,omitempty"`
	Fixed   []string      `json:"fixed,omitempty"`
}

// Expand restores the container and exactly the set of descendants that were
// visible before the matching collapse: nested containers that were
// themselves collapsed stay collapsed and keep their contents hidden.
// Hyperedges anchored at the container are decomposed; member edges whose
// endpoints are both visible again are restored, the rest re-fold against
// their new anchors.
//
// The expansion precondition (no collapsed ancestor) is validated first; a
// failed check is returned with CanExpand=false and no mutation performed.
func (o *Ops) Expand(id string, origin Origin) (ExpansionCheck, error) {
	check := o.ValidateExpansion(id)
	if !check.CanExpand {
		return check, nil
	}
	if origin == OriginUser {
		o.userOperated = true
	}

	c, _ := o.store.Container(id)
	if !c.Collapsed {
		return check, nil
	}

	if err := o.store.SetCollapsed(id, false); err != nil {
		return check, err
	}

	restored := o.showDescendants(id)
	o.decomposeAnchoredHyperEdges(id)
	o.reaggregateSubtreeEdges(id)

	o.logger.Debug("expanded container", "id", id, "restored", len(restored))
	return check, o.store.Validate()
}

// ExpandForSearch expands every collapsed ancestor of an entity so a search
// match becomes visible, outermost first. Search-driven expansion is a system
// operation: it does not count as a user preference change, so the
// smart-collapse heuristic stays armed.
func (o *Ops) ExpandForSearch(id string) error {
	path := o.store.HierarchyPath(id)
	if path == nil {
		return errors.New(errors.ErrCodeNotFound, "entity %s does not exist", id)
	}
	// Skip the entity itself: revealing a match requires visible, not expanded.
	for _, anc := range path[:len(path)-1] {
		c, ok := o.store.Container(anc)
		if !ok || !c.Collapsed {
			continue
		}
		if _, err := o.Expand(anc, OriginSystem); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExpansion checks the expansion precondition without mutating.
// CanExpand is false when the container does not exist or an ancestor is
// collapsed. AffectedEdges lists the edges whose visibility the expansion
// may change (hyperedge members anchored here plus hidden incident edges of
// the subtree).
func (o *Ops) ValidateExpansion(id string) ExpansionCheck {
	check := ExpansionCheck{CanExpand: true}

	if _, ok := o.store.Container(id); !ok {
		return ExpansionCheck{
			CanExpand: false,
			Issues:    []string{fmt.Sprintf("container %s does not exist", id)},
		}
	}

	for _, anc := range o.store.ContainerAncestors(id) {
		if c, ok := o.store.Container(anc); ok && c.Collapsed {
			check.CanExpand = false
			check.Issues = append(check.Issues,
				fmt.Sprintf("ancestor %s is collapsed; expand it first", anc))
		}
	}
	if !check.CanExpand {
		return check
	}

	seen := make(map[string]struct{})
	for _, h := range o.store.HyperEdges() {
		if h.Source != id && h.Target != id {
			continue
		}
		for _, m := range h.Members {
			if _, dup := seen[m]; !dup {
				seen[m] = struct{}{}
				check.AffectedEdges = append(check.AffectedEdges, m)
			}
		}
	}
	for _, desc := range o.store.Descendants(id) {
		for _, eid := range o.store.IncidentEdges(desc) {
			if e, ok := o.store.Edge(eid); ok && e.Hidden {
				if _, dup := seen[eid]; !dup {
					seen[eid] = struct{}{}
					check.AffectedEdges = append(check.AffectedEdges, eid)
				}
			}
		}
	}
	return check
}

// PostExpansionEdgeValidation audits the edges of a freshly expanded subtree
// to catch endpoint drift introduced by concurrent mutation. Edges with a
// missing endpoint are reported invalid; edges whose hidden flag disagrees
// with endpoint visibility are repaired in place - repairs log and continue
// rather than abort the enclosing expand.
func (o *Ops) PostExpansionEdgeValidation(id string) EdgeValidation {
	var result EdgeValidation

	scope := append([]string{id}, o.store.Descendants(id)...)
	seen := make(map[string]struct{})
	for _, entity := range scope {
		for _, eid := range o.store.IncidentEdges(entity) {
			if _, dup := seen[eid]; dup {
				continue
			}
			seen[eid] = struct{}{}

			e, ok := o.store.Edge(eid)
			if !ok {
				result.Invalid = append(result.Invalid, InvalidEdge{ID: eid, Reason: "edge missing from store"})
				continue
			}
			if !o.entityExists(e.Source) {
				result.Invalid = append(result.Invalid, InvalidEdge{ID: eid, Reason: fmt.Sprintf("source %s missing", e.Source)})
				continue
			}
			if !o.entityExists(e.Target) {
				result.Invalid = append(result.Invalid, InvalidEdge{ID: eid, Reason: fmt.Sprintf("target %s missing", e.Target)})
				continue
			}

			wantHidden := !o.store.Visible(e.Source) || !o.store.Visible(e.Target)
			if e.Hidden != wantHidden {
				_ = o.store.SetEdgeHidden(eid, wantHidden)
				o.logger.Warn("repaired edge visibility", "edge", eid, "hidden", wantHidden)
				result.Fixed = append(result.Fixed, eid)
				continue
			}
			result.Valid = append(result.Valid, eid)
		}
	}
	return result
}

func (o *Ops) entityExists(id string) bool {
	if _, ok := o.store.Node(id); ok {
		return true
	}
	_, ok := o.store.Container(id)
	return ok
}

// showDescendants restores visibility below the container using an explicit
// worklist. Recursion stops at nested containers that are themselves
// collapsed: their flag was preserved by the collapse cascade, so the
// previously visible set comes back exactly.
func (o *Ops) showDescendants(id string) []string {
	var restored []string
	work := append([]string{}, o.store.Children(id)...)
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		if c, ok := o.store.Container(cur); ok {
			_ = o.store.SetContainerHidden(cur, false)
			restored = append(restored, cur)
			if !c.Collapsed {
				work = append(work, o.store.Children(cur)...)
			}
			continue
		}
		_ = o.store.SetNodeHidden(cur, false)
		restored = append(restored, cur)
	}
	return restored
}

// decomposeAnchoredHyperEdges removes every hyperedge anchored at the
// expanded container and redistributes its members: edges whose endpoints
// are both visible again are restored, the rest re-fold into (possibly
// smaller) hyperedges at their new anchors.
func (o *Ops) decomposeAnchoredHyperEdges(id string) {
	for _, h := range o.store.HyperEdges() {
		if h.Source != id && h.Target != id {
			continue
		}
		members := h.Members
		o.store.RemoveHyperEdge(h.ID)
		for _, m := range members {
			e, ok := o.store.Edge(m)
			if !ok {
				o.logger.Warn("hyperedge member missing during expand", "edge", m)
				continue
			}
			if o.store.Visible(e.Source) && o.store.Visible(e.Target) {
				_ = o.store.SetEdgeHidden(m, false)
				continue
			}
			o.foldEdge(e)
		}
	}
}

// reaggregateSubtreeEdges re-evaluates every hidden edge touching the
// reopened subtree. Edges whose endpoints are both visible again are
// restored; edges that were folded away as internal by an ancestor collapse
// re-fold against their current anchors. The scan covers still-hidden
// descendants too: an edge between two nested collapsed containers is
// indexed only under its leaf endpoints.
func (o *Ops) reaggregateSubtreeEdges(id string) {
	for _, entity := range o.store.Descendants(id) {
		for _, eid := range o.store.IncidentEdges(entity) {
			e, ok := o.store.Edge(eid)
			if !ok || !e.Hidden {
				continue
			}
			if o.store.Visible(e.Source) && o.store.Visible(e.Target) {
				_ = o.store.SetEdgeHidden(eid, false)
				continue
			}
			o.foldEdge(e)
		}
	}
}
