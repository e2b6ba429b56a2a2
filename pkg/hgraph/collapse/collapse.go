package collapse

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/hgraph"
)

// Origin distinguishes the two collapse call-sites. Only user operations
// permanently disable the smart-collapse heuristic for the session.
type Origin int

const (
	// OriginUser marks collapse/expand driven by direct interaction.
	OriginUser Origin = iota
	// OriginSystem marks internal collapse/expand, e.g. the initial smart
	// collapse or search-driven expansion.
	OriginSystem
)

// Ops mutates the collapse state of a store. It owns the session flags for
// the smart-collapse heuristic and is the only component that flips
// visibility flags; direct external mutation while an operation is in flight
// is not supported.
//
// Ops is not safe for concurrent use - the coordinator serializes access.
type Ops struct {
	store  *hgraph.Store
	logger *log.Logger

	userOperated  bool // a user collapse/expand happened this session
	smartOverride bool // one-shot re-enable of the smart-collapse pass
}

// NewOps creates the container-operations engine for a store.
// A nil logger discards output.
func NewOps(store *hgraph.Store, logger *log.Logger) *Ops {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Ops{store: store, logger: logger}
}

// Store returns the store this engine operates on.
func (o *Ops) Store() *hgraph.Store { return o.store }

// Collapse marks the container collapsed, hides all descendants, and folds
// boundary-crossing edges into hyperedges. Collapsing an already-collapsed
// container is a no-op. Returns a CONTAINER_NOT_FOUND error for unknown IDs
// and an INVARIANT_VIOLATION error if the store is left inconsistent (a bug,
// fatal for the current operation).
func (o *Ops) Collapse(id string, origin Origin) error {
	c, ok := o.store.Container(id)
	if !ok {
		return errors.New(errors.ErrCodeContainerNotFound, "container %s does not exist", id)
	}
	if origin == OriginUser {
		o.userOperated = true
	}
	if c.Collapsed {
		return nil
	}

	if err := o.store.SetCollapsed(id, true); err != nil {
		return err
	}

	// A container hidden under a collapsed ancestor has hidden descendants
	// already; only the flag changes.
	if c.Hidden {
		return o.store.Validate()
	}

	hidden := o.hideDescendants(id)
	o.reanchorHiddenHyperEdges()
	for _, entity := range hidden {
		o.foldIncidentEdges(entity)
	}

	o.logger.Debug("collapsed container", "id", id, "hidden", len(hidden))
	return o.store.Validate()
}

// Toggle collapses an expanded container and expands a collapsed one.
// For expansion the precondition check applies; see Expand.
func (o *Ops) Toggle(id string, origin Origin) (ExpansionCheck, error) {
	c, ok := o.store.Container(id)
	if !ok {
		return ExpansionCheck{}, errors.New(errors.ErrCodeContainerNotFound, "container %s does not exist", id)
	}
	if c.Collapsed {
		return o.Expand(id, origin)
	}
	return ExpansionCheck{CanExpand: true}, o.Collapse(id, origin)
}

// CollapseAll collapses every container, deepest first so that nested
// aggregations re-anchor step by step.
func (o *Ops) CollapseAll(origin Origin) error {
	order := o.store.PreOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if _, ok := o.store.Container(order[i]); !ok {
			continue
		}
		if err := o.Collapse(order[i], origin); err != nil {
			return err
		}
	}
	return nil
}

// ExpandAll expands every container, top down. A single pre-order pass
// suffices: parents are visited before children, so by the time a nested
// container is reached its expansion precondition holds.
func (o *Ops) ExpandAll(origin Origin) error {
	for _, id := range o.store.PreOrder() {
		c, ok := o.store.Container(id)
		if !ok || !c.Collapsed {
			continue
		}
		if _, err := o.Expand(id, origin); err != nil {
			return err
		}
	}
	return nil
}

// hideDescendants hides every entity beneath the container using an explicit
// worklist and returns the IDs that were visible before. Stored Collapsed
// flags of nested containers are left untouched so a later expand restores
// exactly the previous visible set.
func (o *Ops) hideDescendants(id string) []string {
	var hidden []string
	for _, desc := range o.store.Descendants(id) {
		if !o.store.Visible(desc) {
			continue
		}
		hidden = append(hidden, desc)
		if _, ok := o.store.Container(desc); ok {
			_ = o.store.SetContainerHidden(desc, true)
		} else {
			_ = o.store.SetNodeHidden(desc, true)
		}
	}
	return hidden
}

// foldIncidentEdges hides the still-visible edges touching a newly hidden
// entity and folds each into a hyperedge between the nearest visible
// ancestors of its endpoints. Edges whose endpoints share an anchor stay
// plain hidden: the collapsed summary already covers them.
func (o *Ops) foldIncidentEdges(entity string) {
	for _, eid := range o.store.IncidentEdges(entity) {
		e, ok := o.store.Edge(eid)
		if !ok || e.Hidden {
			continue
		}
		_ = o.store.SetEdgeHidden(eid, true)
		o.foldEdge(e)
	}
}

// foldEdge merges an edge into the hyperedge for its anchor pair, creating
// the hyperedge if the pair is new. No-op when both endpoints resolve to the
// same anchor (an edge internal to one collapsed subtree).
func (o *Ops) foldEdge(e *hgraph.Edge) {
	src := o.store.VisibleAncestor(e.Source)
	dst := o.store.VisibleAncestor(e.Target)
	if src == "" || dst == "" || src == dst {
		return
	}
	if h, ok := o.store.HyperEdgeBetween(src, dst); ok {
		if !h.HasMember(e.ID) {
			h.Members = append(h.Members, e.ID)
		}
		return
	}
	o.store.PutHyperEdge(hgraph.HyperEdge{Source: src, Target: dst, Members: []string{e.ID}})
}

// reanchorHiddenHyperEdges rebuilds hyperedges whose anchors were swallowed
// by the collapse: their members re-fold against the new visible ancestors.
func (o *Ops) reanchorHiddenHyperEdges() {
	for _, h := range o.store.HyperEdges() {
		if o.store.Visible(h.Source) && o.store.Visible(h.Target) {
			continue
		}
		members := h.Members
		o.store.RemoveHyperEdge(h.ID)
		for _, m := range members {
			if e, ok := o.store.Edge(m); ok {
				o.foldEdge(e)
			}
		}
	}
}
