package hgraph

import (
	"strings"

	"github.com/matzehuels/flowscope/pkg/errors"
)

// Validate checks the store's global invariants and returns nil if all hold.
// A violation is reported as an INVARIANT_VIOLATION error carrying the
// offending IDs; callers treat it as fatal for the current operation, since
// it indicates a bug in the calling sequence rather than a user error.
//
// Checked invariants:
//
//  1. The collapsed-containers index equals the set of containers with
//     Collapsed=true.
//  2. Every descendant of a collapsed container is hidden.
//  3. An edge is hidden iff either endpoint is hidden.
//  4. Every edge endpoint references an existing node or container.
//  5. Hyperedge anchors are visible and members exist and are hidden.
func (s *Store) Validate() error {
	if err := s.validateCollapsedIndex(); err != nil {
		return err
	}
	if err := s.validateCollapseClosure(); err != nil {
		return err
	}
	if err := s.validateEdges(); err != nil {
		return err
	}
	return s.validateHyperEdges()
}

func (s *Store) validateCollapsedIndex() error {
	for id, c := range s.containers {
		_, indexed := s.collapsed[id]
		if c.Collapsed != indexed {
			return errors.New(errors.ErrCodeInvariantViolation,
				"collapsed index out of sync for container %s: flag=%v indexed=%v", id, c.Collapsed, indexed)
		}
	}
	for id := range s.collapsed {
		if _, ok := s.containers[id]; !ok {
			return errors.New(errors.ErrCodeInvariantViolation,
				"collapsed index references missing container %s", id)
		}
	}
	return nil
}

func (s *Store) validateCollapseClosure() error {
	for id := range s.collapsed {
		var hiddenViolations []string
		for _, desc := range s.Descendants(id) {
			if s.Visible(desc) {
				hiddenViolations = append(hiddenViolations, desc)
			}
		}
		if len(hiddenViolations) > 0 {
			return errors.New(errors.ErrCodeInvariantViolation,
				"collapsed container %s has visible descendants: %s", id, strings.Join(hiddenViolations, ", "))
		}
	}
	return nil
}

func (s *Store) validateEdges() error {
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		if !s.isEndpoint(e.Source) {
			return errors.New(errors.ErrCodeInvariantViolation,
				"edge %s references missing source %s", e.ID, e.Source)
		}
		if !s.isEndpoint(e.Target) {
			return errors.New(errors.ErrCodeInvariantViolation,
				"edge %s references missing target %s", e.ID, e.Target)
		}
		endpointHidden := !s.Visible(e.Source) || !s.Visible(e.Target)
		if endpointHidden && !e.Hidden {
			return errors.New(errors.ErrCodeInvariantViolation,
				"edge %s is visible but endpoint is hidden (source=%s target=%s)", e.ID, e.Source, e.Target)
		}
		if !endpointHidden && e.Hidden {
			return errors.New(errors.ErrCodeInvariantViolation,
				"edge %s is hidden but both endpoints are visible (source=%s target=%s)", e.ID, e.Source, e.Target)
		}
	}
	return nil
}

func (s *Store) validateHyperEdges() error {
	for id, h := range s.hyper {
		if !s.Visible(h.Source) || !s.Visible(h.Target) {
			return errors.New(errors.ErrCodeInvariantViolation,
				"hyperedge %s anchored at hidden entity (source=%s target=%s)", id, h.Source, h.Target)
		}
		if len(h.Members) == 0 {
			return errors.New(errors.ErrCodeInvariantViolation, "hyperedge %s has no members", id)
		}
		for _, m := range h.Members {
			e, ok := s.edges[m]
			if !ok {
				return errors.New(errors.ErrCodeInvariantViolation,
					"hyperedge %s references missing edge %s", id, m)
			}
			if !e.Hidden {
				return errors.New(errors.ErrCodeInvariantViolation,
					"hyperedge %s represents visible edge %s", id, m)
			}
		}
	}
	return nil
}
