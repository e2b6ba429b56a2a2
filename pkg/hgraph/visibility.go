package hgraph

// visibilityCache memoizes the derived visible sets. It is rebuilt lazily:
// reads compare version against the store's counter and recompute on a
// mismatch, so a burst of writes costs one rebuild, not one per write.
type visibilityCache struct {
	version    uint64
	valid      bool
	nodes      []*Node
	containers []*Container
	edges      []*Edge
}

func (s *Store) refreshVisibility() {
	if s.vis.valid && s.vis.version == s.version {
		return
	}
	s.vis = visibilityCache{version: s.version, valid: true}
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok && !n.Hidden {
			s.vis.nodes = append(s.vis.nodes, n)
		}
		if c, ok := s.containers[id]; ok && !c.Hidden {
			s.vis.containers = append(s.vis.containers, c)
		}
	}
	for _, id := range s.edgeOrder {
		if e := s.edges[id]; !e.Hidden {
			s.vis.edges = append(s.vis.edges, e)
		}
	}
}

// VisibleNodes returns all nodes with Hidden=false, in insertion order.
// The result is cached until the next structural mutation.
func (s *Store) VisibleNodes() []*Node {
	s.refreshVisibility()
	return s.vis.nodes
}

// VisibleContainers returns all containers with Hidden=false, in insertion
// order. Collapsed containers are included: collapse hides contents, not the
// container itself.
func (s *Store) VisibleContainers() []*Container {
	s.refreshVisibility()
	return s.vis.containers
}

// VisibleEdges returns all edges with Hidden=false, in insertion order.
// Hyperedges are reported separately by HyperEdges.
func (s *Store) VisibleEdges() []*Edge {
	s.refreshVisibility()
	return s.vis.edges
}

// Visible reports whether the entity with the given ID is currently visible.
// Unknown IDs are not visible.
func (s *Store) Visible(id string) bool {
	if n, ok := s.nodes[id]; ok {
		return !n.Hidden
	}
	if c, ok := s.containers[id]; ok {
		return !c.Hidden
	}
	return false
}

// VisibleAncestor returns the nearest visible ancestor of an entity: the
// entity itself when visible, otherwise the closest enclosing container that
// is visible. Returns "" when the entity is unknown or nothing above it is
// visible.
func (s *Store) VisibleAncestor(id string) string {
	if !s.isEndpoint(id) {
		return ""
	}
	for cur := id; cur != ""; cur = s.parent[cur] {
		if s.Visible(cur) {
			return cur
		}
		if _, ok := s.parent[cur]; !ok {
			break
		}
	}
	return ""
}

// EffectivelyCollapsed reports whether a container is collapsed itself or
// sits beneath a collapsed ancestor. The stored Collapsed flag of descendants
// is left untouched by collapse cascades so expansion can restore exactly the
// previously visible set; this derived query is what invariant checks and
// renderers should use.
func (s *Store) EffectivelyCollapsed(id string) bool {
	c, ok := s.containers[id]
	if !ok {
		return false
	}
	if c.Collapsed {
		return true
	}
	for cur := s.parent[id]; cur != ""; {
		if anc, ok := s.containers[cur]; ok && anc.Collapsed {
			return true
		}
		next, ok := s.parent[cur]
		if !ok {
			break
		}
		cur = next
	}
	return false
}
