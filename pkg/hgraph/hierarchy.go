package hgraph

import "slices"

// hierarchyCache memoizes hierarchy traversals keyed by the cache version.
// Entries are computed per ID on first read and dropped wholesale when the
// version moves, which keeps bulk edits cheap.
type hierarchyCache struct {
	version     uint64
	valid       bool
	ancestors   map[string][]string
	paths       map[string][]string
	descendants map[string][]string
	preorder    []string
	preorderPos map[string]int
}

func (s *Store) refreshHierarchy() {
	if s.hier.valid && s.hier.version == s.version {
		return
	}
	s.hier = hierarchyCache{
		version:     s.version,
		valid:       true,
		ancestors:   make(map[string][]string),
		paths:       make(map[string][]string),
		descendants: make(map[string][]string),
	}
}

// ContainerAncestors returns the chain of containers enclosing an entity,
// nearest first. Returns nil for unknown or top-level entities.
func (s *Store) ContainerAncestors(id string) []string {
	s.refreshHierarchy()
	if anc, ok := s.hier.ancestors[id]; ok {
		return anc
	}
	var anc []string
	for cur, ok := s.parent[id]; ok; cur, ok = s.parent[cur] {
		anc = append(anc, cur)
	}
	s.hier.ancestors[id] = anc
	return anc
}

// NodeContainer returns the container directly holding a node, or "" for
// top-level nodes.
func (s *Store) NodeContainer(id string) string {
	return s.parent[id]
}

// HierarchyPath returns the path from the root container down to the entity,
// inclusive. Returns nil for unknown IDs.
func (s *Store) HierarchyPath(id string) []string {
	if !s.isEndpoint(id) {
		return nil
	}
	s.refreshHierarchy()
	if p, ok := s.hier.paths[id]; ok {
		return p
	}
	anc := s.ContainerAncestors(id)
	path := make([]string, 0, len(anc)+1)
	for i := len(anc) - 1; i >= 0; i-- {
		path = append(path, anc[i])
	}
	path = append(path, id)
	s.hier.paths[id] = path
	return path
}

// Descendants returns every entity beneath a container, transitively.
// The walk is iterative over the child index (explicit worklist), so depth
// is bounded by memory, not stack.
func (s *Store) Descendants(containerID string) []string {
	if _, ok := s.containers[containerID]; !ok {
		return nil
	}
	s.refreshHierarchy()
	if d, ok := s.hier.descendants[containerID]; ok {
		return d
	}
	var out []string
	work := slices.Clone(s.children[containerID])
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		out = append(out, id)
		if _, ok := s.containers[id]; ok {
			work = append(work, s.children[id]...)
		}
	}
	s.hier.descendants[containerID] = out
	return out
}

// PreOrder returns all nodes and containers in hierarchy pre-order:
// depth-first over the container tree, roots first (in insertion order),
// each container immediately followed by its children. This is the canonical
// ordering used to rank search results and to emit render frames.
func (s *Store) PreOrder() []string {
	s.refreshHierarchy()
	if s.hier.preorder != nil {
		return s.hier.preorder
	}
	out := make([]string, 0, len(s.order))
	var visit func(id string)
	visit = func(id string) {
		out = append(out, id)
		for _, child := range s.children[id] {
			visit(child)
		}
	}
	for _, id := range s.order {
		if _, ok := s.parent[id]; ok {
			continue // reached via its root
		}
		visit(id)
	}
	s.hier.preorder = out
	s.hier.preorderPos = make(map[string]int, len(out))
	for i, id := range out {
		s.hier.preorderPos[id] = i
	}
	return out
}

// PreOrderIndex returns the position of an entity in PreOrder, or -1 for
// unknown IDs.
func (s *Store) PreOrderIndex(id string) int {
	s.PreOrder()
	if pos, ok := s.hier.preorderPos[id]; ok {
		return pos
	}
	return -1
}
