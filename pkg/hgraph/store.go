package hgraph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidID is returned by the Add* methods when the entity ID is
	// empty. All entities must have non-empty identifiers.
	ErrInvalidID = errors.New("entity ID must not be empty")

	// ErrDuplicateID is returned by the Add* methods when an entity with the
	// same ID already exists. IDs are unique across nodes, containers, and
	// edges alike.
	ErrDuplicateID = errors.New("duplicate entity ID")

	// ErrUnknownEntity is returned when an operation references an ID that
	// does not exist in the store.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownEndpoint is returned by [Store.AddEdge] when an endpoint
	// references neither a node nor a container. Dangling references are
	// rejected at the API boundary, never left in the store.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")

	// ErrUnknownContainer is returned when a container operation references
	// an ID that is not a container.
	ErrUnknownContainer = errors.New("unknown container")

	// ErrAlreadyParented is returned by [Store.AddChild] when the child
	// already belongs to another container.
	ErrAlreadyParented = errors.New("entity already has a parent")

	// ErrHierarchyCycle is returned by [Store.AddChild] when the assignment
	// would make a container its own ancestor.
	ErrHierarchyCycle = errors.New("hierarchy cycle")

	// ErrContainerNotEmpty is returned by [Store.RemoveContainer] when the
	// container still has children.
	ErrContainerNotEmpty = errors.New("container not empty")
)

// anchorPair keys the hyperedge aggregation table: one entry per directed
// pair of visible anchors, so merging is a map lookup rather than an edge scan.
type anchorPair struct {
	Source string
	Target string
}

// Store owns the entity maps and parent/child indices for one hierarchical
// graph. It is the single shared mutable resource of the engine: obtain an
// instance with New and pass it explicitly - there are no ambient singletons.
type Store struct {
	nodes      map[string]*Node
	containers map[string]*Container
	edges      map[string]*Edge
	hyper      map[string]*HyperEdge

	// order preserves insertion order of nodes and containers for
	// deterministic iteration and pre-order traversal.
	order     []string
	edgeOrder []string

	parent   map[string]string   // child ID -> container ID
	children map[string][]string // container ID -> child IDs, insertion order

	// edgesByEndpoint indexes incident edge IDs per entity so visibility
	// cascades touch only the edges of the affected subtree.
	edgesByEndpoint map[string][]string

	// collapsed is the maintained index of collapsed container IDs. It must
	// always equal the set of containers with Collapsed=true.
	collapsed map[string]struct{}

	// hyperByAnchor is the aggregation table mapping anchor pairs to the
	// hyperedge between them.
	hyperByAnchor map[anchorPair]string

	// validation gates endpoint checks in AddEdge. Disabled only for test
	// scaffolding that needs to construct inconsistent stores.
	validation bool

	// version is bumped on every structural mutation; caches compare against
	// it and rebuild lazily on the next read.
	version uint64

	vis  visibilityCache
	hier hierarchyCache
}

// New creates an empty store with endpoint validation enabled.
func New() *Store {
	return &Store{
		nodes:           make(map[string]*Node),
		containers:      make(map[string]*Container),
		edges:           make(map[string]*Edge),
		hyper:           make(map[string]*HyperEdge),
		parent:          make(map[string]string),
		children:        make(map[string][]string),
		edgesByEndpoint: make(map[string][]string),
		collapsed:       make(map[string]struct{}),
		hyperByAnchor:   make(map[anchorPair]string),
		validation:      true,
	}
}

// SetValidation toggles endpoint validation in AddEdge. Intended for test
// scaffolding only; production callers leave validation on.
func (s *Store) SetValidation(on bool) { s.validation = on }

// Version returns the monotonic cache-version counter. It increases on every
// structural mutation and never decreases.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) bump() { s.version++ }

// exists reports whether any entity (node, container, or edge) uses the ID.
func (s *Store) exists(id string) bool {
	if _, ok := s.nodes[id]; ok {
		return true
	}
	if _, ok := s.containers[id]; ok {
		return true
	}
	_, ok := s.edges[id]
	return ok
}

// =============================================================================
// Entity CRUD
// =============================================================================

// AddNode inserts a node. Returns ErrInvalidID for an empty ID or
// ErrDuplicateID if any entity already uses the ID.
func (s *Store) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidID
	}
	if s.exists(n.ID) {
		return fmt.Errorf("add node %s: %w", n.ID, ErrDuplicateID)
	}
	node := n
	s.nodes[node.ID] = &node
	s.order = append(s.order, node.ID)
	s.bump()
	return nil
}

// AddContainer inserts a container. Children are assigned separately via
// AddChild so ingestion can create entities in any order.
func (s *Store) AddContainer(c Container) error {
	if c.ID == "" {
		return ErrInvalidID
	}
	if s.exists(c.ID) {
		return fmt.Errorf("add container %s: %w", c.ID, ErrDuplicateID)
	}
	cont := c
	s.containers[cont.ID] = &cont
	s.order = append(s.order, cont.ID)
	if cont.Collapsed {
		s.collapsed[cont.ID] = struct{}{}
	}
	s.bump()
	return nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist as
// nodes or containers unless validation is disabled; a dangling reference is
// rejected with ErrUnknownEndpoint rather than silently stored.
func (s *Store) AddEdge(e Edge) error {
	if e.ID == "" {
		return ErrInvalidID
	}
	if s.exists(e.ID) {
		return fmt.Errorf("add edge %s: %w", e.ID, ErrDuplicateID)
	}
	if s.validation {
		if !s.isEndpoint(e.Source) {
			return fmt.Errorf("edge %s source %s: %w", e.ID, e.Source, ErrUnknownEndpoint)
		}
		if !s.isEndpoint(e.Target) {
			return fmt.Errorf("edge %s target %s: %w", e.ID, e.Target, ErrUnknownEndpoint)
		}
	}
	edge := e
	s.edges[edge.ID] = &edge
	s.edgeOrder = append(s.edgeOrder, edge.ID)
	s.edgesByEndpoint[edge.Source] = append(s.edgesByEndpoint[edge.Source], edge.ID)
	if edge.Target != edge.Source {
		s.edgesByEndpoint[edge.Target] = append(s.edgesByEndpoint[edge.Target], edge.ID)
	}
	s.bump()
	return nil
}

// AddChild assigns an existing node or container as a child of a container.
// The child must not already have a parent, and the assignment must not make
// a container its own ancestor.
func (s *Store) AddChild(containerID, childID string) error {
	if _, ok := s.containers[containerID]; !ok {
		return fmt.Errorf("container %s: %w", containerID, ErrUnknownContainer)
	}
	if !s.isEndpoint(childID) {
		return fmt.Errorf("child %s: %w", childID, ErrUnknownEntity)
	}
	if _, ok := s.parent[childID]; ok {
		return fmt.Errorf("child %s: %w", childID, ErrAlreadyParented)
	}
	// Walk up from the container; if we reach the child, the assignment
	// would close a cycle.
	for id := containerID; id != ""; id = s.parent[id] {
		if id == childID {
			return fmt.Errorf("child %s under %s: %w", childID, containerID, ErrHierarchyCycle)
		}
	}
	s.parent[childID] = containerID
	s.children[containerID] = append(s.children[containerID], childID)
	s.bump()
	return nil
}

// RemoveNode deletes a node and all edges incident to it.
// Collapse never deletes entities; this is the explicit removal API.
func (s *Store) RemoveNode(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, ErrUnknownEntity)
	}
	s.removeIncidentEdges(id)
	s.detach(id)
	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	s.bump()
	return nil
}

// RemoveContainer deletes an empty container and all edges incident to it.
// Returns ErrContainerNotEmpty if it still has children.
func (s *Store) RemoveContainer(id string) error {
	if _, ok := s.containers[id]; !ok {
		return fmt.Errorf("container %s: %w", id, ErrUnknownContainer)
	}
	if len(s.children[id]) > 0 {
		return fmt.Errorf("container %s: %w", id, ErrContainerNotEmpty)
	}
	s.removeIncidentEdges(id)
	s.detach(id)
	delete(s.containers, id)
	delete(s.collapsed, id)
	delete(s.children, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	s.bump()
	return nil
}

// RemoveEdge deletes an edge and removes it from any hyperedge that
// represents it, dropping hyperedges whose member set becomes empty.
func (s *Store) RemoveEdge(id string) error {
	e, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("edge %s: %w", id, ErrUnknownEntity)
	}
	s.dropEdgeFromIndex(e)
	delete(s.edges, id)
	s.edgeOrder = slices.DeleteFunc(s.edgeOrder, func(x string) bool { return x == id })
	for _, h := range s.hyper {
		if h.HasMember(id) {
			h.Members = slices.DeleteFunc(h.Members, func(m string) bool { return m == id })
			if len(h.Members) == 0 {
				s.dropHyperEdge(h)
			}
		}
	}
	s.bump()
	return nil
}

func (s *Store) removeIncidentEdges(id string) {
	for _, eid := range slices.Clone(s.edgesByEndpoint[id]) {
		_ = s.RemoveEdge(eid)
	}
	delete(s.edgesByEndpoint, id)
}

func (s *Store) detach(id string) {
	if p, ok := s.parent[id]; ok {
		s.children[p] = slices.DeleteFunc(s.children[p], func(x string) bool { return x == id })
		delete(s.parent, id)
	}
}

func (s *Store) dropEdgeFromIndex(e *Edge) {
	s.edgesByEndpoint[e.Source] = slices.DeleteFunc(s.edgesByEndpoint[e.Source], func(x string) bool { return x == e.ID })
	if e.Target != e.Source {
		s.edgesByEndpoint[e.Target] = slices.DeleteFunc(s.edgesByEndpoint[e.Target], func(x string) bool { return x == e.ID })
	}
}

// =============================================================================
// Lookups
// =============================================================================

// Node returns the node with the given ID. The pointer refers to the stored
// node; mutate only through the Set* methods so caches stay consistent.
func (s *Store) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Container returns the container with the given ID.
func (s *Store) Container(id string) (*Container, bool) {
	c, ok := s.containers[id]
	return c, ok
}

// Edge returns the edge with the given ID.
func (s *Store) Edge(id string) (*Edge, bool) {
	e, ok := s.edges[id]
	return e, ok
}

// HyperEdge returns the hyperedge with the given ID.
func (s *Store) HyperEdge(id string) (*HyperEdge, bool) {
	h, ok := s.hyper[id]
	return h, ok
}

// isEndpoint reports whether the ID names a node or container.
func (s *Store) isEndpoint(id string) bool {
	if _, ok := s.nodes[id]; ok {
		return true
	}
	_, ok := s.containers[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodes))
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Containers returns all containers in insertion order.
func (s *Store) Containers() []*Container {
	out := make([]*Container, 0, len(s.containers))
	for _, id := range s.order {
		if c, ok := s.containers[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Edges returns all edges in insertion order.
func (s *Store) Edges() []*Edge {
	out := make([]*Edge, 0, len(s.edges))
	for _, id := range s.edgeOrder {
		out = append(out, s.edges[id])
	}
	return out
}

// HyperEdges returns all current hyperedges. Order is not guaranteed;
// hyperedges are derived state keyed by anchor pair.
func (s *Store) HyperEdges() []*HyperEdge {
	out := make([]*HyperEdge, 0, len(s.hyper))
	for _, h := range s.hyper {
		out = append(out, h)
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// ContainerCount returns the number of containers.
func (s *Store) ContainerCount() int { return len(s.containers) }

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int { return len(s.edges) }

// Children returns the child IDs of a container in insertion order.
// The returned slice is a read-only view.
func (s *Store) Children(containerID string) []string { return s.children[containerID] }

// Parent returns the parent container of an entity, if any.
func (s *Store) Parent(id string) (string, bool) {
	p, ok := s.parent[id]
	return p, ok
}

// IncidentEdges returns the IDs of edges touching the entity.
// The returned slice is a read-only view.
func (s *Store) IncidentEdges(id string) []string { return s.edgesByEndpoint[id] }

// CollapsedContainers returns the IDs in the maintained collapsed index,
// sorted for determinism.
func (s *Store) CollapsedContainers() []string {
	out := make([]string, 0, len(s.collapsed))
	for id := range s.collapsed {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// =============================================================================
// State mutators
//
// These are the only sanctioned ways to flip visibility and collapse flags;
// they keep the collapsed index and the cache version in sync.
// =============================================================================

// SetNodeHidden flips a node's hidden flag.
func (s *Store) SetNodeHidden(id string, hidden bool) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, ErrUnknownEntity)
	}
	if n.Hidden != hidden {
		n.Hidden = hidden
		s.bump()
	}
	return nil
}

// SetContainerHidden flips a container's hidden flag.
func (s *Store) SetContainerHidden(id string, hidden bool) error {
	c, ok := s.containers[id]
	if !ok {
		return fmt.Errorf("container %s: %w", id, ErrUnknownContainer)
	}
	if c.Hidden != hidden {
		c.Hidden = hidden
		s.bump()
	}
	return nil
}

// SetCollapsed flips a container's collapsed flag and maintains the
// collapsed-containers index.
func (s *Store) SetCollapsed(id string, collapsed bool) error {
	c, ok := s.containers[id]
	if !ok {
		return fmt.Errorf("container %s: %w", id, ErrUnknownContainer)
	}
	if c.Collapsed == collapsed {
		return nil
	}
	c.Collapsed = collapsed
	if collapsed {
		s.collapsed[id] = struct{}{}
	} else {
		delete(s.collapsed, id)
	}
	s.bump()
	return nil
}

// SetEdgeHidden flips an edge's hidden flag.
func (s *Store) SetEdgeHidden(id string, hidden bool) error {
	e, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("edge %s: %w", id, ErrUnknownEntity)
	}
	if e.Hidden != hidden {
		e.Hidden = hidden
		s.bump()
	}
	return nil
}

// SetPlacement writes a layout result back onto a node or container.
func (s *Store) SetPlacement(id string, r Rect) error {
	if n, ok := s.nodes[id]; ok {
		rect := r
		n.Placement = &rect
		s.bump()
		return nil
	}
	if c, ok := s.containers[id]; ok {
		rect := r
		c.Placement = &rect
		if !c.Collapsed {
			exp := r
			c.ExpandedSize = &exp
		}
		s.bump()
		return nil
	}
	return fmt.Errorf("entity %s: %w", id, ErrUnknownEntity)
}

// =============================================================================
// Hyperedge aggregation table
// =============================================================================

// HyperEdgeBetween returns the hyperedge between two anchors, if present.
// Lookup goes through the aggregation table, not an edge scan.
func (s *Store) HyperEdgeBetween(source, target string) (*HyperEdge, bool) {
	id, ok := s.hyperByAnchor[anchorPair{source, target}]
	if !ok {
		return nil, false
	}
	return s.hyper[id], true
}

// PutHyperEdge inserts or replaces a hyperedge and updates the aggregation
// table. The ID is derived from the anchor pair so repeated folds of the same
// pair merge into one entry.
func (s *Store) PutHyperEdge(h HyperEdge) {
	if h.ID == "" {
		h.ID = HyperEdgeID(h.Source, h.Target)
	}
	he := h
	s.hyper[he.ID] = &he
	s.hyperByAnchor[anchorPair{he.Source, he.Target}] = he.ID
	s.bump()
}

// RemoveHyperEdge deletes a hyperedge and its aggregation-table entry.
func (s *Store) RemoveHyperEdge(id string) {
	h, ok := s.hyper[id]
	if !ok {
		return
	}
	s.dropHyperEdge(h)
	s.bump()
}

func (s *Store) dropHyperEdge(h *HyperEdge) {
	delete(s.hyper, h.ID)
	delete(s.hyperByAnchor, anchorPair{h.Source, h.Target})
}

// HyperEdgeID derives the canonical hyperedge ID for an anchor pair.
func HyperEdgeID(source, target string) string {
	return fmt.Sprintf("hyper:%s->%s", source, target)
}
