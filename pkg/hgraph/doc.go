// Package hgraph implements the hierarchical graph store at the heart of
// Flowscope: nodes, arbitrarily nested containers, edges, and the synthetic
// hyperedges that stand in for edges hidden inside collapsed containers.
//
// # Architecture
//
// The store is an arena of entities keyed by ID with explicit parent/child
// index maps. Hierarchy traversals (ancestors, descendants, pre-order) are
// iterative over these indices rather than recursive over an object graph,
// so deep nesting cannot overflow the stack and accidental cycles are
// rejected at the AddChild boundary instead of causing infinite walks.
//
// # Visibility model
//
// Every node, container, and edge carries a Hidden flag. Collapsed containers
// stay visible (rendered as a compact summary) while everything beneath them
// is hidden. Derived views (VisibleNodes, VisibleContainers, VisibleEdges)
// filter on the flag and are cached; a monotonic version counter is bumped on
// every structural mutation and caches are rebuilt lazily on the next read,
// so bulk edits do not trigger O(n) recompute storms.
//
// # Invariants
//
// Validate checks the global invariants that must hold between operations:
//
//  1. Visible* views never return a hidden entity.
//  2. Descendants of a collapsed container are hidden, and edges into the
//     subtree are either hidden or represented by a hyperedge anchored
//     outside it.
//  3. The collapsed-containers index equals the set of containers with
//     Collapsed=true.
//  4. Edge endpoints reference existing entities.
//
// Mutation of the collapse state itself lives in the collapse subpackage;
// this package only provides the primitives it builds on.
//
// The store is not safe for concurrent use without external synchronization.
// In Flowscope all mutation is funneled through the coordinator's serialized
// operation queue.
package hgraph
