// Package collapse implements the container operations of Flowscope: the
// collapse/expand algorithms, cascading visibility updates, edge aggregation
// into hyperedges, the smart-collapse heuristic, and the validation
// sub-routines exposed to callers.
//
// # Collapse
//
// Collapsing a container marks it collapsed, hides every descendant via an
// iterative worklist, and folds each edge that crosses the collapse boundary
// into a hyperedge anchored at the nearest visible ancestor of each endpoint.
// Hyperedges between the same anchor pair merge, recording every contributing
// edge ID, so the aggregation can be reversed exactly.
//
// # Expand
//
// Expansion first checks its precondition - a container cannot be expanded
// while any ancestor is collapsed - and reports failures as a structured
// ExpansionCheck rather than an error, so callers react without try/catch
// gymnastics. On success it restores the visibility of exactly the set of
// descendants that were visible before the matching collapse (nested
// containers that were themselves collapsed stay collapsed), decomposes the
// hyperedges anchored at the container, and re-folds members whose endpoints
// remain hidden elsewhere.
//
// # Call-site origins
//
// Operations carry an Origin: user-initiated collapse/expands permanently
// disable the smart-collapse heuristic for the session, while system
// operations (the initial smart collapse itself, search-driven expansion) do
// not count as a user preference change.
package collapse
