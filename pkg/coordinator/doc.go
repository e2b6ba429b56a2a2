// Package coordinator serializes all mutations of the entity store behind a
// single FIFO operation queue. Invariants on the store only hold between
// fully completed operations, so the queue never runs two operations
// concurrently; every public entry point funnels through it.
//
// Operations move through queued -> processing -> completed | failed. A
// failed operation does not stop the queue: the failure is recorded in the
// queryable status and the next operation runs. Retry and timeout are
// composable per-operation wrappers; a timed-out attempt consumes retry
// budget like any other failure.
//
// The layout-and-render pipeline is the composite operation behind most
// high-level calls: optional one-shot smart collapse, a layout pass that is
// awaited in full, then the render pass, then an optional viewport fit.
package coordinator
