// Package pkg provides the core libraries for Flowscope hierarchical
// graph exploration.
//
// # Overview
//
// Flowscope keeps large graphs readable by letting containers collapse
// into compact summaries while crossing edges aggregate into weighted
// bundles. The pkg directory is organized into five main areas:
//
//  1. [hgraph] - Domain model (entity store, visibility, collapse engine)
//  2. [coordinator] - Orchestration (operation queue, layout/render pipeline)
//  3. [layout], [render] - Presentation (Graphviz placement, display frames)
//  4. [search], [state] - Discovery and persistence (fuzzy search, snapshots)
//  5. [cache], [graphio] - Infrastructure (layout caching, wire format)
//
// # Architecture
//
// The typical data flow through Flowscope:
//
//	Graph Document (JSON)
//	         ↓
//	graphio.ReadFile → hgraph.Store
//	         ↓
//	collapse.Ops (smart collapse, hyperedge aggregation)
//	         ↓
//	coordinator.Coordinator (queued operations)
//	         ↓
//	layout.Engine → render.Renderer → render.Frame
//
// Every mutating operation goes through the coordinator's queue, so the
// store is only ever observed between completed operations. Layout runs
// through Graphviz and results are content-addressed in the cache; the
// renderer is stateless and rebuilds frames from the visible entity set.
//
// # Quick Start
//
// Load a graph and produce a frame with everything collapsed:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/flowscope/pkg/coordinator"
//	    "github.com/matzehuels/flowscope/pkg/graphio"
//	    "github.com/matzehuels/flowscope/pkg/layout"
//	    "github.com/matzehuels/flowscope/pkg/render"
//	)
//
//	store, _ := graphio.ReadFile("graph.json")
//	coord, _ := coordinator.New(coordinator.Config{
//	    Store:    store,
//	    Engine:   layout.NewGraphviz("dot", nil),
//	    Renderer: render.New(nil),
//	})
//	defer coord.Close()
//
//	ctx := context.Background()
//	coord.CollapseAllContainers(ctx)
//	frame, _ := coord.ExecuteLayoutAndRenderPipeline(ctx, coordinator.PipelineOptions{FitView: true}, coordinator.Options{})
//
// Interfaces live in internal/: the cobra CLI with the terminal explorer,
// and the chi HTTP server.
package pkg
