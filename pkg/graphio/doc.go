// Package graphio provides the canonical wire format for hierarchical
// graphs.
//
// This package defines the JSON document that flowscope reads and writes
// for graph files, API payloads, and storage. The format is human-readable
// and designed for round-trip fidelity: import, transform, export, and
// re-import produce the same graph.
//
// # Document Format
//
// A document lists containers, nodes, and edges flat; hierarchy is
// expressed through each entity's parent field:
//
//	{
//	  "containers": [{"id": "services", "label": "Services"}],
//	  "nodes": [
//	    {"id": "api", "parent": "services"},
//	    {"id": "db", "parent": "services", "type": "database"}
//	  ],
//	  "edges": [{"id": "e1", "source": "api", "target": "db"}]
//	}
//
// Containers may carry "collapsed": true; loading replays those collapses
// through the collapse engine so aggregated edges are rebuilt rather than
// trusted from the file.
//
// # Common Operations
//
//	s, _ := graphio.ReadFile("graph.json")     // File → Store
//	graphio.WriteFile(s, "out.json")           // Store → File
//	doc := graphio.FromStore(s)                // Store → Document
//	s, _ = graphio.ToStore(doc)                // Document → Store
package graphio
