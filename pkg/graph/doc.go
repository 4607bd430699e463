// Package graph provides the wire formats for ER documents and layouts.
//
// This package defines the canonical serialized shapes used for input
// files, API requests and responses, caching and renderers.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [er.Document]: input schema (entities, attributes, relationships)
//   - [Layout]: positioned nodes and edges produced by the engine
//   - pkg/core/layout.Coordinates: internal positions keyed by er.NodeID
//
// Use [Export] and [ParseLayout] to convert between the internal and
// serialized layout forms.
//
// # Document Serialization
//
// Documents are JSON by default. Files ending in .yaml or .yml are read as
// YAML:
//
//	entities:
//	  - name: Student
//	attributes:
//	  - {entity: Student, name: ID, primary_key: true}
//	relationships:
//	  - {name: Takes, entity1: Student, entity2: Course, cardinality: "M:N"}
//
// Common operations:
//
//	doc, _ := graph.ReadDocumentFile("school.yaml")  // File → Document
//	data, _ := graph.MarshalDocument(doc)            // Document → JSON
//
// # Layout Serialization
//
// A [Layout] lists every node with its kind, structured identity, size and
// center, plus the edges a renderer draws. Node identity is stored as
// fields (kind, owner, name, ordinal); the id string is for display only.
//
//	l := graph.Export(result, g)          // engine result → wire
//	coords, _ := graph.ParseLayout(l)     // wire → coordinates
//	graph.WriteLayoutFile(l, "out.json")  // wire → file
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct values.
package graph
