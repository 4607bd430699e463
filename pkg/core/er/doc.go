// Package er holds the Entity-Relationship model consumed by the layout
// engine.
//
// A [Document] is the input as it arrives from upstream: entities,
// attributes and relationships referencing each other by name. [Build] turns
// a document into a [Graph] of typed nodes keyed by [NodeID]:
//
//   - one node per entity (names are unique case-insensitively)
//   - one node per relationship instance, identified by name and ordinal
//   - one node per attribute, identified by owning entity and name
//
// The graph exposes two views. The skeleton adjacency links entities and
// relationship nodes only; the ownership star links each entity to its
// attributes.
//
// # Defensive Building
//
// The upstream contract says every reference resolves. When it does not,
// [Build] skips the dangling reference and records an [Issue] instead of
// failing, so a partially broken document still lays out. Use [Validate] to
// enforce the full contract.
package er
