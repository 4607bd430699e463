package graph

import (
	"fmt"

	"github.com/matzehuels/erlayout/pkg/core/er"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node kinds as they appear on the wire.
const (
	KindEntity       = "entity"
	KindRelationship = "relationship"
	KindAttribute    = "attribute"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// =============================================================================
// Node - Positioned Node
// =============================================================================

// Node is a positioned node of a layout. Coordinates are in inches with the
// origin at the layout's centroid and y pointing up.
type Node struct {
	ID      string `json:"id"` // display form, e.g. "Student.ID"
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Owner   string `json:"owner,omitempty"`   // attributes only
	Ordinal int    `json:"ordinal,omitempty"` // relationships only

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	PrimaryKey  bool           `json:"primary_key,omitempty"`
	Cardinality er.Cardinality `json:"cardinality,omitempty"`
}

// IsEntity returns true if this is an entity node.
func (n *Node) IsEntity() bool { return n.Kind == KindEntity }

// IsRelationship returns true if this is a relationship node.
func (n *Node) IsRelationship() bool { return n.Kind == KindRelationship }

// IsAttribute returns true if this is an attribute node.
func (n *Node) IsAttribute() bool { return n.Kind == KindAttribute }

// NodeID returns the engine identifier described by n.
func (n *Node) NodeID() (er.NodeID, error) {
	kind, ok := er.ParseKind(n.Kind)
	if !ok {
		return er.NodeID{}, fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind)
	}
	if n.Name == "" {
		return er.NodeID{}, fmt.Errorf("node %q: missing name", n.ID)
	}
	switch kind {
	case er.KindAttribute:
		if n.Owner == "" {
			return er.NodeID{}, fmt.Errorf("node %q: attribute without owner", n.ID)
		}
		return er.AttributeID(n.Owner, n.Name), nil
	case er.KindRelationship:
		return er.RelationshipID(n.Name, n.Ordinal), nil
	}
	return er.EntityID(n.Name), nil
}

// =============================================================================
// Edge - Connector
// =============================================================================

// Edge is a connector between two nodes, referenced by their display IDs.
// Relationship edges run from the relationship to one of its entities and
// carry that side's cardinality token; attribute edges run from an entity
// to one of its attributes.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}
