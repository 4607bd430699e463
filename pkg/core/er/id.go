package er

import (
	"cmp"
	"strconv"
	"strings"
)

// Kind distinguishes the three node kinds.
type Kind uint8

// Node kinds, in the order used by [Compare].
const (
	KindEntity Kind = iota + 1
	KindRelationship
	KindAttribute
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindRelationship:
		return "relationship"
	case KindAttribute:
		return "attribute"
	}
	return "unknown"
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "entity":
		return KindEntity, true
	case "relationship":
		return KindRelationship, true
	case "attribute":
		return KindAttribute, true
	}
	return 0, false
}

// NodeID identifies a node. Only the fields relevant to Kind are set:
//
//	Entity(name)                  {KindEntity, "", name, 0}
//	Relationship(name, ordinal)   {KindRelationship, "", name, ordinal}
//	Attribute(entity, attr)       {KindAttribute, entity, attr, 0}
//
// NodeID is comparable and is used directly as a map key.
type NodeID struct {
	Kind    Kind
	Owner   string
	Name    string
	Ordinal int
}

// EntityID returns the identifier of an entity.
func EntityID(name string) NodeID {
	return NodeID{Kind: KindEntity, Name: name}
}

// RelationshipID returns the identifier of the ordinal-th relationship.
func RelationshipID(name string, ordinal int) NodeID {
	return NodeID{Kind: KindRelationship, Name: name, Ordinal: ordinal}
}

// AttributeID returns the identifier of an attribute of entity.
func AttributeID(entity, attr string) NodeID {
	return NodeID{Kind: KindAttribute, Owner: entity, Name: attr}
}

// IsEntity reports whether id names an entity.
func (id NodeID) IsEntity() bool { return id.Kind == KindEntity }

// IsRelationship reports whether id names a relationship node.
func (id NodeID) IsRelationship() bool { return id.Kind == KindRelationship }

// IsAttribute reports whether id names an attribute.
func (id NodeID) IsAttribute() bool { return id.Kind == KindAttribute }

// String renders the identifier for logs and display.
func (id NodeID) String() string {
	switch id.Kind {
	case KindAttribute:
		return id.Owner + "." + id.Name
	case KindRelationship:
		return "◇" + id.Name + "#" + strconv.Itoa(id.Ordinal)
	}
	return id.Name
}

// Compare orders identifiers by kind, then case-insensitively by owner and
// name, then by ordinal, with the raw strings as the final tie-break.
func Compare(a, b NodeID) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(fold(a.Owner), fold(b.Owner)); c != 0 {
		return c
	}
	if c := cmp.Compare(fold(a.Name), fold(b.Name)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Ordinal, b.Ordinal); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

func fold(s string) string { return strings.ToLower(s) }
