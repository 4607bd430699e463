package er

import "strings"

// Cardinality is a relationship multiplicity label such as "1:N".
type Cardinality string

// Supported cardinalities.
const (
	OneToOne   Cardinality = "1:1"
	OneToMany  Cardinality = "1:N"
	ManyToMany Cardinality = "M:N"
)

// Valid reports whether c is one of the supported cardinalities.
func (c Cardinality) Valid() bool {
	switch c {
	case OneToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// Split returns the labels drawn next to the first and second entity.
// A label without a colon is used for both sides.
func (c Cardinality) Split() (left, right string) {
	s := strings.TrimSpace(string(c))
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, s
}

// Size is a width/height pair in layout units (inches).
type Size struct {
	Width  float64 `json:"width" yaml:"width" toml:"width"`
	Height float64 `json:"height" yaml:"height" toml:"height"`
}

// IsZero reports whether the size is unset.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Sizes are the default node sizes per kind.
type Sizes struct {
	Entity       Size `json:"entity" yaml:"entity" toml:"entity"`
	Attribute    Size `json:"attribute" yaml:"attribute" toml:"attribute"`
	Relationship Size `json:"relationship" yaml:"relationship" toml:"relationship"`
}

// DefaultSizes returns the standard shape sizes: 1.5×0.6 entity rectangles,
// 1.0×0.5 attribute ellipses and 1.0×0.8 relationship diamonds.
func DefaultSizes() Sizes {
	return Sizes{
		Entity:       Size{Width: 1.5, Height: 0.6},
		Attribute:    Size{Width: 1.0, Height: 0.5},
		Relationship: Size{Width: 1.0, Height: 0.8},
	}
}

// withDefaults fills unset fields from DefaultSizes.
func (s Sizes) withDefaults() Sizes {
	d := DefaultSizes()
	if s.Entity.IsZero() {
		s.Entity = d.Entity
	}
	if s.Attribute.IsZero() {
		s.Attribute = d.Attribute
	}
	if s.Relationship.IsZero() {
		s.Relationship = d.Relationship
	}
	return s
}

// Document is an ER diagram description.
type Document struct {
	Entities      []Entity       `json:"entities" yaml:"entities"`
	Attributes    []Attribute    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// Entity is a table or object. Zero Width/Height selects the default size.
type Entity struct {
	Name   string  `json:"name" yaml:"name"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Attribute is a field owned by the entity named Entity.
type Attribute struct {
	Entity     string  `json:"entity" yaml:"entity"`
	Name       string  `json:"name" yaml:"name"`
	PrimaryKey bool    `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Width      float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height     float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Relationship connects Entity1 and Entity2. Both may name the same entity.
type Relationship struct {
	Name        string      `json:"name" yaml:"name"`
	Entity1     string      `json:"entity1" yaml:"entity1"`
	Entity2     string      `json:"entity2" yaml:"entity2"`
	Cardinality Cardinality `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
	Width       float64     `json:"width,omitempty" yaml:"width,omitempty"`
	Height      float64     `json:"height,omitempty" yaml:"height,omitempty"`
}
