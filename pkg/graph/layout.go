package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// =============================================================================
// Layout - Positioned Diagram
// =============================================================================

// Layout is the serialization format for a computed ER layout.
//
// Width and Height span every node's bounding box; renderers use them to
// size the canvas. Report is the engine's account of how the layout was
// produced and is informational only.
type Layout struct {
	Tier   string  `json:"tier"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges,omitempty"`

	Report *layout.Report `json:"report,omitempty"`
}

// Node returns the node with the given display ID.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// =============================================================================
// Conversion
// =============================================================================

// Export converts an engine result to its wire form. Nodes follow
// [er.Compare] order; edges follow node order.
func Export(res layout.Result, g *er.Graph) Layout {
	out := Layout{Tier: res.Config.Level.String()}
	rep := res.Report
	out.Report = &rep

	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, id := range g.Nodes() {
		p, ok := res.Coords[id]
		if !ok {
			continue
		}
		n, _ := g.Node(id)
		out.Nodes = append(out.Nodes, Node{
			ID:          id.String(),
			Kind:        id.Kind.String(),
			Name:        id.Name,
			Owner:       id.Owner,
			Ordinal:     id.Ordinal,
			X:           p.X,
			Y:           p.Y,
			Width:       n.Width,
			Height:      n.Height,
			PrimaryKey:  n.PrimaryKey,
			Cardinality: n.Cardinality,
		})
		lo.X = math.Min(lo.X, p.X-n.Width/2)
		lo.Y = math.Min(lo.Y, p.Y-n.Height/2)
		hi.X = math.Max(hi.X, p.X+n.Width/2)
		hi.Y = math.Max(hi.Y, p.Y+n.Height/2)
	}
	if len(out.Nodes) > 0 {
		out.Width, out.Height = hi.X-lo.X, hi.Y-lo.Y
	}

	for _, rel := range g.Relationships() {
		a, b, _ := g.Ends(rel)
		n, _ := g.Node(rel)
		left, right := n.Cardinality.Split()
		out.Edges = append(out.Edges,
			Edge{From: rel.String(), To: a.String(), Kind: KindRelationship, Label: left},
			Edge{From: rel.String(), To: b.String(), Kind: KindRelationship, Label: right},
		)
	}
	for _, e := range g.Entities() {
		for _, a := range g.Attributes(e) {
			out.Edges = append(out.Edges, Edge{From: e.String(), To: a.String(), Kind: KindAttribute})
		}
	}
	return out
}

// ParseLayout converts a serialized layout back to coordinates.
func ParseLayout(l Layout) (layout.Coordinates, error) {
	coords := make(layout.Coordinates, len(l.Nodes))
	for i := range l.Nodes {
		n := &l.Nodes[i]
		id, err := n.NodeID()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "layout node %d", i)
		}
		if _, dup := coords[id]; dup {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "layout node %s appears twice", id)
		}
		coords[id] = r2.Vec{X: n.X, Y: n.Y}
	}
	if !coords.Valid() {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "layout contains non-finite coordinates")
	}
	return coords, nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and checks that
// every node identity is well formed.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if _, err := ParseLayout(l); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "read %s", path)
		}
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
