package layout

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// Coordinates maps node identifiers to positions in layout units.
type Coordinates map[er.NodeID]r2.Vec

// Clone returns a copy of c.
func (c Coordinates) Clone() Coordinates {
	return maps.Clone(c)
}

// Keys returns the identifiers in c in [er.Compare] order.
func (c Coordinates) Keys() []er.NodeID {
	keys := slices.Collect(maps.Keys(c))
	slices.SortFunc(keys, er.Compare)
	return keys
}

// Centroid returns the mean position. An empty map yields the origin.
func (c Coordinates) Centroid() r2.Vec {
	if len(c) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, id := range c.Keys() {
		sum = r2.Add(sum, c[id])
	}
	return r2.Scale(1/float64(len(c)), sum)
}

// Translate returns a copy of c shifted by d.
func (c Coordinates) Translate(d r2.Vec) Coordinates {
	out := make(Coordinates, len(c))
	for id, p := range c {
		out[id] = r2.Add(p, d)
	}
	return out
}

// Valid reports whether every coordinate is finite.
func (c Coordinates) Valid() bool {
	for _, p := range c {
		if !geom.Finite(p) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned box around every node's bounding circle.
func (c Coordinates) Bounds(g *er.Graph) (lo, hi r2.Vec) {
	first := true
	for id, p := range c {
		r := g.Radius(id)
		if first {
			lo = r2.Vec{X: p.X - r, Y: p.Y - r}
			hi = r2.Vec{X: p.X + r, Y: p.Y + r}
			first = false
			continue
		}
		lo.X = min(lo.X, p.X-r)
		lo.Y = min(lo.Y, p.Y-r)
		hi.X = max(hi.X, p.X+r)
		hi.Y = max(hi.Y, p.Y+r)
	}
	return lo, hi
}
