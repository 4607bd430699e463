package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// Spreader constants.
const (
	spreadGap       = 0.7
	spreadMargin    = 0.6
	spreadClearance = 3.0
	minSpreadRadius = 4.0
	maxSpreadRadius = 80.0
	minComponentDim = 0.5
)

// unionFind is a disjoint-set forest over node identifiers.
type unionFind map[er.NodeID]er.NodeID

// find returns the root of id. Unseen identifiers are their own root.
// Every node on the walked path is re-pointed at the root.
func (u unionFind) find(id er.NodeID) er.NodeID {
	root := id
	for {
		p, ok := u[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	for id != root {
		next := u[id]
		u[id] = root
		id = next
	}
	return root
}

func (u unionFind) union(a, b er.NodeID) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if er.Compare(rb, ra) < 0 {
		ra, rb = rb, ra
	}
	u[rb] = ra
}

// graphComponents returns the components of the full graph, attributes
// included. Components are ordered by their smallest node.
func graphComponents(g *er.Graph) [][]er.NodeID {
	uf := make(unionFind, g.Len())
	for _, id := range g.Nodes() {
		uf[id] = id
	}
	for _, rel := range g.Relationships() {
		for _, e := range g.Neighbors(rel) {
			uf.union(rel, e)
		}
	}
	for _, e := range g.Entities() {
		for _, a := range g.Attributes(e) {
			uf.union(e, a)
		}
	}
	index := make(map[er.NodeID]int)
	var out [][]er.NodeID
	for _, id := range g.Nodes() {
		root := uf.find(id)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], id)
	}
	return out
}

// spread arranges disconnected components on a circle around the global
// centroid. Each component is turned so that it faces outward. Graphs with
// a single component are returned unchanged.
func spread(g *er.Graph, coords Coordinates) (Coordinates, int) {
	comps := graphComponents(g)
	out := coords.Clone()
	if len(comps) < 2 {
		return out, len(comps)
	}

	radii := make([]float64, len(comps))
	centers := make([]r2.Vec, len(comps))
	spans := make([]float64, len(comps))
	total, maxR := 0.0, 0.0
	for i, comp := range comps {
		sub := make(Coordinates, len(comp))
		for _, id := range comp {
			sub[id] = out[id]
		}
		lo, hi := sub.Bounds(g)
		w := math.Max(hi.X-lo.X, minComponentDim)
		h := math.Max(hi.Y-lo.Y, minComponentDim)
		radii[i] = math.Hypot(w, h)/2 + spreadMargin
		centers[i] = sub.Centroid()
		spans[i] = 2*radii[i] + spreadGap
		total += spans[i]
		maxR = math.Max(maxR, radii[i])
	}
	orbit := geom.Clamp(math.Max(total/geom.TwoPi, maxR+spreadGap+spreadClearance), minSpreadRadius, maxSpreadRadius)
	global := out.Centroid()

	cursor := -math.Pi / 2
	for i, comp := range comps {
		frac := geom.TwoPi * spans[i] / total
		mid := cursor + frac/2
		cursor += frac
		target := geom.Polar(global, mid, orbit)
		for _, id := range comp {
			p := r2.Rotate(out[id], mid+math.Pi/2, centers[i])
			out[id] = r2.Add(p, r2.Sub(target, centers[i]))
		}
	}
	return out, len(comps)
}
