package layout

import (
	"context"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// ChainProvider is the built-in skeleton heuristic. For each component it
// lays the longest path on a horizontal line, fans the remaining branches
// out above and below it, and tiles the components left to right.
type ChainProvider struct {
	// MaxRowWidth wraps tiled components into rows when positive.
	MaxRowWidth float64
}

// Name implements SkeletonProvider.
func (ChainProvider) Name() string { return "chain" }

// Place implements SkeletonProvider. It never fails.
func (p ChainProvider) Place(_ context.Context, g *er.Graph, cfg Config) (Coordinates, error) {
	return p.layout(g, cfg).coords, nil
}

func (p ChainProvider) layout(g *er.Graph, cfg Config) *skeleton {
	sk := &skeleton{
		coords: make(Coordinates, len(g.Skeleton())),
		chain:  make(map[er.NodeID]r2.Vec),
		sides:  make(map[er.NodeID]int),
		fp:     Footprints(g, cfg),
	}
	var boxes []box
	for _, comp := range components(g) {
		placeComponent(g, cfg, sk, comp)
		boxes = append(boxes, sk.bounds(comp))
	}
	p.tile(sk, boxes)
	sk.forest = buildForest(g, sk.chain)
	return sk
}

// placeComponent lays out one connected component around the origin.
func placeComponent(g *er.Graph, cfg Config, sk *skeleton, comp []er.NodeID) {
	path := longestPath(g, comp)
	maxFp := 0.0
	for _, id := range path {
		maxFp = math.Max(maxFp, sk.fp[id])
	}
	spacing := math.Max(minChainSpacing, 2*maxFp+branchBuffer+cfg.CollisionPadding)
	offset := float64(len(path)-1) / 2
	for i, id := range path {
		pos := r2.Vec{X: (float64(i) - offset) * spacing}
		sk.coords[id] = pos
		sk.chain[id] = pos
		if id.IsEntity() {
			sk.sides[id] = 0
		}
	}
	assignBranchSides(g, sk, comp)

	var queue []er.NodeID
	for _, id := range path {
		if id.IsEntity() {
			queue = append(queue, id)
		}
	}
	for i := 0; i < len(queue); i++ {
		queue = append(queue, growEntity(g, sk, queue[i])...)
	}

	// Anything the walk missed is parked around the component's centroid.
	placed := make(Coordinates)
	for _, id := range comp {
		if p, ok := sk.coords[id]; ok {
			placed[id] = p
		}
	}
	center := placed.Centroid()
	for _, id := range comp {
		if _, ok := sk.coords[id]; !ok {
			sk.coords[id] = r2.Add(center, r2.Scale(spacing, geom.Direction(id.String())))
		}
	}
}

// assignBranchSides gives each branch hanging off the chain one half-plane.
// A branch keeps the side of a node already assigned inside it, else takes
// the side of a chain node it touches, else alternates starting above.
func assignBranchSides(g *er.Graph, sk *skeleton, comp []er.NodeID) {
	next := 1
	seen := make(map[er.NodeID]bool)
	for _, start := range comp {
		if seen[start] || sk.pinned(start) {
			continue
		}
		branch := []er.NodeID{start}
		seen[start] = true
		var touched []er.NodeID
		for i := 0; i < len(branch); i++ {
			for _, nb := range g.Neighbors(branch[i]) {
				switch {
				case sk.pinned(nb):
					touched = append(touched, nb)
				case !seen[nb]:
					seen[nb] = true
					branch = append(branch, nb)
				}
			}
		}
		sign := firstSide(sk.sides, branch)
		if sign == 0 {
			sign = firstSide(sk.sides, touched)
		}
		if sign == 0 {
			sign, next = next, -next
		}
		for _, id := range branch {
			sk.sides[id] = sign
		}
	}
}

func firstSide(sides map[er.NodeID]int, ids []er.NodeID) int {
	for _, id := range ids {
		if s := sides[id]; s != 0 {
			return s
		}
	}
	return 0
}

// relationGroups partitions the unplaced relationships of entity. Two
// relationships share a group when their far entities are the same or are
// joined by a relationship of their own. Groups keep the order of their
// first member in rels and list their members sorted.
func relationGroups(g *er.Graph, entity er.NodeID, rels []er.NodeID) [][]er.NodeID {
	uf := make(unionFind, len(rels))
	for _, rel := range rels {
		uf[rel] = rel
	}
	for i, a := range rels {
		for _, b := range rels[i+1:] {
			if linked(g, g.Other(a, entity), g.Other(b, entity), entity) {
				uf.union(a, b)
			}
		}
	}
	index := make(map[er.NodeID]int)
	var groups [][]er.NodeID
	for _, rel := range rels {
		root := uf.find(rel)
		k, ok := index[root]
		if !ok {
			k = len(groups)
			index[root] = k
			groups = append(groups, nil)
		}
		groups[k] = append(groups[k], rel)
	}
	for _, grp := range groups {
		slices.SortFunc(grp, er.Compare)
	}
	return groups
}

// linked reports whether the far entities a and b coincide or are adjacent
// through a relationship. The near entity never links anything.
func linked(g *er.Graph, a, b, near er.NodeID) bool {
	if a == near || b == near {
		return false
	}
	if a == b {
		return true
	}
	for _, rel := range g.Neighbors(a) {
		if g.Other(rel, a) == b {
			return true
		}
	}
	return false
}

// groupSide returns the side of the first member of grp that has one, or
// of the first far entity that has one. Zero means no hint.
func groupSide(g *er.Graph, sk *skeleton, entity er.NodeID, grp []er.NodeID) int {
	for _, rel := range grp {
		if s := sk.sides[rel]; s != 0 {
			return s
		}
		if other := g.Other(rel, entity); other != entity {
			if s := sk.sides[other]; s != 0 {
				return s
			}
		}
	}
	return 0
}

type anchorAngle struct {
	angle float64
	sign  int
}

// growEntity places the unplaced relationships of entity and the entities
// at their far ends. It returns the newly placed entities.
func growEntity(g *er.Graph, sk *skeleton, entity er.NodeID) []er.NodeID {
	center := sk.coords[entity]
	var (
		anchors []anchorAngle
		pending []er.NodeID
	)
	for _, rel := range g.Neighbors(entity) {
		p, ok := sk.coords[rel]
		if !ok {
			pending = append(pending, rel)
			continue
		}
		a := geom.Angle(center, p)
		sign := sk.sides[rel]
		if sign == 0 {
			sign = geom.Side(a)
		}
		anchors = append(anchors, anchorAngle{a, sign})
	}

	next := sk.sides[entity]
	if next == 0 {
		next = 1
	}
	for _, grp := range relationGroups(g, entity, pending) {
		sign := groupSide(g, sk, entity, grp)
		if sign == 0 {
			sign, next = next, -next
		}
		angles := extraAngles(sideAnchors(anchors, sign), len(grp), sign)
		for i, rel := range grp {
			sk.coords[rel] = geom.Polar(center, angles[i], sk.fp[entity]+sk.fp[rel]+branchBuffer)
			if sk.sides[rel] == 0 {
				sk.sides[rel] = sign
			}
			anchors = append(anchors, anchorAngle{angles[i], sign})
		}
	}

	var grown []er.NodeID
	for _, rel := range g.Neighbors(entity) {
		other := g.Other(rel, entity)
		if other == entity {
			continue
		}
		if _, ok := sk.coords[other]; ok {
			continue
		}
		rp := sk.coords[rel]
		dist := geom.Dist(center, rp) + sk.fp[rel] + sk.fp[other] + branchBuffer
		sk.coords[other] = geom.Polar(center, geom.Angle(center, rp), dist)
		grown = append(grown, other)
	}
	return grown
}

// sideAnchors returns the anchor angles on the half-plane of sign. Anchors
// on the axis count for both halves. With none on that side, every anchor
// is returned.
func sideAnchors(anchors []anchorAngle, sign int) []float64 {
	var side, all []float64
	for _, a := range anchors {
		all = append(all, a.angle)
		if (sign > 0 && a.sign >= 0) || (sign < 0 && a.sign <= 0) {
			side = append(side, a.angle)
		}
	}
	if len(side) == 0 {
		return all
	}
	return side
}

// =============================================================================
// Tiling
// =============================================================================

type box struct {
	ids    []er.NodeID
	lo, hi r2.Vec
}

func (b box) width() float64  { return b.hi.X - b.lo.X }
func (b box) height() float64 { return b.hi.Y - b.lo.Y }

// bounds returns the footprint-inflated bounding box of ids.
func (s *skeleton) bounds(ids []er.NodeID) box {
	b := box{ids: ids}
	for i, id := range ids {
		p, r := s.coords[id], s.fp[id]
		if i == 0 {
			b.lo = r2.Vec{X: p.X - r, Y: p.Y - r}
			b.hi = r2.Vec{X: p.X + r, Y: p.Y + r}
			continue
		}
		b.lo.X = math.Min(b.lo.X, p.X-r)
		b.lo.Y = math.Min(b.lo.Y, p.Y-r)
		b.hi.X = math.Max(b.hi.X, p.X+r)
		b.hi.Y = math.Max(b.hi.Y, p.Y+r)
	}
	return b
}

// tile moves each component box to its slot: left to right along a row,
// wrapping to a new row below when MaxRowWidth is exceeded.
func (p ChainProvider) tile(sk *skeleton, boxes []box) {
	var cursorX, rowY, rowHeight float64
	for i, b := range boxes {
		if p.MaxRowWidth > 0 && i > 0 && cursorX+b.width() > p.MaxRowWidth {
			rowY -= rowHeight + componentGap
			cursorX, rowHeight = 0, 0
		}
		mid := (b.lo.Y + b.hi.Y) / 2
		delta := r2.Vec{X: cursorX - b.lo.X, Y: rowY - mid}
		for _, id := range b.ids {
			sk.coords[id] = r2.Add(sk.coords[id], delta)
			if _, ok := sk.chain[id]; ok {
				sk.chain[id] = sk.coords[id]
			}
		}
		cursorX += b.width() + componentGap
		rowHeight = math.Max(rowHeight, b.height())
	}
}
