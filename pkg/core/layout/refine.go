package layout

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// Refinement constants.
const (
	refineBuffer     = 0.6
	maxOverlapPasses = 120
	overlapTolerance = 0.01
	sideJitter       = 0.03
)

// refineStats summarizes post-processing.
type refineStats struct {
	overlapPasses   int
	pinnedConflicts int
}

// refine runs the post-processing passes in order. Each pass reads and
// writes sk.coords; chain nodes end on their anchors.
func refine(g *er.Graph, cfg Config, sk *skeleton) refineStats {
	reprojectBranches(g, sk)
	straightenTriplets(g, sk)
	snapMidpoints(g, cfg, sk)
	spaceSides(g, sk)
	passes, conflicts := resolveOverlaps(g, cfg, sk)
	restoreChain(sk)
	return refineStats{overlapPasses: passes, pinnedConflicts: conflicts}
}

// lightRefine is the optional second round: a cold relaxation followed by
// the passes that repair what it disturbs.
func lightRefine(g *er.Graph, cfg Config, sk *skeleton) (ForceStats, refineStats) {
	fs := relax(g, cfg, sk, schedule{iterations: max(cfg.SpringIterations/3, 1)})
	snapMidpoints(g, cfg, sk)
	passes, conflicts := resolveOverlaps(g, cfg, sk)
	restoreChain(sk)
	return fs, refineStats{overlapPasses: passes, pinnedConflicts: conflicts}
}

// moveTree translates id and its forest descendants by delta. Chain nodes
// are never moved.
func (s *skeleton) moveTree(id er.NodeID, delta r2.Vec) {
	for _, n := range s.forest.subtree(id) {
		if !s.pinned(n) {
			s.coords[n] = r2.Add(s.coords[n], delta)
		}
	}
}

// rotateTree rotates id and its forest descendants about center.
func (s *skeleton) rotateTree(id er.NodeID, alpha float64, center r2.Vec) {
	for _, n := range s.forest.subtree(id) {
		if !s.pinned(n) {
			s.coords[n] = r2.Rotate(s.coords[n], alpha, center)
		}
	}
}

// reprojectBranches puts each branch entity back on the ray from its parent
// entity through the connecting relationship. Shallow branches go first so
// that deeper ones are projected from their final parents.
func reprojectBranches(g *er.Graph, sk *skeleton) {
	type link struct {
		rel, parent er.NodeID
		depth       int
	}
	var links []link
	for _, rel := range g.Relationships() {
		p, ok := sk.forest.parent[rel]
		if !ok || sk.pinned(rel) || !p.IsEntity() {
			continue
		}
		links = append(links, link{rel, p, sk.forest.depth[p]})
	}
	slices.SortStableFunc(links, func(a, b link) int { return a.depth - b.depth })

	for _, l := range links {
		pp, rp := sk.coords[l.parent], sk.coords[l.rel]
		dir := geom.UnitOr(r2.Sub(rp, pp), geom.Direction(l.rel.String()))
		base := geom.Dist(pp, rp) + sk.fp[l.rel]
		for _, child := range sk.forest.children[l.rel] {
			target := r2.Add(pp, r2.Scale(base+sk.fp[child]+refineBuffer, dir))
			sk.moveTree(child, r2.Sub(target, sk.coords[child]))
		}
	}
}

// straightenTriplets lines up entity, relationship and entity. The entity
// nearer the relationship stays; the other is moved onto the ray from the
// anchor through the relationship.
func straightenTriplets(g *er.Graph, sk *skeleton) {
	for _, rel := range g.Relationships() {
		a, b, _ := g.Ends(rel)
		if a == b || (sk.pinned(a) && sk.pinned(b) && sk.pinned(rel)) {
			continue
		}
		rp := sk.coords[rel]
		anchor, far := a, b
		if geom.Dist(sk.coords[b], rp) < geom.Dist(sk.coords[a], rp) {
			anchor, far = b, a
		}
		if sk.pinned(far) {
			anchor, far = far, anchor
		}
		if sk.pinned(far) {
			continue
		}
		ap := sk.coords[anchor]
		span := sk.fp[anchor] + sk.fp[far] + 2*sk.fp[rel] + 2*refineBuffer
		dir := geom.UnitOr(r2.Sub(rp, ap), geom.Direction(rel.String()))
		target := r2.Add(ap, r2.Scale(span, dir))
		delta := r2.Sub(target, sk.coords[far])
		if sk.forest.isChild(rel, far) {
			sk.moveTree(far, delta)
		} else {
			sk.coords[far] = target
		}
	}
}

// snapMidpoints moves free relationships between far-apart entities to the
// midpoint of their entities. Parallel relationships between the same pair
// are fanned out perpendicular to the connecting line.
func snapMidpoints(g *er.Graph, cfg Config, sk *skeleton) {
	type pair struct{ a, b er.NodeID }
	groups := make(map[pair][]er.NodeID)
	var order []pair
	for _, rel := range g.Relationships() {
		a, b, _ := g.Ends(rel)
		if a == b {
			continue
		}
		if er.Compare(b, a) < 0 {
			a, b = b, a
		}
		k := pair{a, b}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rel)
	}

	for _, k := range order {
		rels := groups[k]
		pa, pb := sk.coords[k.a], sk.coords[k.b]
		mid := geom.Midpoint(pa, pb)
		normal := geom.Perp(geom.UnitOr(r2.Sub(pb, pa), r2.Vec{X: 1}))

		var free []er.NodeID
		anchored := false
		maxR := 0.0
		for _, rel := range rels {
			maxR = math.Max(maxR, sk.fp[rel])
			if sk.pinned(rel) {
				anchored = true
				continue
			}
			if geom.Dist(pa, pb) >= sk.fp[k.a]+sk.fp[k.b]+2*sk.fp[rel]+refineBuffer {
				free = append(free, rel)
			}
		}
		step := 2*maxR + cfg.CollisionPadding
		n := float64(len(free))
		for i, rel := range free {
			offset := float64(i) - (n-1)/2
			if anchored {
				offset = float64(i + 1)
			}
			sk.coords[rel] = r2.Add(mid, r2.Scale(offset*step, normal))
		}
	}
}

// spaceSides re-spreads the child relationships of every entity evenly over
// their half-planes, rotating each child's whole branch with it.
func spaceSides(g *er.Graph, sk *skeleton) {
	for _, e := range g.Entities() {
		center := sk.coords[e]
		var anchors []float64
		halves := map[int][]er.NodeID{}
		for _, rel := range g.Neighbors(e) {
			if !sk.forest.isChild(e, rel) || sk.pinned(rel) {
				anchors = append(anchors, geom.Angle(center, sk.coords[rel]))
				continue
			}
			s := sk.side(rel, center)
			halves[s] = append(halves[s], rel)
		}
		jitter := geom.Jitter(e.String(), sideJitter)
		for _, s := range []int{1, -1} {
			rels := halves[s]
			if len(rels) == 0 {
				continue
			}
			lo := 0.0
			if s < 0 {
				lo = math.Pi
			}
			slices.SortStableFunc(rels, func(a, b er.NodeID) int {
				da := geom.NormalizeAngle(geom.Angle(center, sk.coords[a]) - lo)
				db := geom.NormalizeAngle(geom.Angle(center, sk.coords[b]) - lo)
				switch {
				case da < db:
					return -1
				case da > db:
					return 1
				}
				return er.Compare(a, b)
			})
			targets := extraAngles(anchors, len(rels), s)
			for i, rel := range rels {
				cur := geom.Angle(center, sk.coords[rel])
				sk.rotateTree(rel, targets[i]+jitter-cur, center)
			}
		}
	}
}

// resolveOverlaps pushes apart skeleton nodes whose footprints come closer
// than the collision padding. A chain node never moves; when both nodes of
// a pair are chain nodes the pair is counted as a conflict and left alone.
func resolveOverlaps(g *er.Graph, cfg Config, sk *skeleton) (passes, conflicts int) {
	ids := g.Skeleton()
	type pair struct{ a, b er.NodeID }
	stuck := make(map[pair]bool)
	for passes < maxOverlapPasses {
		passes++
		maxPush := 0.0
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				pa, pb := sk.coords[a], sk.coords[b]
				d := geom.Dist(pa, pb)
				safe := sk.fp[a] + sk.fp[b] + cfg.CollisionPadding
				if d >= safe {
					continue
				}
				fixedA, fixedB := sk.pinned(a), sk.pinned(b)
				if fixedA && fixedB {
					stuck[pair{a, b}] = true
					continue
				}
				push := safe - d
				dir := separation(pa, pb, a, b)
				shareA, shareB := 0.5, 0.5
				switch {
				case fixedA:
					shareA, shareB = 0, 1
				case fixedB:
					shareA, shareB = 1, 0
				}
				sk.coords[a] = r2.Add(pa, r2.Scale(push*shareA, dir))
				sk.coords[b] = r2.Sub(pb, r2.Scale(push*shareB, dir))
				maxPush = math.Max(maxPush, push)
			}
		}
		if maxPush < overlapTolerance {
			break
		}
	}
	return passes, len(stuck)
}

// restoreChain resets every chain node to its anchor.
func restoreChain(sk *skeleton) {
	for id, p := range sk.chain {
		sk.coords[id] = p
	}
}
