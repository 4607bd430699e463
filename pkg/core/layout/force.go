package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// Force model constants.
const (
	gravity        = 0.005
	springConstant = 0.1
	relationMass   = 1.5
	minRepelDist   = 0.05
	convergedMove  = 1e-3

	hotTemperature  = 10.0
	warmTemperature = 1.0
	coldTemperature = 0.01
)

// ForceStats summarizes one relaxation run.
type ForceStats struct {
	Iterations      int
	Converged       bool
	MaxDisplacement float64
}

// schedule is an annealing plan. A full schedule cools from hot to warm
// over the first half and from warm to cold over the second; a cold one
// only runs the second phase.
type schedule struct {
	iterations int
	full       bool
}

func (s schedule) temperature(i int) float64 {
	n := max(s.iterations, 1)
	if !s.full {
		return warmTemperature * math.Pow(coldTemperature/warmTemperature, float64(i)/float64(n))
	}
	half := max(n/2, 1)
	if i < half {
		return hotTemperature * math.Pow(warmTemperature/hotTemperature, float64(i)/float64(half))
	}
	rest := max(n-half, 1)
	return warmTemperature * math.Pow(coldTemperature/warmTemperature, float64(i-half)/float64(rest))
}

// relax runs force-directed relaxation over the skeleton nodes. Chain nodes
// stay fixed. Every iteration computes displacements from the previous
// iteration's positions only.
func relax(g *er.Graph, cfg Config, sk *skeleton, plan schedule) ForceStats {
	ids := g.Skeleton()
	pos := sk.coords.Clone()
	var stats ForceStats

	for it := 0; it < plan.iterations; it++ {
		temp := plan.temperature(it)
		center := centroidOf(pos, ids)
		disp := make(map[er.NodeID]r2.Vec, len(ids))
		for _, id := range ids {
			disp[id] = r2.Scale(gravity, r2.Sub(center, pos[id]))
		}

		for i, a := range ids {
			for _, b := range ids[i+1:] {
				d := geom.Dist(pos[a], pos[b])
				safe := sk.fp[a] + sk.fp[b] + cfg.CollisionPadding
				if d >= safe {
					continue
				}
				dir := separation(pos[a], pos[b], a, b)
				f := cfg.RepulsionFactor * (safe - d) * (safe - d) / math.Max(d, minRepelDist)
				disp[a] = r2.Add(disp[a], r2.Scale(f, dir))
				disp[b] = r2.Sub(disp[b], r2.Scale(f, dir))
			}
		}

		for _, rel := range g.Relationships() {
			for _, e := range g.Neighbors(rel) {
				d := geom.Dist(pos[rel], pos[e])
				rest := sk.fp[rel] + sk.fp[e] + cfg.SafeGap
				if d <= rest {
					continue
				}
				dir := geom.UnitOr(r2.Sub(pos[e], pos[rel]), r2.Vec{})
				f := springConstant * (d - rest)
				disp[rel] = r2.Add(disp[rel], r2.Scale(f, dir))
				disp[e] = r2.Sub(disp[e], r2.Scale(f, dir))
			}
		}

		next := make(Coordinates, len(pos))
		maxMove := 0.0
		for _, id := range ids {
			if sk.pinned(id) {
				next[id] = pos[id]
				continue
			}
			v := disp[id]
			if id.IsRelationship() {
				v = r2.Scale(1/relationMass, v)
			}
			if n := r2.Norm(v); n > temp {
				v = r2.Scale(temp/n, v)
			}
			next[id] = r2.Add(pos[id], v)
			maxMove = math.Max(maxMove, r2.Norm(v))
		}
		pos = next
		stats.Iterations = it + 1
		stats.MaxDisplacement = maxMove
		if maxMove < convergedMove {
			stats.Converged = true
			break
		}
	}
	sk.coords = pos
	return stats
}

// separation returns the unit vector pushing a away from b. Coincident
// points get a direction derived from both identifiers.
func separation(a, b r2.Vec, ida, idb er.NodeID) r2.Vec {
	return geom.UnitOr(r2.Sub(a, b), geom.Direction(ida.String()+"|"+idb.String()))
}

func centroidOf(pos Coordinates, ids []er.NodeID) r2.Vec {
	if len(ids) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, id := range ids {
		sum = r2.Add(sum, pos[id])
	}
	return r2.Scale(1/float64(len(ids)), sum)
}
