package layout

import (
	"math"
	"sort"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// Attribute placement constants.
const (
	maxAttrJitter = 0.05
	relClearance  = 0.12
)

// sector is a free arc around an entity.
type sector struct {
	start, length float64
}

// placeAttributes fans every entity's attributes around it on a single
// orbit, keeping clear of the directions of its relationships.
func placeAttributes(g *er.Graph, cfg Config, coords Coordinates) Coordinates {
	out := coords.Clone()
	for _, e := range g.Entities() {
		attrs := g.Attributes(e)
		if len(attrs) == 0 {
			continue
		}
		center := out[e]
		var relAngles []float64
		for _, rel := range g.Neighbors(e) {
			if p, ok := out[rel]; ok {
				relAngles = append(relAngles, geom.Angle(center, p))
			}
		}
		sectors := freeSectors(relAngles)

		total := 0.0
		lengths := make([]float64, len(sectors))
		for i, s := range sectors {
			lengths[i] = s.length
			total += s.length
		}
		orb := orbitFor(g, e, cfg)
		n := len(attrs)
		radius := orb.radius(n, total)

		next := 0
		for i, k := range geom.Apportion(lengths, n) {
			if k == 0 {
				continue
			}
			step := sectors[i].length / float64(k)
			for j := 0; j < k; j++ {
				id := attrs[next]
				next++
				a := sectors[i].start + step*(float64(j)+0.5)
				if len(relAngles) > 0 {
					a = avoidRelations(a+geom.Jitter(id.String(), math.Min(0.1*step, maxAttrJitter)), step, k, relAngles)
				}
				out[id] = geom.Polar(center, a, radius)
			}
		}
	}
	return out
}

// freeSectors returns the arcs between consecutive relationship directions,
// each shrunk by the half-gap on both ends. Without usable arcs the whole
// circle is free.
func freeSectors(relAngles []float64) []sector {
	if len(relAngles) == 0 {
		return []sector{{0, geom.TwoPi}}
	}
	angles := make([]float64, len(relAngles))
	for i, a := range relAngles {
		angles[i] = geom.NormalizeAngle(a)
	}
	sort.Float64s(angles)

	var out []sector
	for i, a := range angles {
		next := angles[0] + geom.TwoPi
		if i+1 < len(angles) {
			next = angles[i+1]
		}
		if length := next - a - 2*relHalfGap; length > 0 {
			out = append(out, sector{a + relHalfGap, length})
		}
	}
	if len(out) == 0 {
		return []sector{{0, geom.TwoPi}}
	}
	return out
}

// avoidRelations nudges a candidate angle forward while it sits too close
// to a relationship direction.
func avoidRelations(a, step float64, n int, relAngles []float64) float64 {
	shift := step / float64(n+1)
	for tries := 0; tries < n; tries++ {
		free := true
		for _, r := range relAngles {
			if geom.AngularDistance(a, r) < relClearance {
				free = false
				break
			}
		}
		if free {
			break
		}
		a += shift
	}
	return a
}
