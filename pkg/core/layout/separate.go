package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

const (
	maxSeparationRounds = 400
	separationOvershoot = 5e-5
	separationTolerance = 1e-3
)

// SeparationStats summarizes the final collision pass.
type SeparationStats struct {
	Rounds    int
	Converged bool
	MaxMove   float64
}

// separate pushes apart every pair of nodes closer than the sum of their
// radii plus the global padding. Pairs are visited in sorted order and
// updated in place.
func separate(g *er.Graph, cfg Config, coords Coordinates) (Coordinates, SeparationStats) {
	out := coords.Clone()
	ids := out.Keys()
	var stats SeparationStats
	for stats.Rounds < maxSeparationRounds {
		stats.Rounds++
		maxMove := 0.0
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				pa, pb := out[a], out[b]
				d := geom.Dist(pa, pb)
				need := g.Radius(a) + g.Radius(b) + cfg.GlobalSepPadding
				if d >= need {
					continue
				}
				move := (need-d)/2 + separationOvershoot
				dir := separation(pa, pb, a, b)
				out[a] = r2.Add(pa, r2.Scale(move, dir))
				out[b] = r2.Sub(pb, r2.Scale(move, dir))
				maxMove = math.Max(maxMove, move)
			}
		}
		stats.MaxMove = maxMove
		if maxMove < separationTolerance {
			stats.Converged = true
			break
		}
	}
	return out, stats
}
