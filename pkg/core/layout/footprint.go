package layout

import (
	"math"

	"github.com/matzehuels/erlayout/pkg/core/er"
)

// Attribute orbit constants shared by footprint estimation and placement.
const (
	// orbitGap is the clearance between an entity's bounding circle and its
	// attributes' bounding circles.
	orbitGap = 0.4
	// attrSlotFactor scales attribute width into the arc length one
	// attribute occupies on its orbit.
	attrSlotFactor = 1.3
	// relHalfGap is the angle kept free on each side of a relationship line.
	relHalfGap = 0.35
	// chordSlack keeps neighboring attributes strictly clear of the final
	// separation threshold.
	chordSlack = 0.01
)

// Footprints returns the radius each skeleton node effectively occupies.
// For an entity this includes the orbit its attributes will be placed on,
// so skeleton spacing leaves room for them. Other nodes use their bounding
// radius.
func Footprints(g *er.Graph, cfg Config) map[er.NodeID]float64 {
	fp := make(map[er.NodeID]float64, len(g.Skeleton()))
	for _, id := range g.Skeleton() {
		fp[id] = g.Radius(id)
	}
	for _, e := range g.Entities() {
		attrs := g.Attributes(e)
		if len(attrs) == 0 {
			continue
		}
		orb := orbitFor(g, e, cfg)
		free := math.Max(math.Pi, 2*math.Pi-float64(len(g.Neighbors(e)))*2*relHalfGap)
		fp[e] = math.Max(g.Radius(e), orb.radius(len(attrs), free)+orb.attrRadius)
	}
	return fp
}

// orbit describes the attribute ring of one entity.
type orbit struct {
	minRadius  float64 // smallest orbit that clears the entity
	slot       float64 // arc length per attribute
	attrRadius float64 // largest attribute bounding radius
	chord      float64 // center distance two neighbors must keep
}

// radius returns the orbit for n attributes spread over an arc of length
// free. Neighbors are both a full slot apart along the arc and at least
// chord apart in a straight line.
func (o orbit) radius(n int, free float64) float64 {
	r := math.Max(o.minRadius, float64(n)*o.slot/free)
	if step := free / float64(n); n > 1 && step < math.Pi {
		r = math.Max(r, o.chord/(2*math.Sin(step/2)))
	}
	return r
}

func orbitFor(g *er.Graph, entity er.NodeID, cfg Config) orbit {
	var maxR, maxW float64
	for _, a := range g.Attributes(entity) {
		n, _ := g.Node(a)
		maxR = math.Max(maxR, n.Radius)
		maxW = math.Max(maxW, n.Width)
	}
	return orbit{
		minRadius:  g.Radius(entity) + maxR + orbitGap,
		slot:       math.Max(attrSlotFactor*maxW, 2*maxR+cfg.GlobalSepPadding),
		attrRadius: maxR,
		chord:      2*maxR + cfg.GlobalSepPadding + chordSlack,
	}
}
