// Package mds places ER skeletons by classical multidimensional scaling.
//
// Graph distances are weighted shortest paths over the skeleton, with each
// edge as long as the rest length of the spring between its ends. Torgerson
// scaling then finds the planar embedding that best preserves them.
package mds

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
)

// componentGap is added to the largest finite distance to separate
// disconnected components.
const componentGap = 3.0

// Provider is a [layout.SkeletonProvider] backed by gonum.
type Provider struct {
	Logger *log.Logger
}

// New returns a provider logging to logger. A nil logger discards output.
func New(logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provider{Logger: logger}
}

// Name implements layout.SkeletonProvider.
func (*Provider) Name() string { return "mds" }

// Place implements layout.SkeletonProvider.
func (p *Provider) Place(ctx context.Context, g *er.Graph, cfg layout.Config) (layout.Coordinates, error) {
	ids := g.Skeleton()
	coords := make(layout.Coordinates, len(ids))
	switch len(ids) {
	case 0:
		return coords, nil
	case 1:
		coords[ids[0]] = r2.Vec{}
		return coords, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dis, comps := distances(g, cfg)
	var dst mat.Dense
	eig := make([]float64, len(ids))
	k, _ := mds.TorgersonScaling(&dst, eig, dis)
	if k == 0 {
		return nil, fmt.Errorf("mds: scaling found no positive eigenvalues")
	}
	for i, id := range ids {
		v := r2.Vec{X: dst.At(i, 0)}
		if k > 1 {
			v.Y = dst.At(i, 1)
		}
		coords[id] = v
	}
	if p.Logger != nil {
		p.Logger.Debug("mds placed skeleton", "nodes", len(ids), "components", comps, "dimensions", k)
	}
	return coords, nil
}

// distances returns the symmetric matrix of skeleton distances indexed in
// g.Skeleton() order, and the number of connected components.
func distances(g *er.Graph, cfg layout.Config) (*mat.SymDense, int) {
	ids := g.Skeleton()
	index := make(map[er.NodeID]int64, len(ids))
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i, id := range ids {
		index[id] = int64(i)
		wg.AddNode(simple.Node(i))
	}
	fp := layout.Footprints(g, cfg)
	for _, rel := range g.Relationships() {
		for _, e := range g.Neighbors(rel) {
			w := fp[rel] + fp[e] + cfg.SafeGap
			wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(index[rel]), simple.Node(index[e]), w))
		}
	}

	comp := make([]int, len(ids))
	cc := topo.ConnectedComponents(wg)
	for c, nodes := range cc {
		for _, n := range nodes {
			comp[n.ID()] = c
		}
	}

	paths := path.DijkstraAllPaths(wg)
	n := len(ids)
	dis := mat.NewSymDense(n, nil)
	longest := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if comp[i] != comp[j] {
				continue
			}
			d := paths.Weight(int64(i), int64(j))
			dis.SetSym(i, j, d)
			longest = math.Max(longest, d)
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if comp[i] != comp[j] {
				dis.SetSym(i, j, longest+componentGap)
			}
		}
	}
	return dis, len(cc)
}
