package layout

import (
	"context"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// SkeletonProvider places the skeleton of a graph: its entities and
// relationship nodes. Attributes are placed later by the engine.
//
// Implementations must return a position for every node in g.Skeleton().
// The graph is shared and must not be modified.
type SkeletonProvider interface {
	Name() string
	Place(ctx context.Context, g *er.Graph, cfg Config) (Coordinates, error)
}

// Skeleton spacing constants.
const (
	// minChainSpacing is the smallest distance between consecutive chain nodes.
	minChainSpacing = 3.0
	// branchBuffer separates a node's footprint from the next node on a branch.
	branchBuffer = 0.6
	// componentGap is the horizontal gap between tiled components.
	componentGap = 3.5
)

// skeleton is the transient state produced by skeleton placement and
// consumed by force relaxation and refinement.
type skeleton struct {
	coords Coordinates
	chain  map[er.NodeID]r2.Vec // pinned nodes and their anchors
	sides  map[er.NodeID]int
	forest forest
	fp     map[er.NodeID]float64
}

func (s *skeleton) pinned(id er.NodeID) bool {
	_, ok := s.chain[id]
	return ok
}

// side returns the recorded half-plane of id, or the half-plane of its
// current direction from center when no hint exists. Zero maps to +1.
func (s *skeleton) side(id er.NodeID, center r2.Vec) int {
	if v := s.sides[id]; v != 0 {
		return v
	}
	if v := geom.Side(geom.Angle(center, s.coords[id])); v != 0 {
		return v
	}
	return 1
}

// =============================================================================
// Components and paths
// =============================================================================

// components returns the connected components of the skeleton. Each
// component is sorted and components are ordered by their first node.
func components(g *er.Graph) [][]er.NodeID {
	seen := make(map[er.NodeID]bool, len(g.Skeleton()))
	var out [][]er.NodeID
	for _, start := range g.Skeleton() {
		if seen[start] {
			continue
		}
		var comp []er.NodeID
		stack := []er.NodeID{start}
		seen[start] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, id)
			for _, nb := range g.Neighbors(id) {
				if !seen[nb] {
					seen[nb] = true
					stack = append(stack, nb)
				}
			}
		}
		slices.SortFunc(comp, er.Compare)
		out = append(out, comp)
	}
	return out
}

// bfs walks the skeleton from start. It returns the visit order and the
// predecessor of every reached node.
func bfs(g *er.Graph, start er.NodeID) ([]er.NodeID, map[er.NodeID]er.NodeID, map[er.NodeID]int) {
	dist := map[er.NodeID]int{start: 0}
	pred := make(map[er.NodeID]er.NodeID)
	order := []er.NodeID{start}
	for i := 0; i < len(order); i++ {
		id := order[i]
		for _, nb := range g.Neighbors(id) {
			if _, ok := dist[nb]; ok {
				continue
			}
			dist[nb] = dist[id] + 1
			pred[nb] = id
			order = append(order, nb)
		}
	}
	return order, pred, dist
}

// farthest returns the first node in BFS order at maximum distance.
func farthest(order []er.NodeID, dist map[er.NodeID]int) er.NodeID {
	best := order[0]
	for _, id := range order {
		if dist[id] > dist[best] {
			best = id
		}
	}
	return best
}

// longestPath approximates the longest simple path of a component with a
// double breadth-first sweep. The result runs from one end to the other.
func longestPath(g *er.Graph, comp []er.NodeID) []er.NodeID {
	if len(comp) == 0 {
		return nil
	}
	order, _, dist := bfs(g, comp[0])
	a := farthest(order, dist)
	order, pred, dist := bfs(g, a)
	b := farthest(order, dist)

	path := []er.NodeID{b}
	for id := b; id != a; {
		id = pred[id]
		path = append(path, id)
	}
	slices.Reverse(path)
	return path
}

// =============================================================================
// Forest
// =============================================================================

// forest records how every off-chain node was reached from the main chain.
// Subtree moves use it to carry whole branches along with their root.
type forest struct {
	parent   map[er.NodeID]er.NodeID
	depth    map[er.NodeID]int
	children map[er.NodeID][]er.NodeID
}

// buildForest runs a multi-source BFS from the chain nodes over the skeleton.
func buildForest(g *er.Graph, chain map[er.NodeID]r2.Vec) forest {
	f := forest{
		parent:   make(map[er.NodeID]er.NodeID),
		depth:    make(map[er.NodeID]int),
		children: make(map[er.NodeID][]er.NodeID),
	}
	var queue []er.NodeID
	for _, id := range g.Skeleton() {
		if _, ok := chain[id]; ok {
			f.depth[id] = 0
			queue = append(queue, id)
		}
	}
	for i := 0; i < len(queue); i++ {
		id := queue[i]
		for _, nb := range g.Neighbors(id) {
			if _, ok := f.depth[nb]; ok {
				continue
			}
			f.depth[nb] = f.depth[id] + 1
			f.parent[nb] = id
			f.children[id] = append(f.children[id], nb)
			queue = append(queue, nb)
		}
	}
	return f
}

// isChild reports whether id was reached from parent.
func (f forest) isChild(parent, id er.NodeID) bool {
	p, ok := f.parent[id]
	return ok && p == parent
}

// subtree returns id followed by all of its descendants.
func (f forest) subtree(id er.NodeID) []er.NodeID {
	out := []er.NodeID{id}
	for i := 0; i < len(out); i++ {
		out = append(out, f.children[out[i]]...)
	}
	return out
}

// =============================================================================
// Angular expansion
// =============================================================================

// extraAngles returns count new directions in the half-plane selected by
// sign: [0, π) for +1 and [π, 2π) for -1. Anchors inside the half-plane
// split it into segments and the new directions are apportioned to the
// segments by length, evenly spaced inside each.
func extraAngles(anchors []float64, count, sign int) []float64 {
	if count <= 0 {
		return nil
	}
	lo := 0.0
	if sign < 0 {
		lo = math.Pi
	}
	hi := lo + math.Pi

	cuts := []float64{lo}
	for _, a := range anchors {
		a = geom.NormalizeAngle(a)
		if a > lo && a < hi {
			cuts = append(cuts, a)
		}
	}
	sort.Float64s(cuts)
	cuts = append(cuts, hi)

	lengths := make([]float64, len(cuts)-1)
	for i := range lengths {
		lengths[i] = cuts[i+1] - cuts[i]
	}
	counts := geom.Apportion(lengths, count)

	out := make([]float64, 0, count)
	for i, k := range counts {
		for j := 0; j < k; j++ {
			out = append(out, cuts[i]+lengths[i]*float64(j+1)/float64(k+1))
		}
	}
	return out
}

// =============================================================================
// External skeletons
// =============================================================================

// adoptSkeleton wraps provider output in skeleton state. The main chain is
// the longest path of each component, pinned where the provider put it.
func adoptSkeleton(g *er.Graph, cfg Config, coords Coordinates) *skeleton {
	sk := &skeleton{
		coords: coords.Clone(),
		chain:  make(map[er.NodeID]r2.Vec),
		sides:  make(map[er.NodeID]int),
		fp:     Footprints(g, cfg),
	}
	for _, comp := range components(g) {
		for _, id := range longestPath(g, comp) {
			sk.chain[id] = coords[id]
		}
	}
	sk.forest = buildForest(g, sk.chain)
	for id, p := range sk.forest.parent {
		sk.sides[id] = geom.Side(geom.Angle(coords[p], coords[id]))
	}
	return sk
}
