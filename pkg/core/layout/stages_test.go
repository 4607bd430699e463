package layout

import (
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

func TestExtraAngles(t *testing.T) {
	tests := []struct {
		name    string
		anchors []float64
		count   int
		sign    int
		want    []float64
	}{
		{"upper, no anchors", nil, 3, 1, []float64{math.Pi / 4, math.Pi / 2, 3 * math.Pi / 4}},
		{"lower, no anchors", nil, 1, -1, []float64{3 * math.Pi / 2}},
		{"anchor splits upper", []float64{math.Pi / 2}, 2, 1, []float64{math.Pi / 4, 3 * math.Pi / 4}},
		{"anchor in other half ignored", []float64{3 * math.Pi / 2}, 1, 1, []float64{math.Pi / 2}},
		{"none requested", []float64{1}, 0, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extraAngles(tt.anchors, tt.count, tt.sign)
			if len(got) != len(tt.want) {
				t.Fatalf("extraAngles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("angle %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLongestPath(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
		Relationships: []er.Relationship{
			{Name: "ab", Entity1: "A", Entity2: "B"},
			{Name: "bc", Entity1: "B", Entity2: "C"},
			{Name: "bd", Entity1: "B", Entity2: "D"},
		},
	})
	comps := components(g)
	if len(comps) != 1 {
		t.Fatalf("components = %d, want 1", len(comps))
	}
	path := longestPath(g, comps[0])
	if len(path) != 5 {
		t.Fatalf("path %v has %d nodes, want 5", path, len(path))
	}
	for i := 1; i < len(path); i++ {
		if !slices.Contains(g.Neighbors(path[i-1]), path[i]) {
			t.Errorf("%s and %s are not adjacent", path[i-1], path[i])
		}
	}
	if !path[0].IsEntity() || !path[len(path)-1].IsEntity() {
		t.Errorf("path should start and end at entities: %v", path)
	}
}

func TestComponents(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Attributes: []er.Attribute{
			{Entity: "C", Name: "x", PrimaryKey: true},
		},
		Relationships: []er.Relationship{{Name: "ab", Entity1: "A", Entity2: "B"}},
	})
	if got := len(components(g)); got != 2 {
		t.Errorf("skeleton components = %d, want 2", got)
	}
	full := graphComponents(g)
	if len(full) != 2 {
		t.Fatalf("graph components = %d, want 2", len(full))
	}
	if !slices.Contains(full[1], er.AttributeID("C", "x")) {
		t.Errorf("attribute not grouped with its entity: %v", full)
	}
}

func TestChainProviderLine(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Relationships: []er.Relationship{
			{Name: "ab", Entity1: "A", Entity2: "B"},
			{Name: "bc", Entity1: "B", Entity2: "C"},
		},
	})
	sk := ChainProvider{}.layout(g, Preset(Light))
	if len(sk.chain) != 5 {
		t.Fatalf("chain has %d nodes, want 5", len(sk.chain))
	}
	y := sk.coords[er.EntityID("A")].Y
	for _, id := range g.Skeleton() {
		if p := sk.coords[id]; math.Abs(p.Y-y) > 1e-12 {
			t.Errorf("%s at %v, want y=%v", id, p, y)
		}
	}
	a, c := sk.coords[er.EntityID("A")], sk.coords[er.EntityID("C")]
	if d := geom.Dist(a, c); math.Abs(d-4*minChainSpacing) > 1e-9 {
		t.Errorf("chain length %v, want %v", d, 4*minChainSpacing)
	}
}

func TestChainProviderBranches(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	cfg := Preset(Light)
	sk := ChainProvider{}.layout(g, cfg)

	for _, id := range g.Skeleton() {
		if _, ok := sk.coords[id]; !ok {
			t.Fatalf("%s not placed", id)
		}
	}
	for id := range sk.chain {
		if sk.sides[id] != 0 {
			t.Errorf("chain node %s has side %d", id, sk.sides[id])
		}
	}
	for _, id := range g.Skeleton() {
		if sk.pinned(id) {
			continue
		}
		if s := sk.sides[id]; s != 1 && s != -1 {
			t.Errorf("branch node %s has side %d", id, s)
		}
		if _, ok := sk.forest.parent[id]; !ok {
			t.Errorf("branch node %s has no forest parent", id)
		}
	}
}

func TestChainProviderRows(t *testing.T) {
	doc := er.Document{}
	for _, n := range []string{"A", "B", "C", "D"} {
		doc.Entities = append(doc.Entities, er.Entity{Name: n})
	}
	g := buildGraph(t, doc)

	one := ChainProvider{}.layout(g, Preset(Light))
	wrapped := ChainProvider{MaxRowWidth: 5}.layout(g, Preset(Light))

	ys := map[float64]bool{}
	for _, p := range one.coords {
		ys[p.Y] = true
	}
	if len(ys) != 1 {
		t.Errorf("unwrapped layout uses %d rows, want 1", len(ys))
	}
	ys = map[float64]bool{}
	for _, p := range wrapped.coords {
		ys[p.Y] = true
	}
	if len(ys) < 2 {
		t.Errorf("wrapped layout uses %d rows, want at least 2", len(ys))
	}
}

func TestForestSubtree(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Relationships: []er.Relationship{
			{Name: "ab", Entity1: "A", Entity2: "B"},
			{Name: "bc", Entity1: "B", Entity2: "C"},
		},
	})
	a := er.EntityID("A")
	f := buildForest(g, map[er.NodeID]r2.Vec{a: {}})
	sub := f.subtree(er.RelationshipID("bc", 1))
	want := []er.NodeID{er.RelationshipID("bc", 1), er.EntityID("C")}
	if !slices.Equal(sub, want) {
		t.Errorf("subtree = %v, want %v", sub, want)
	}
	if f.depth[er.EntityID("C")] != 4 {
		t.Errorf("depth(C) = %d, want 4", f.depth[er.EntityID("C")])
	}
	if !f.isChild(a, er.RelationshipID("ab", 0)) {
		t.Error("ab should be a child of A")
	}
}

func TestFootprints(t *testing.T) {
	g := buildGraph(t, studentDoc(true))
	cfg := Preset(Light)
	fp := Footprints(g, cfg)
	for _, id := range g.Skeleton() {
		if fp[id] < g.Radius(id) {
			t.Errorf("footprint of %s = %v below radius %v", id, fp[id], g.Radius(id))
		}
	}
	student := er.EntityID("Student")
	attr := g.Radius(er.AttributeID("Student", "ID"))
	if least := g.Radius(student) + 2*attr + orbitGap; fp[student] < least-1e-12 {
		t.Errorf("footprint of Student = %v, want at least %v", fp[student], least)
	}
	if rel := er.RelationshipID("Takes", 0); fp[rel] != g.Radius(rel) {
		t.Errorf("footprint of Takes = %v, want radius", fp[rel])
	}
}

func TestFreeSectors(t *testing.T) {
	if got := freeSectors(nil); len(got) != 1 || got[0].length != geom.TwoPi {
		t.Errorf("freeSectors(nil) = %v", got)
	}
	got := freeSectors([]float64{0, math.Pi})
	if len(got) != 2 {
		t.Fatalf("freeSectors = %v, want 2 sectors", got)
	}
	for _, s := range got {
		if math.Abs(s.length-(math.Pi-2*relHalfGap)) > 1e-12 {
			t.Errorf("sector length %v", s.length)
		}
	}
	crowded := freeSectors([]float64{0, 0.1, 0.2})
	total := 0.0
	for _, s := range crowded {
		total += s.length
	}
	if math.Abs(total-(geom.TwoPi-0.2-2*relHalfGap)) > 1e-12 {
		t.Errorf("crowded sectors cover %v", total)
	}
}

func TestPlaceAttributesAvoidsRelationships(t *testing.T) {
	g := buildGraph(t, studentDoc(true))
	student, takes, room := er.EntityID("Student"), er.RelationshipID("Takes", 0), er.EntityID("ClassRoom")
	coords := Coordinates{
		student: {},
		takes:   {X: 3},
		room:    {X: 6},
	}
	out := placeAttributes(g, Preset(Light), coords)
	for _, a := range g.Attributes(student) {
		ang := geom.Angle(out[student], out[a])
		if geom.AngularDistance(ang, 0) < relHalfGap {
			t.Errorf("%s at angle %v crowds the relationship", a, ang)
		}
	}
	if out[takes] != coords[takes] {
		t.Error("placeAttributes moved a relationship")
	}
}

func TestSeparate(t *testing.T) {
	g := buildGraph(t, er.Document{Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}}})
	coords := Coordinates{
		er.EntityID("A"): {},
		er.EntityID("B"): {},
		er.EntityID("C"): {X: 0.1},
	}
	cfg := Preset(Light)
	out, stats := separate(g, cfg, coords)
	if !stats.Converged {
		t.Fatalf("separate did not converge: %+v", stats)
	}
	assertNoOverlap(t, g, out, cfg.GlobalSepPadding)
	if coords[er.EntityID("A")] != (r2.Vec{}) {
		t.Error("separate modified its input")
	}
}

func TestSpreadSingleComponent(t *testing.T) {
	g := buildGraph(t, studentDoc(false))
	coords := Coordinates{
		er.EntityID("Student"):        {X: -3},
		er.RelationshipID("Takes", 0): {},
		er.EntityID("ClassRoom"):      {X: 3},
	}
	out, n := spread(g, coords)
	if n != 1 {
		t.Errorf("components = %d, want 1", n)
	}
	for id, p := range coords {
		if out[id] != p {
			t.Errorf("%s moved from %v to %v", id, p, out[id])
		}
	}
}

func TestRelaxKeepsChainPinned(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	cfg := Preset(Light)
	sk := ChainProvider{}.layout(g, cfg)
	stats := relax(g, cfg, sk, schedule{iterations: cfg.SpringIterations, full: true})
	if stats.Iterations == 0 || stats.Iterations > cfg.SpringIterations {
		t.Errorf("iterations = %d", stats.Iterations)
	}
	for id, anchor := range sk.chain {
		if sk.coords[id] != anchor {
			t.Errorf("chain node %s moved to %v", id, sk.coords[id])
		}
	}
	if !sk.coords.Valid() {
		t.Error("relax produced non-finite coordinates")
	}
}

func TestScheduleTemperature(t *testing.T) {
	full := schedule{iterations: 100, full: true}
	if got := full.temperature(0); got != hotTemperature {
		t.Errorf("start = %v, want %v", got, hotTemperature)
	}
	if got := full.temperature(50); math.Abs(got-warmTemperature) > 1e-12 {
		t.Errorf("midpoint = %v, want %v", got, warmTemperature)
	}
	cold := schedule{iterations: 100}
	if got := cold.temperature(0); got != warmTemperature {
		t.Errorf("cold start = %v, want %v", got, warmTemperature)
	}
	prev := math.Inf(1)
	for i := 0; i < 100; i++ {
		cur := full.temperature(i)
		if cur > prev {
			t.Fatalf("temperature rose at %d: %v > %v", i, cur, prev)
		}
		prev = cur
	}
}

func TestUnionFindCompression(t *testing.T) {
	ids := []er.NodeID{er.EntityID("A"), er.EntityID("B"), er.EntityID("C"), er.EntityID("D")}
	uf := make(unionFind)
	uf.union(ids[3], ids[2])
	uf.union(ids[2], ids[1])
	uf.union(ids[1], ids[0])
	for round := 0; round < 2; round++ {
		for _, id := range ids {
			if got := uf.find(id); got != ids[0] {
				t.Errorf("round %d: find(%s) = %v, want %s", round, id, got, ids[0])
			}
		}
	}
}

func TestGraphComponents(t *testing.T) {
	tests := []struct {
		name      string
		doc       er.Document
		wantSizes []int
	}{
		{"one relationship", studentDoc(false), []int{3}},
		{"one relationship with attributes", studentDoc(true), []int{6}},
		{"shared entity", er.Document{
			Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}},
			Relationships: []er.Relationship{
				{Name: "ab", Entity1: "A", Entity2: "B"},
				{Name: "ac", Entity1: "A", Entity2: "C"},
			},
		}, []int{5}},
		{"self relationship", er.Document{
			Entities: []er.Entity{{Name: "A"}, {Name: "B"}},
			Relationships: []er.Relationship{
				{Name: "ab", Entity1: "A", Entity2: "B"},
				{Name: "aa", Entity1: "A", Entity2: "A"},
			},
		}, []int{4}},
		{"mixed", er.Document{
			Entities:   []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
			Attributes: []er.Attribute{{Entity: "D", Name: "x", PrimaryKey: true}},
			Relationships: []er.Relationship{
				{Name: "ab", Entity1: "A", Entity2: "B"},
				{Name: "ac", Entity1: "A", Entity2: "C"},
				{Name: "cc", Entity1: "C", Entity2: "C"},
			},
		}, []int{6, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.doc)
			comps := graphComponents(g)
			sizes := make([]int, len(comps))
			seen := make(map[er.NodeID]bool)
			for i, c := range comps {
				sizes[i] = len(c)
				for _, id := range c {
					if seen[id] {
						t.Errorf("%s appears in two components", id)
					}
					seen[id] = true
				}
			}
			slices.Sort(sizes)
			want := slices.Clone(tt.wantSizes)
			slices.Sort(want)
			if !slices.Equal(sizes, want) {
				t.Errorf("component sizes = %v, want %v (%v)", sizes, want, comps)
			}
			if len(seen) != g.Len() {
				t.Errorf("components cover %d nodes, want %d", len(seen), g.Len())
			}
		})
	}
}

func TestRelationGroups(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
		Relationships: []er.Relationship{
			{Name: "p", Entity1: "A", Entity2: "B"},
			{Name: "p", Entity1: "A", Entity2: "B"},
			{Name: "ac", Entity1: "A", Entity2: "C"},
			{Name: "bc", Entity1: "B", Entity2: "C"},
			{Name: "ad", Entity1: "A", Entity2: "D"},
			{Name: "aa", Entity1: "A", Entity2: "A"},
		},
	})
	p0, p1 := er.RelationshipID("p", 0), er.RelationshipID("p", 1)
	ac, ad, aa := er.RelationshipID("ac", 2), er.RelationshipID("ad", 4), er.RelationshipID("aa", 5)

	got := relationGroups(g, er.EntityID("A"), []er.NodeID{p0, p1, ac, ad, aa})

	first := []er.NodeID{p0, p1, ac}
	slices.SortFunc(first, er.Compare)
	want := [][]er.NodeID{first, {ad}, {aa}}
	if len(got) != len(want) {
		t.Fatalf("groups = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("group %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAssignBranchSides(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
		Relationships: []er.Relationship{
			{Name: "ab", Entity1: "A", Entity2: "B"},
			{Name: "ac", Entity1: "A", Entity2: "C"},
			{Name: "bd", Entity1: "B", Entity2: "D"},
		},
	})
	a, b := er.EntityID("A"), er.EntityID("B")
	ab := er.RelationshipID("ab", 0)
	left := []er.NodeID{er.RelationshipID("ac", 1), er.EntityID("C")}
	right := []er.NodeID{er.RelationshipID("bd", 2), er.EntityID("D")}

	tests := []struct {
		name      string
		hints     map[er.NodeID]int
		wantLeft  int
		wantRight int
	}{
		{"node already assigned", map[er.NodeID]int{er.EntityID("D"): -1}, 0, -1},
		{"chain anchor", map[er.NodeID]int{a: -1}, -1, 1},
		{"both inherited", map[er.NodeID]int{a: 1, er.EntityID("D"): 1}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk := &skeleton{
				coords: Coordinates{a: {}, ab: {X: 3}, b: {X: 6}},
				chain:  map[er.NodeID]r2.Vec{a: {}, ab: {X: 3}, b: {X: 6}},
				sides:  make(map[er.NodeID]int),
			}
			for id, s := range tt.hints {
				sk.sides[id] = s
			}
			assignBranchSides(g, sk, components(g)[0])

			check := func(branch []er.NodeID, want int) {
				s := sk.sides[branch[0]]
				if s != 1 && s != -1 {
					t.Fatalf("%s has side %d", branch[0], s)
				}
				if want != 0 && s != want {
					t.Errorf("%s side = %d, want %d", branch[0], s, want)
				}
				for _, id := range branch[1:] {
					if sk.sides[id] != s {
						t.Errorf("branch split: %s = %d, %s = %d", branch[0], s, id, sk.sides[id])
					}
				}
			}
			check(left, tt.wantLeft)
			check(right, tt.wantRight)
		})
	}
}

func TestChainProviderParallelRelationships(t *testing.T) {
	g := buildGraph(t, er.Document{
		Entities: []er.Entity{{Name: "X"}, {Name: "A"}, {Name: "Y"}, {Name: "Z"}, {Name: "W"}, {Name: "B"}},
		Relationships: []er.Relationship{
			{Name: "xa", Entity1: "X", Entity2: "A"},
			{Name: "ay", Entity1: "A", Entity2: "Y"},
			{Name: "yz", Entity1: "Y", Entity2: "Z"},
			{Name: "zw", Entity1: "Z", Entity2: "W"},
			{Name: "p", Entity1: "Y", Entity2: "B"},
			{Name: "p", Entity1: "Y", Entity2: "B"},
		},
	})
	sk := ChainProvider{}.layout(g, Preset(Light))
	y, bEnt := er.EntityID("Y"), er.EntityID("B")
	p0, p1 := er.RelationshipID("p", 4), er.RelationshipID("p", 5)

	if !sk.pinned(y) || sk.pinned(p0) || sk.pinned(p1) {
		t.Fatalf("unexpected chain: %v", sk.chain)
	}
	side := sk.sides[p0]
	if side == 0 || sk.sides[p1] != side || sk.sides[bEnt] != side {
		t.Fatalf("sides p0=%d p1=%d B=%d, want one shared non-zero side", side, sk.sides[p1], sk.sides[bEnt])
	}
	center := sk.coords[y]
	for _, id := range []er.NodeID{p0, p1, bEnt} {
		if dy := sk.coords[id].Y - center.Y; dy*float64(side) <= 0 {
			t.Errorf("%s at %v is not on side %d of the chain", id, sk.coords[id], side)
		}
	}
	a0, a1 := geom.Angle(center, sk.coords[p0]), geom.Angle(center, sk.coords[p1])
	if d := geom.AngularDistance(a0, a1); d < 0.5 {
		t.Errorf("parallel relationships only %.3f rad apart", d)
	}
	if geom.Dist(center, sk.coords[bEnt]) <= geom.Dist(center, sk.coords[p0]) {
		t.Error("far entity should lie beyond its relationship")
	}
}
