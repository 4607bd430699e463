package layout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
)

func buildGraph(t *testing.T, doc er.Document) *er.Graph {
	t.Helper()
	g, issues := er.Build(doc, er.DefaultSizes())
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	return g
}

func mustBuild(t *testing.T, g *er.Graph, cfg Config, opts ...Option) Result {
	t.Helper()
	res, err := Build(context.Background(), g, cfg, opts...)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return res
}

// schoolDoc is a connected schema with branches, a cycle, a self
// relationship and parallel relationships.
func schoolDoc() er.Document {
	names := []string{"Student", "Course", "Teacher", "Room", "Department", "Exam", "Grade", "Building", "Club", "Locker", "Book", "Library"}
	var doc er.Document
	for i, n := range names {
		doc.Entities = append(doc.Entities, er.Entity{Name: n})
		doc.Attributes = append(doc.Attributes, er.Attribute{Entity: n, Name: "ID", PrimaryKey: true})
		for j := 0; j < i%4+1; j++ {
			doc.Attributes = append(doc.Attributes, er.Attribute{Entity: n, Name: fmt.Sprintf("Field%d", j)})
		}
	}
	rel := func(name, a, b string, c er.Cardinality) {
		doc.Relationships = append(doc.Relationships, er.Relationship{Name: name, Entity1: a, Entity2: b, Cardinality: c})
	}
	rel("Takes", "Student", "Course", er.ManyToMany)
	rel("Teaches", "Teacher", "Course", er.OneToMany)
	rel("HeldIn", "Course", "Room", er.OneToMany)
	rel("Employs", "Department", "Teacher", er.OneToMany)
	rel("Offers", "Department", "Course", er.OneToMany)
	rel("Assesses", "Exam", "Course", er.OneToMany)
	rel("Scores", "Student", "Grade", er.OneToMany)
	rel("Of", "Grade", "Exam", er.OneToMany)
	rel("Contains", "Building", "Room", er.OneToMany)
	rel("Joins", "Student", "Club", er.ManyToMany)
	rel("Uses", "Student", "Locker", er.OneToOne)
	rel("Borrows", "Student", "Book", er.ManyToMany)
	rel("Holds", "Library", "Book", er.OneToMany)
	rel("Mentors", "Teacher", "Teacher", er.OneToMany)
	rel("Advises", "Teacher", "Student", er.OneToMany)
	rel("Supervises", "Teacher", "Student", er.OneToMany)
	return doc
}

func studentDoc(withAttrs bool) er.Document {
	doc := er.Document{
		Entities: []er.Entity{{Name: "Student"}, {Name: "ClassRoom"}},
		Relationships: []er.Relationship{
			{Name: "Takes", Entity1: "Student", Entity2: "ClassRoom", Cardinality: er.OneToMany},
		},
	}
	if withAttrs {
		doc.Attributes = []er.Attribute{
			{Entity: "Student", Name: "ID", PrimaryKey: true},
			{Entity: "Student", Name: "Name"},
			{Entity: "ClassRoom", Name: "Code", PrimaryKey: true},
		}
	}
	return doc
}

func assertNoOverlap(t *testing.T, g *er.Graph, coords Coordinates, padding float64) {
	t.Helper()
	const eps = 0.05
	ids := coords.Keys()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			d := geom.Dist(coords[a], coords[b])
			need := g.Radius(a) + g.Radius(b) + padding - eps
			if d < need {
				t.Errorf("%s and %s overlap: distance %.4f < %.4f", a, b, d, need)
			}
		}
	}
}

func TestBuildNoOverlap(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	for _, l := range []Level{Light, Medium} {
		t.Run(l.String(), func(t *testing.T) {
			cfg := Preset(l)
			res := mustBuild(t, g, cfg)
			assertNoOverlap(t, g, res.Coords, cfg.GlobalSepPadding)
			if !res.Report.SeparationConverged {
				t.Errorf("separation did not converge in %d rounds", res.Report.SeparationRounds)
			}
		})
	}
}

func TestBuildAttributeCompleteness(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	res := mustBuild(t, g, Select(g.Stats()))

	if len(res.Coords) != g.Len() {
		t.Fatalf("got %d positions, want %d", len(res.Coords), g.Len())
	}
	for _, e := range g.Entities() {
		want := make(map[er.NodeID]bool)
		for _, a := range g.Attributes(e) {
			want[a] = true
		}
		for id := range res.Coords {
			if id.IsAttribute() && id.Owner == e.Name && !want[id] {
				t.Errorf("unexpected attribute %s", id)
			}
		}
		for a := range want {
			if _, ok := res.Coords[a]; !ok {
				t.Errorf("missing attribute %s", a)
			}
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	for _, l := range Levels {
		t.Run(l.String(), func(t *testing.T) {
			a := mustBuild(t, g, Preset(l)).Coords
			b := mustBuild(t, g, Preset(l)).Coords
			if len(a) != len(b) {
				t.Fatalf("sizes differ: %d vs %d", len(a), len(b))
			}
			for id, p := range a {
				if q := b[id]; p != q {
					t.Errorf("%s: %v vs %v", id, p, q)
				}
			}
		})
	}
}

func TestBuildSingleEntity(t *testing.T) {
	g := buildGraph(t, er.Document{Entities: []er.Entity{{Name: "Solo"}}})
	res := mustBuild(t, g, Select(g.Stats()))
	if len(res.Coords) != 1 {
		t.Fatalf("got %d positions, want 1", len(res.Coords))
	}
	p, ok := res.Coords[er.EntityID("Solo")]
	if !ok {
		t.Fatal("Solo missing")
	}
	if r2.Norm(p) > 1e-12 {
		t.Errorf("Solo at %v, want origin", p)
	}
}

func TestBuildEmpty(t *testing.T) {
	g := buildGraph(t, er.Document{})
	res := mustBuild(t, g, Preset(Light))
	if len(res.Coords) != 0 {
		t.Errorf("got %d positions for an empty graph", len(res.Coords))
	}
}

func TestBuildTwoEntities(t *testing.T) {
	student, room, takes := er.EntityID("Student"), er.EntityID("ClassRoom"), er.RelationshipID("Takes", 0)

	t.Run("bare", func(t *testing.T) {
		g := buildGraph(t, studentDoc(false))
		res := mustBuild(t, g, Select(g.Stats()))
		want := map[er.NodeID]r2.Vec{
			student: {X: -3},
			takes:   {},
			room:    {X: 3},
		}
		if len(res.Coords) != 3 {
			t.Fatalf("got %d positions, want 3", len(res.Coords))
		}
		for id, w := range want {
			if d := geom.Dist(res.Coords[id], w); d > 1e-9 {
				t.Errorf("%s at %v, want %v", id, res.Coords[id], w)
			}
		}
	})

	t.Run("with attributes", func(t *testing.T) {
		g := buildGraph(t, studentDoc(true))
		res := mustBuild(t, g, Select(g.Stats()))
		ps, pr, pt := res.Coords[student], res.Coords[room], res.Coords[takes]

		span := geom.Dist(ps, pr)
		need := g.Radius(student) + g.Radius(room) + 2*g.Radius(takes) + refineBuffer
		if span < need {
			t.Errorf("entities %.3f apart, want at least %.3f", span, need)
		}

		// The relationship lies on the segment between its entities.
		ab := r2.Sub(pr, ps)
		tt := r2.Dot(r2.Sub(pt, ps), ab) / r2.Dot(ab, ab)
		foot := r2.Add(ps, r2.Scale(tt, ab))
		if tt < 0 || tt > 1 || geom.Dist(foot, pt) > 0.05 {
			t.Errorf("relationship off the segment: t=%.3f, offset %.3f", tt, geom.Dist(foot, pt))
		}
	})
}

func TestBuildDisconnectedSpreads(t *testing.T) {
	g := buildGraph(t, er.Document{Entities: []er.Entity{{Name: "A"}, {Name: "B"}}})
	cfg := Select(g.Stats())
	res := mustBuild(t, g, cfg)

	a, b := res.Coords[er.EntityID("A")], res.Coords[er.EntityID("B")]
	if d, need := geom.Dist(a, b), g.Radius(er.EntityID("A"))+g.Radius(er.EntityID("B"))+spreadGap; d < need {
		t.Errorf("components %.3f apart, want at least %.3f", d, need)
	}
	if r2.Norm(a) < 1e-6 || r2.Norm(b) < 1e-6 {
		t.Errorf("a component sits at the origin: %v %v", a, b)
	}
	if res.Report.Components != 2 {
		t.Errorf("Components = %d, want 2", res.Report.Components)
	}
}

func TestBuildAttributeFan(t *testing.T) {
	doc := er.Document{Entities: []er.Entity{{Name: "Wide"}}}
	for i := 0; i < 30; i++ {
		doc.Attributes = append(doc.Attributes, er.Attribute{Entity: "Wide", Name: fmt.Sprintf("A%02d", i), PrimaryKey: i == 0})
	}
	g := buildGraph(t, doc)
	e := er.EntityID("Wide")

	for _, cfg := range []Config{Select(g.Stats()), Preset(Light)} {
		t.Run(cfg.Level.String(), func(t *testing.T) {
			res := mustBuild(t, g, cfg)
			center := res.Coords[e]
			attrs := g.Attributes(e)

			radius := geom.Dist(center, res.Coords[attrs[0]])
			step := geom.TwoPi / 30
			for i, a := range attrs {
				p := res.Coords[a]
				if d := geom.Dist(center, p); math.Abs(d-radius) > 1e-9 {
					t.Errorf("%s at radius %v, want %v", a, d, radius)
				}
				want := step * (float64(i) + 0.5)
				if got := geom.Angle(center, p); geom.AngularDistance(got, want) > 1e-9 {
					t.Errorf("%s at angle %v, want %v", a, got, want)
				}
			}
			assertNoOverlap(t, g, res.Coords, cfg.GlobalSepPadding)
		})
	}
}

type stubProvider struct {
	name  string
	place func(g *er.Graph) (Coordinates, error)
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Place(ctx context.Context, g *er.Graph, _ Config) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.place(g)
}

func circleProvider(g *er.Graph) (Coordinates, error) {
	out := make(Coordinates)
	ids := g.Skeleton()
	radius := 0.8 * float64(len(ids))
	for i, id := range ids {
		out[id] = geom.Polar(r2.Vec{}, geom.TwoPi*float64(i)/float64(len(ids)), radius)
	}
	return out, nil
}

func TestBuildProviderFallback(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	cfg := Preset(Heavy)

	tests := []struct {
		name     string
		provider stubProvider
		fallback bool
	}{
		{"error", stubProvider{"broken", func(*er.Graph) (Coordinates, error) {
			return nil, errors.New("primitive unavailable")
		}}, true},
		{"partial", stubProvider{"partial", func(g *er.Graph) (Coordinates, error) {
			return Coordinates{g.Entities()[0]: {}}, nil
		}}, true},
		{"non-finite", stubProvider{"nan", func(g *er.Graph) (Coordinates, error) {
			out, _ := circleProvider(g)
			out[g.Entities()[0]] = r2.Vec{X: math.NaN()}
			return out, nil
		}}, true},
		{"success", stubProvider{"circle", circleProvider}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustBuild(t, g, cfg, WithSkeletonProvider(tt.provider))
			if res.Report.Fallback != tt.fallback {
				t.Errorf("Fallback = %v, want %v (reason %q)", res.Report.Fallback, tt.fallback, res.Report.FallbackReason)
			}
			wantName := tt.provider.name
			if tt.fallback {
				wantName = "chain"
			}
			if res.Report.Provider != wantName {
				t.Errorf("Provider = %q, want %q", res.Report.Provider, wantName)
			}
			if len(res.Coords) != g.Len() || !res.Coords.Valid() {
				t.Errorf("incomplete or invalid layout: %d of %d", len(res.Coords), g.Len())
			}
			assertNoOverlap(t, g, res.Coords, cfg.GlobalSepPadding)
		})
	}
}

func TestBuildIgnoresProviderWhenDisabled(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	called := false
	p := stubProvider{"spy", func(g *er.Graph) (Coordinates, error) {
		called = true
		return circleProvider(g)
	}}
	res := mustBuild(t, g, Preset(Light), WithSkeletonProvider(p))
	if called || res.Report.Provider != "chain" {
		t.Errorf("provider called = %v, report provider %q", called, res.Report.Provider)
	}
}

func TestBuildCanceled(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, g, Preset(Heavy), WithSkeletonProvider(stubProvider{"circle", circleProvider}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuildInvalidConfig(t *testing.T) {
	g := buildGraph(t, studentDoc(false))
	cfg := Preset(Light)
	cfg.SpringIterations = 0
	if _, err := Build(context.Background(), g, cfg); err == nil {
		t.Error("Build() accepted zero iterations")
	}
}

func TestBuildReport(t *testing.T) {
	g := buildGraph(t, schoolDoc())
	res := mustBuild(t, g, Preset(Medium))
	rep := res.Report

	want := []string{"skeleton", "relax", "refine", "light_refine", "attributes", "spread", "separate"}
	if len(rep.Stages) != len(want) {
		t.Fatalf("stages = %v, want %v", rep.Stages, want)
	}
	for i, s := range rep.Stages {
		if s.Stage != want[i] {
			t.Errorf("stage %d = %q, want %q", i, s.Stage, want[i])
		}
	}
	if rep.ForceIterations == 0 || rep.SeparationRounds == 0 || rep.OverlapPasses == 0 {
		t.Errorf("empty counters: %+v", rep)
	}
	if rep.Components != 1 {
		t.Errorf("Components = %d, want 1", rep.Components)
	}
	if c := res.Coords.Centroid(); r2.Norm(c) > 1e-9 {
		t.Errorf("centroid %v, want origin", c)
	}
}
