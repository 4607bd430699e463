// Package neato places ER skeletons with Graphviz's neato engine.
//
// The skeleton (entities and relationship nodes) is written as an
// undirected DOT graph, laid out by the Graphviz build embedded in
// go-graphviz, and the node positions are read back from the annotated
// output. Entities are drawn larger in proportion to their attribute
// count so that neato leaves room for the attribute orbit.
package neato

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
)

const (
	// pointsPerInch converts Graphviz points to layout units.
	pointsPerInch = 72.0
	// attrInflation is added to an entity's width and height per attribute.
	attrInflation = 0.3
	// seed fixes neato's initial placement.
	seed = 42
)

// Provider is a [layout.SkeletonProvider] backed by neato.
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
func (*Provider) Name() string { return "neato" }

// Place implements layout.SkeletonProvider.
func (p *Provider) Place(ctx context.Context, g *er.Graph, cfg layout.Config) (layout.Coordinates, error) {
	dot, ids := ToDOT(g, cfg)
	out, err := render(ctx, dot)
	if err != nil {
		return nil, err
	}
	coords, err := parsePositions(out, ids)
	if err != nil {
		return nil, err
	}
	if p.Logger != nil {
		p.Logger.Debug("neato placed skeleton", "nodes", len(coords))
	}
	return coords, nil
}

// ToDOT writes the skeleton of g as an undirected DOT graph. Nodes are named
// n0, n1, ... in skeleton order; the returned map resolves those names.
func ToDOT(g *er.Graph, cfg layout.Config) (string, map[string]er.NodeID) {
	ids := make(map[string]er.NodeID, len(g.Skeleton()))
	names := make(map[er.NodeID]string, len(g.Skeleton()))

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  graph [layout=neato, mode=sgd, overlap=prism, sep=\"+%.0f\", maxiter=%d, start=%d];\n",
		cfg.NodeSeparation*pointsPerInch, cfg.PrimitiveIterations, seed)
	buf.WriteString("  node [fixedsize=true, label=\"\"];\n\n")

	for i, id := range g.Skeleton() {
		name := "n" + strconv.Itoa(i)
		ids[name] = id
		names[id] = name

		n, _ := g.Node(id)
		w, h, shape := n.Width, n.Height, "diamond"
		if id.IsEntity() {
			grow := attrInflation * float64(len(g.Attributes(id)))
			w, h, shape = w+grow, h+grow, "box"
		}
		fmt.Fprintf(&buf, "  %s [shape=%s, width=%.3f, height=%.3f];\n", name, shape, w, h)
	}

	buf.WriteString("\n")
	for _, rel := range g.Relationships() {
		for _, e := range g.Neighbors(rel) {
			fmt.Fprintf(&buf, "  %s -- %s;\n", names[e], names[rel])
		}
	}
	buf.WriteString("}\n")
	return buf.String(), ids
}

func render(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.SetLayout(graphviz.NEATO).Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("neato: %w", err)
	}
	return buf.Bytes(), nil
}

var posRe = regexp.MustCompile(`(?m)^\s*(n\d+)\s+\[[^\]]*?\bpos="(-?[0-9.e+-]+),(-?[0-9.e+-]+)!?"`)

// parsePositions reads node positions from laid-out DOT and converts them
// to inches. Every node in ids must have a position.
func parsePositions(out []byte, ids map[string]er.NodeID) (layout.Coordinates, error) {
	coords := make(layout.Coordinates, len(ids))
	for _, m := range posRe.FindAllSubmatch(out, -1) {
		id, ok := ids[string(m[1])]
		if !ok {
			continue
		}
		x, err := strconv.ParseFloat(string(m[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("position of %s: %w", id, err)
		}
		y, err := strconv.ParseFloat(string(m[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("position of %s: %w", id, err)
		}
		coords[id] = r2.Vec{X: x / pointsPerInch, Y: y / pointsPerInch}
	}
	for name, id := range ids {
		if _, ok := coords[id]; !ok {
			return nil, fmt.Errorf("neato returned no position for %s (%s)", id, name)
		}
	}
	return coords, nil
}
