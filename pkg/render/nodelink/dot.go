package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
	"github.com/matzehuels/erlayout/pkg/render"
)

// ToDOT converts a layout to Graphviz DOT with every node pinned at its
// computed position (pos="x,y!", inches). Rendering the result with neato
// keeps the layout exactly as computed; Graphviz only draws it.
//
// Entities are boxes, relationships are diamonds whose edges carry the
// cardinality tokens, and attributes are ellipses with primary keys
// underlined.
func ToDOT(l graph.Layout) string {
	var buf bytes.Buffer
	buf.WriteString("graph ER {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [fixedsize=true, style=filled, fillcolor=white, fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	names := make(map[string]string, len(l.Nodes))
	for i, n := range l.Nodes {
		name := "n" + strconv.Itoa(i)
		names[n.ID] = name
		fmt.Fprintf(&buf, "  %s [%s];\n", name, fmtAttrs(n))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		from, okf := names[e.From]
		to, okt := names[e.To]
		if !okf || !okt {
			continue
		}
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %s -- %s [label=%q];\n", from, to, e.Label)
		} else {
			fmt.Fprintf(&buf, "  %s -- %s;\n", from, to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n graph.Node) string {
	shape := "box"
	switch {
	case n.IsRelationship():
		shape = "diamond"
	case n.IsAttribute():
		shape = "ellipse"
	}
	label := strconv.Quote(n.Name)
	if n.IsAttribute() && n.PrimaryKey {
		label = "<<u>" + html.EscapeString(n.Name) + "</u>>"
	}
	return fmt.Sprintf("shape=%s, label=%s, pos=\"%.4f,%.4f!\", width=%.4f, height=%.4f",
		shape, label, n.X, n.Y, n.Width, n.Height)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.SetLayout(graphviz.NEATO).Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "render svg")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// pixel-sized one so browsers scale the drawing consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a layout as PDF via SVG conversion.
func RenderPDF(ctx context.Context, l graph.Layout) ([]byte, error) {
	svg, err := RenderSVG(ctx, ToDOT(l))
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a layout as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, l graph.Layout, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, ToDOT(l))
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
