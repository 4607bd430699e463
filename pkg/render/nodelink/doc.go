// Package nodelink draws ER layouts as classic Chen-notation diagrams.
//
// # Overview
//
// [ToDOT] emits Graphviz DOT in which every node is pinned at the position the
// layout engine computed, so Graphviz acts as a drawing backend only. Node
// shapes follow Chen notation:
//
//   - entities are boxes
//   - relationships are diamonds, with cardinality tokens on their edges
//   - attributes are ellipses; primary keys are underlined
//
// # Usage
//
//	dot := nodelink.ToDOT(l)
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, l)
//	png, err := nodelink.RenderPNG(ctx, l, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
