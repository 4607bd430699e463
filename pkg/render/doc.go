// Package render turns computed ER layouts into viewable outputs.
//
// # Overview
//
// Rendering never moves a node: every renderer draws the coordinates stored
// in a [graph.Layout] as they are. The subpackages provide:
//
//   - [nodelink]: Graphviz DOT with pinned positions, rendered to SVG
//   - [preview]: an interactive HTML page built on ECharts
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(l))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [graph.Layout]: github.com/matzehuels/erlayout/pkg/graph.Layout
// [nodelink]: github.com/matzehuels/erlayout/pkg/render/nodelink
// [preview]: github.com/matzehuels/erlayout/pkg/render/preview
package render
