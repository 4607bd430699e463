// Package preview renders ER layouts as a self-contained interactive HTML
// page using ECharts.
//
// Nodes are drawn at their computed positions (the ECharts graph series runs
// with layout "none"), so the page shows exactly what the SVG renderer draws
// while allowing pan, zoom and hover.
package preview

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
)

// pixelsPerInch converts layout units to screen pixels.
const pixelsPerInch = 72

// Options configures the generated page.
type Options struct {
	// Title is shown in the browser tab and above the chart.
	Title string
}

// Colors per node kind.
var kindColors = map[string]string{
	graph.KindEntity:       "#4e79a7",
	graph.KindRelationship: "#f28e2b",
	graph.KindAttribute:    "#bab0ac",
}

// Symbols per node kind, in ECharts symbol names.
var kindSymbols = map[string]string{
	graph.KindEntity:       "rect",
	graph.KindRelationship: "diamond",
	graph.KindAttribute:    "circle",
}

// RenderHTML produces a standalone HTML page for the layout.
func RenderHTML(l graph.Layout, o Options) ([]byte, error) {
	if len(l.Nodes) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "layout has no nodes")
	}
	if o.Title == "" {
		o.Title = fmt.Sprintf("ER layout (%s)", l.Tier)
	}

	var buf bytes.Buffer
	if err := chart(l, o).Render(&buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "render html")
	}
	return buf.Bytes(), nil
}

// Nodes converts layout nodes to ECharts graph nodes. Y is flipped since
// ECharts' y axis points down.
func Nodes(l graph.Layout) []opts.GraphNode {
	nodes := make([]opts.GraphNode, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		nodes = append(nodes, opts.GraphNode{
			Name:       n.ID,
			X:          float32(n.X * pixelsPerInch),
			Y:          float32(-n.Y * pixelsPerInch),
			Symbol:     kindSymbols[n.Kind],
			SymbolSize: []float64{n.Width * pixelsPerInch, n.Height * pixelsPerInch},
			ItemStyle:  &opts.ItemStyle{Color: kindColors[n.Kind]},
		})
	}
	return nodes
}

// Links converts layout edges to ECharts graph links.
func Links(l graph.Layout) []opts.GraphLink {
	links := make([]opts.GraphLink, 0, len(l.Edges))
	for _, e := range l.Edges {
		links = append(links, opts.GraphLink{Source: e.From, Target: e.To})
	}
	return links
}

func chart(l graph.Layout, o Options) *charts.Graph {
	g := charts.NewGraph()
	g.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Height:    "100vh",
			Width:     "100vw",
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	g.AddSeries(
		"er",
		Nodes(l),
		Links(l),
		charts.WithGraphChartOpts(
			opts.GraphChart{
				Layout:    "none",
				Roam:      opts.Bool(true),
				Draggable: opts.Bool(false),
			},
		),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Color:    "black",
			Position: "inside",
		}),
	)
	return g
}
