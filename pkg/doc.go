// Package pkg provides the libraries behind erlayout, an automatic layout
// engine for entity-relationship diagrams.
//
// # Overview
//
// erlayout takes an ER document (entities, attributes, relationships) and
// computes non-overlapping positions for every shape of a Chen-notation
// diagram. The pkg directory is organized into four areas:
//
//  1. [core] - Domain logic (ER graph, geometry, layout engine)
//  2. [graph] - Wire formats for documents and layouts
//  3. [render] - Drawing a layout (DOT, SVG, PNG, PDF, HTML)
//  4. [pipeline] - Orchestration (load → layout → render) with caching
//
// # Architecture
//
// The typical data flow:
//
//	ER document (JSON/YAML)
//	         ↓
//	    [core/er] package (typed graph, issues for skipped elements)
//	         ↓
//	    [core/layout] package (tier selection, skeleton, relaxation, separation)
//	         ↓
//	    [graph] package (positioned layout)
//	         ↓
//	    DOT/SVG/PNG/PDF/HTML output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/erlayout/pkg/core/er"
//	    "github.com/matzehuels/erlayout/pkg/core/layout"
//	    "github.com/matzehuels/erlayout/pkg/graph"
//	    "github.com/matzehuels/erlayout/pkg/render/nodelink"
//	)
//
//	// 1. Build the typed graph
//	g, issues := er.Build(doc, er.DefaultSizes())
//
//	// 2. Compute the layout with the tier the graph size selects
//	res, _ := layout.Build(context.Background(), g, layout.Select(g.Stats()))
//
//	// 3. Export and draw
//	l := graph.Export(res, g)
//	svg, _ := nodelink.RenderSVG(ctx, nodelink.ToDOT(l))
//
// # Main Packages
//
// [core/er] - Document model, validation and the immutable typed graph.
//
// [core/geom] - Vector helpers, overlap tests and deterministic hashing.
//
// [core/layout] - The layout engine. Tiers (light, medium, heavy) trade
// time for spacing; [core/layout/neato] and [core/layout/mds] provide the
// optional external skeleton.
//
// [cache] - Layout and artifact caching with file, redis and null backends.
//
// [pipeline] - The load → layout → render pipeline shared by the CLI and
// the HTTP API, plus TOML settings.
//
// [observability] - Hook interfaces for metrics and tracing.
//
// [errors] - Coded errors shared across package boundaries.
//
// [core]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/core
// [core/er]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/core/er
// [core/geom]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/core/geom
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/core/layout
// [core/layout/neato]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/core/layout/neato
// [core/layout/mds]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/core/layout/mds
// [graph]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/erlayout/pkg/errors
package pkg
