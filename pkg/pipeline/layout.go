package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
	"github.com/matzehuels/erlayout/pkg/core/layout/mds"
	"github.com/matzehuels/erlayout/pkg/core/layout/neato"
	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
	"github.com/matzehuels/erlayout/pkg/observability"
)

// =============================================================================
// Load
// =============================================================================

// BuildGraph turns a document into a typed graph. In strict mode the
// document must pass [er.Validate]; otherwise invalid elements are skipped
// and returned as issues.
func BuildGraph(doc er.Document, opts Options) (*er.Graph, []er.Issue, error) {
	if opts.Strict {
		if err := er.Validate(doc); err != nil {
			return nil, nil, err
		}
	}
	g, issues := er.Build(doc, opts.Settings.NodeSizes())
	if g.Empty() {
		return nil, issues, errs.New(errs.ErrCodeInvalidDocument, "document has no usable entities")
	}
	return g, issues, nil
}

// =============================================================================
// Layout
// =============================================================================

// skeletonProvider returns the external skeleton provider for a provider
// name. The chain heuristic is built into the engine and needs none.
func skeletonProvider(name string, logger *log.Logger) layout.SkeletonProvider {
	switch name {
	case ProviderChain:
		return nil
	case ProviderMDS:
		return mds.New(logger)
	}
	return neato.New(logger)
}

// GenerateLayout runs the layout engine on g with cfg and exports the
// result to its wire form.
func GenerateLayout(ctx context.Context, g *er.Graph, cfg layout.Config, opts Options) (graph.Layout, error) {
	tier := cfg.Level.String()
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, tier, g.Len())

	engineOpts := []layout.Option{layout.WithLogger(opts.Logger)}
	if p := skeletonProvider(opts.Provider, opts.Logger); p != nil {
		engineOpts = append(engineOpts, layout.WithSkeletonProvider(p))
	}
	if opts.MaxRowWidth > 0 {
		engineOpts = append(engineOpts, layout.WithMaxRowWidth(opts.MaxRowWidth))
	}

	start := time.Now()
	res, err := layout.Build(ctx, g, cfg, engineOpts...)
	hooks.OnLayoutComplete(ctx, tier, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, err
	}

	rep := res.Report
	if rep.Fallback {
		hooks.OnSkeletonFallback(ctx, opts.Provider, rep.FallbackReason)
		opts.Logger.Warn("skeleton provider failed, used chain layout",
			"provider", opts.Provider,
			"reason", rep.FallbackReason)
	}
	hooks.OnConvergence(ctx, "force", rep.ForceIterations, rep.ForceConverged)
	hooks.OnConvergence(ctx, "separate", rep.SeparationRounds, rep.SeparationConverged)
	if !rep.SeparationConverged {
		opts.Logger.Warn("separation did not converge", "rounds", rep.SeparationRounds)
	}

	return graph.Export(res, g), nil
}
