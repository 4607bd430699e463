package layout

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/geom"
	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// Option configures a Build call.
type Option func(*options)

type options struct {
	provider    SkeletonProvider
	logger      *log.Logger
	maxRowWidth float64
}

// WithSkeletonProvider sets the provider used when Config.UseExternalSkeleton
// is true. Without one the built-in chain heuristic is used.
func WithSkeletonProvider(p SkeletonProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithLogger sets the logger for stage timings and fallback warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxRowWidth wraps disconnected skeleton components into rows no wider
// than w. Zero keeps a single row.
func WithMaxRowWidth(w float64) Option {
	return func(o *options) { o.maxRowWidth = w }
}

// StageTiming is the wall time spent in one pipeline stage.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Report describes how a layout was produced. Non-convergence is reported
// here and never returned as an error.
type Report struct {
	Provider       string `json:"provider"`
	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallback_reason,omitempty"`

	ForceIterations int  `json:"force_iterations"`
	ForceConverged  bool `json:"force_converged"`

	OverlapPasses   int `json:"overlap_passes"`
	PinnedConflicts int `json:"pinned_conflicts"`

	SeparationRounds    int  `json:"separation_rounds"`
	SeparationConverged bool `json:"separation_converged"`

	Components int           `json:"components"`
	Stages     []StageTiming `json:"stages,omitempty"`
}

// Result is the output of Build.
type Result struct {
	Coords Coordinates
	Config Config
	Report Report
}

// Build computes coordinates for every node of g.
//
// The pipeline runs skeleton placement, force relaxation, post-processing,
// the optional light refinement, attribute placement, the component
// spreader and the global separation pass, then centers the result on the
// origin. Only the skeleton provider receives ctx.
//
// An empty graph yields an empty map. An invalid cfg yields an
// [errs.ErrCodeInvalidConfig] error.
func Build(ctx context.Context, g *er.Graph, cfg Config, opts ...Option) (Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	res := Result{Coords: Coordinates{}, Config: cfg}
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	if g == nil || g.Len() == 0 {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	rep := &res.Report
	stage := func(name string, fn func()) {
		start := time.Now()
		fn()
		d := time.Since(start)
		rep.Stages = append(rep.Stages, StageTiming{Stage: name, Duration: d})
		logger.Debug("layout stage", "stage", name, "duration", d)
	}

	chain := ChainProvider{MaxRowWidth: o.maxRowWidth}
	var sk *skeleton
	var err error
	stage("skeleton", func() {
		sk, err = placeSkeleton(ctx, g, cfg, chain, o.provider, rep, logger)
	})
	if err != nil {
		return res, err
	}

	stage("relax", func() {
		fs := relax(g, cfg, sk, schedule{iterations: cfg.SpringIterations, full: true})
		rep.ForceIterations, rep.ForceConverged = fs.Iterations, fs.Converged
	})
	stage("refine", func() {
		rs := refine(g, cfg, sk)
		rep.OverlapPasses, rep.PinnedConflicts = rs.overlapPasses, rs.pinnedConflicts
	})
	if cfg.UseLightRefinement {
		stage("light_refine", func() {
			fs, rs := lightRefine(g, cfg, sk)
			rep.ForceIterations += fs.Iterations
			rep.ForceConverged = rep.ForceConverged && fs.Converged
			rep.OverlapPasses += rs.overlapPasses
			rep.PinnedConflicts = max(rep.PinnedConflicts, rs.pinnedConflicts)
		})
	}
	if rep.PinnedConflicts > 0 {
		logger.Warn("chain nodes overlap", "pairs", rep.PinnedConflicts)
	}

	coords := sk.coords
	stage("attributes", func() { coords = placeAttributes(g, cfg, coords) })
	stage("spread", func() { coords, rep.Components = spread(g, coords) })
	stage("separate", func() {
		var ss SeparationStats
		coords, ss = separate(g, cfg, coords)
		rep.SeparationRounds, rep.SeparationConverged = ss.Rounds, ss.Converged
	})

	coords = coords.Translate(r2.Scale(-1, coords.Centroid()))
	if len(coords) != g.Len() || !coords.Valid() {
		return res, errs.New(errs.ErrCodeInternal, "layout produced %d of %d positions or non-finite coordinates", len(coords), g.Len())
	}
	res.Coords = coords

	logger.Debug("layout complete",
		"nodes", len(coords),
		"tier", cfg.Level,
		"provider", rep.Provider,
		"force_iterations", rep.ForceIterations,
		"separation_rounds", rep.SeparationRounds)
	return res, nil
}

// placeSkeleton runs the external provider when configured and falls back to
// the chain heuristic when it fails or returns incomplete output.
func placeSkeleton(ctx context.Context, g *er.Graph, cfg Config, chain ChainProvider, external SkeletonProvider, rep *Report, logger *log.Logger) (*skeleton, error) {
	if !cfg.UseExternalSkeleton || external == nil {
		rep.Provider = chain.Name()
		return chain.layout(g, cfg), nil
	}

	coords, err := external.Place(ctx, g, cfg)
	if err == nil {
		err = checkSkeleton(g, coords)
	}
	if err == nil {
		rep.Provider = external.Name()
		return adoptSkeleton(g, cfg, coords), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	logger.Warn("skeleton provider failed, using chain heuristic", "provider", external.Name(), "err", err)
	rep.Provider = chain.Name()
	rep.Fallback = true
	rep.FallbackReason = fmt.Sprintf("%s: %v", external.Name(), err)
	return chain.layout(g, cfg), nil
}

// checkSkeleton verifies that coords covers every skeleton node with
// finite values.
func checkSkeleton(g *er.Graph, coords Coordinates) error {
	for _, id := range g.Skeleton() {
		p, ok := coords[id]
		if !ok {
			return fmt.Errorf("missing position for %s", id)
		}
		if !geom.Finite(p) {
			return fmt.Errorf("non-finite position for %s", id)
		}
	}
	return nil
}
