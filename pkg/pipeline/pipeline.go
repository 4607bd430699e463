// Package pipeline provides the complete ER layout pipeline for erlayout.
//
// This package implements the load → layout → render pipeline that the CLI
// and the HTTP API share, so both entry points select tiers, cache results
// and render outputs the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a document (JSON or YAML), optionally validate it, and build
//     the typed ER graph
//  2. Layout: pick or force a tier, apply escalation and config-file
//     overrides, and run the layout engine
//  3. Render: produce outputs (json, dot, svg, png, pdf, html)
//
// Layouts and artifacts are cached by content hash, so rerunning the same
// document with the same options is a cache hit.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.ExecuteFile(ctx, "school.yaml", pipeline.Options{
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erlayout/pkg/cache"
	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultConcurrency bounds parallel layouts in Batch.
	DefaultConcurrency = 4

	// MaxRound is the highest escalation round accepted.
	MaxRound = 10
)

// Skeleton providers.
const (
	// ProviderAuto uses neato for tiers that ask for an external skeleton and
	// the built-in chain heuristic otherwise.
	ProviderAuto  = "auto"
	ProviderChain = "chain"
	ProviderNeato = "neato"
	ProviderMDS   = "mds"
)

// DefaultProvider is the default skeleton provider.
const DefaultProvider = ProviderAuto

// TierAuto selects the tier from the graph size.
const TierAuto = "auto"

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatHTML: true,
}

// ValidProviders is the set of supported skeleton providers.
var ValidProviders = map[string]bool{
	ProviderAuto:  true,
	ProviderChain: true,
	ProviderNeato: true,
	ProviderMDS:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Tier        string  `json:"tier,omitempty"`  // "auto" (default), light, medium, heavy
	Round       int     `json:"round,omitempty"` // escalation round, 0 = none
	Provider    string  `json:"provider,omitempty"`
	MaxRowWidth float64 `json:"max_row_width,omitempty"`
	Strict      bool    `json:"strict,omitempty"` // reject documents that fail validation
	Refresh     bool    `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Title   string   `json:"title,omitempty"`

	// Runtime options (not serialized)
	Settings *Settings   `json:"-"`
	Logger   *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the typed ER graph built from the document.
	Graph *er.Graph

	// Issues lists document elements skipped while building Graph.
	Issues []er.Issue

	// DocHash is the content hash of the document.
	DocHash string

	// Config is the layout configuration that was used.
	Config layout.Config

	// Layout is the positioned diagram.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(sortedKeys(ValidFormats), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateProvider checks that a skeleton provider name is valid.
func ValidateProvider(provider string) error {
	if !ValidProviders[provider] {
		return errs.New(errs.ErrCodeInvalidProvider, "invalid provider: %q (must be one of: %s)", provider, strings.Join(sortedKeys(ValidProviders), ", "))
	}
	return nil
}

// ValidateTier checks that a tier is "auto" or a known level.
func ValidateTier(tier string) error {
	if tier == TierAuto {
		return nil
	}
	if _, err := layout.ParseLevel(tier); err != nil {
		return errs.New(errs.ErrCodeInvalidTier, "invalid tier: %q (must be one of: auto, light, medium, heavy)", tier)
	}
	return nil
}

// ValidateRound checks the escalation round range.
func ValidateRound(round int) error {
	if round < 0 || round > MaxRound {
		return errs.New(errs.ErrCodeInvalidInput, "round must be between 0 and %d, got %d", MaxRound, round)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Tier == "" {
		o.Tier = TierAuto
	}
	o.Tier = strings.ToLower(o.Tier)
	if o.Provider == "" {
		o.Provider = DefaultProvider
		if o.Settings != nil && o.Settings.Provider != "" {
			o.Provider = o.Settings.Provider
		}
	}
	o.Provider = strings.ToLower(o.Provider)
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateTier(o.Tier); err != nil {
		return err
	}
	if err := ValidateProvider(o.Provider); err != nil {
		return err
	}
	if o.MaxRowWidth < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "max_row_width must not be negative")
	}
	return ValidateRound(o.Round)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

// LayoutConfig returns the engine configuration for a graph with the given
// stats: the forced or selected tier preset (with config-file overrides),
// escalated by Round, with the skeleton switch set from Provider.
func (o *Options) LayoutConfig(stats er.Stats) (layout.Config, error) {
	level := layout.SelectLevel(stats)
	if o.Tier != "" && o.Tier != TierAuto {
		l, err := layout.ParseLevel(o.Tier)
		if err != nil {
			return layout.Config{}, errs.Wrap(errs.ErrCodeInvalidTier, err, "tier %q", o.Tier)
		}
		level = l
	}

	cfg := o.Settings.Preset(level)
	cfg = layout.Escalate(cfg, o.Round)

	switch o.Provider {
	case ProviderChain:
		cfg.UseExternalSkeleton = false
	case ProviderNeato, ProviderMDS:
		cfg.UseExternalSkeleton = true
	}
	if err := cfg.Validate(); err != nil {
		return layout.Config{}, err
	}
	return cfg, nil
}

// LayoutKeyOpts returns cache key options for a layout computed with cfg.
func (o *Options) LayoutKeyOpts(cfg layout.Config) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Tier:      cfg.Level.String(),
		Round:     o.Round,
		Provider:  o.Provider,
		Overrides: fmt.Sprintf("%s/%g", o.Settings.Fingerprint(), o.MaxRowWidth),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatPNG:
		opts.Scale = o.Scale
	case FormatHTML:
		opts.Title = o.Title
	}
	return opts
}
