package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erlayout/pkg/pipeline"
)

// layoutFlags holds the flags shared by commands that compute layouts.
type layoutFlags struct {
	tier        string
	round       int
	provider    string
	maxRowWidth float64
	strict      bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.tier, "tier", "t", pipeline.TierAuto, "tier: auto, light, medium, heavy")
	cmd.Flags().IntVar(&f.round, "round", 0, "escalation round (widens spacing, raises iteration budgets)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "skeleton provider: auto, chain, neato, mds (default from settings, else auto)")
	cmd.Flags().Float64Var(&f.maxRowWidth, "max-row-width", 0, "wrap disconnected components into rows of this width")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "reject documents that fail validation")
	registerFlagCompletions(cmd)
}

func (f *layoutFlags) apply(opts *pipeline.Options) {
	opts.Tier = f.tier
	opts.Round = f.round
	opts.Provider = f.provider
	opts.MaxRowWidth = f.maxRowWidth
	opts.Strict = f.strict
}

// layoutCommand creates the layout command for computing ER layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		lf         layoutFlags
		formatsStr string
		output     string
		title      string
		scale      float64
		jobs       int
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document...]",
		Short: "Compute layouts for ER documents",
		Long: `Compute layouts for ER documents.

Each document (JSON, or YAML by extension) is laid out and written next to
its input as <name>.layout.json. Other formats (dot, svg, png, pdf, html)
are rendered from the same layout with --format.

With one input and one format, --output names the output file. With several
inputs, --output names a directory.

Results are cached, so rerunning an unchanged document is instant.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.newOptions()
			lf.apply(&opts)
			opts.Formats = parseFormats(formatsStr, pipeline.FormatJSON)
			opts.Title = title
			opts.Scale = scale
			opts.Refresh = refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args, opts, output, jobs, noCache)
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf, html (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, base path, or directory for several inputs")
	cmd.Flags().StringVar(&title, "title", "", "title for html output")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "png resolution multiplier")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", pipeline.DefaultConcurrency, "documents laid out in parallel")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runLayout lays out every input and writes the requested artifacts.
func (c *CLI) runLayout(ctx context.Context, inputs []string, opts pipeline.Options, output string, jobs int, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d document(s)...", len(inputs)))
	spinner.Start()

	items, err := runner.Batch(ctx, inputs, opts, jobs)
	spinner.Stop()
	if err != nil {
		return err
	}

	var (
		failed  int
		written string
	)
	for _, it := range items {
		if it.Err != nil {
			failed++
			printError("%s", it.Path)
			printDetail("%v", it.Err)
			continue
		}
		paths, err := writeArtifacts(artifactWriteParams{
			artifacts: it.Result.Artifacts,
			formats:   opts.Formats,
			input:     it.Path,
			output:    output,
			dir:       output != "" && len(inputs) > 1,
		})
		if err != nil {
			return err
		}

		res := it.Result
		printSuccess("%s %s", it.Path, StyleDim.Render("("+res.Layout.Tier+")"))
		for _, p := range paths {
			printFile(p)
			written = p
		}
		printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.LayoutHit)
		if n := len(res.Issues); n > 0 {
			printWarning("%d document element(s) skipped; run 'erlayout validate %s'", n, it.Path)
		}
	}
	prog.done("laid out documents", "count", len(items)-failed, "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(items))
	}
	if len(items) == 1 && len(opts.Formats) == 1 && opts.Formats[0] == pipeline.FormatJSON {
		printNewline()
		printNextStep("Render", "erlayout render -f svg "+written)
	}
	return nil
}
