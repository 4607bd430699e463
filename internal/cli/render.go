package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erlayout/pkg/graph"
	"github.com/matzehuels/erlayout/pkg/pipeline"
)

// renderCommand creates the render command for drawing a saved layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		title      string
		scale      float64
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Draw a computed layout",
		Long: `Draw a computed layout.

The render command takes a layout file (produced by 'layout') and draws it
as a Chen-notation diagram. Node positions are taken from the file as-is, so
this step never reruns the layout engine.

Formats: dot and svg are rendered in-process; png and pdf need rsvg-convert;
html is an interactive preview.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeLayouts,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.newOptions()
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			opts.Title = title
			opts.Scale = scale
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf, html, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&title, "title", "", "title for html output")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "png resolution multiplier")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender loads the layout and renders it.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d nodes...", len(l.Nodes)))
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	})
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(l.Nodes), len(l.Edges), cacheHit)
	return nil
}
