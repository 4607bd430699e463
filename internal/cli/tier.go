package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/graph"
	"github.com/matzehuels/erlayout/pkg/pipeline"
)

// tierCommand creates the tier command, which reports the metrics used for
// tier selection and the configuration a layout would run with.
func (c *CLI) tierCommand() *cobra.Command {
	var lf layoutFlags

	cmd := &cobra.Command{
		Use:               "tier [document]",
		Short:             "Show the tier a document selects",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := graph.ReadDocumentFile(args[0])
			if err != nil {
				return fmt.Errorf("load document %s: %w", args[0], err)
			}
			opts := c.newOptions()
			lf.apply(&opts)
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}

			g, issues := er.Build(doc, c.settings.NodeSizes())
			stats := g.Stats()
			cfg, err := opts.LayoutConfig(stats)
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout, StyleTitle.Render(args[0]))
			printKeyValue("entities", strconv.Itoa(stats.Entities))
			printKeyValue("attributes", strconv.Itoa(stats.Attributes))
			printKeyValue("relations", strconv.Itoa(stats.Relationships))
			printKeyValue("max attrs", strconv.Itoa(stats.MaxAttributes))
			printKeyValue("nodes", strconv.Itoa(stats.Nodes()))
			printNewline()
			printKeyValue("tier", StyleHighlight.Render(cfg.Level.String()))
			printKeyValue("provider", opts.Provider)
			printKeyValue("skeleton", skeletonName(cfg.UseExternalSkeleton, opts.Provider))
			printKeyValue("iterations", strconv.Itoa(cfg.SpringIterations))
			printKeyValue("safe gap", strconv.FormatFloat(cfg.SafeGap, 'g', 4, 64))
			printKeyValue("separation", strconv.FormatFloat(cfg.NodeSeparation, 'g', 4, 64))
			if len(issues) > 0 {
				printNewline()
				printWarning("%d document element(s) would be skipped", len(issues))
			}
			return nil
		},
	}

	lf.register(cmd)
	return cmd
}

// skeletonName describes the skeleton a layout will use.
func skeletonName(external bool, provider string) string {
	if !external {
		return pipeline.ProviderChain
	}
	if provider == pipeline.ProviderMDS {
		return pipeline.ProviderMDS
	}
	return pipeline.ProviderNeato
}
