package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/erlayout/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "erlayout places ER diagrams",
		Long: `erlayout computes readable positions for entity-relationship diagrams.

Entities are laid out along a relationship skeleton, relaxed with a spring
model, and cleared of overlaps. Attributes are fanned around their owners.
Results can be written as layout JSON or drawn as Chen-notation diagrams.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadSettings()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "settings file (default: ./erlayout.toml if present)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.tierCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
