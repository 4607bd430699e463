package cli

import (
	"github.com/spf13/cobra"
)

// documentExts are the file extensions offered when completing document
// arguments.
var documentExts = []string{"json", "yaml", "yml"}

// completeDocuments completes ER document paths for layout, tier and validate.
func completeDocuments(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return documentExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeLayouts completes saved layout files for render.
func completeLayouts(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for erlayout.

Completions cover subcommands, flags such as --tier and --provider, and
document arguments (.json, .yaml, .yml files).

Bash:
  $ source <(erlayout completion bash)
  $ erlayout completion bash > /etc/bash_completion.d/erlayout

Zsh:
  $ erlayout completion zsh > "${fpath[1]}/_erlayout"

Fish:
  $ erlayout completion fish > ~/.config/fish/completions/erlayout.fish

PowerShell:
  PS> erlayout completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(stdout, true)
			case "zsh":
				return root.GenZshCompletion(stdout)
			case "fish":
				return root.GenFishCompletion(stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(stdout)
			}
		},
	}
}

// registerFlagCompletions offers the fixed values of the layout flags.
func registerFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("tier", cobra.FixedCompletions(
		[]string{"auto", "light", "medium", "heavy"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("provider", cobra.FixedCompletions(
		[]string{"auto", "chain", "neato", "mds"}, cobra.ShellCompDirectiveNoFileComp))
}
