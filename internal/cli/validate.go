package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erlayout/pkg/core/er"
	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [document...]",
		Short: "Check documents for structural problems",
		Long: `Check documents for structural problems.

A valid document names at least one entity, gives every entity a primary
key attribute, references only declared entities, and uses the
cardinalities 1:1, 1:N or M:N.

The layout command accepts invalid documents and skips what it cannot
place; use --strict there to reject them instead.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, path := range args {
				if !c.validateFile(path) {
					invalid++
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d document(s) invalid", invalid, len(args))
			}
			return nil
		},
	}
}

// validateFile prints the result for one document and reports whether it
// is valid.
func (c *CLI) validateFile(path string) bool {
	doc, err := graph.ReadDocumentFile(path)
	if err != nil {
		printError("%s", path)
		printDetail("%s", errs.UserMessage(err))
		return false
	}

	if err := er.Validate(doc); err != nil {
		printError("%s", path)
		problems := errs.Problems(err)
		if len(problems) == 0 {
			printDetail("%s", errs.UserMessage(err))
		}
		for _, p := range problems {
			printDetail("%v", p)
		}
		return false
	}

	g, _ := er.Build(doc, c.settings.NodeSizes())
	s := g.Stats()
	printSuccess("%s %s", path, StyleDim.Render(fmt.Sprintf("(%d entities, %d attributes, %d relationships)",
		s.Entities, s.Attributes, s.Relationships)))
	return true
}
