package main

import (
	"github.com/spf13/cobra"

	"trellis/internal/pipeline"
)

func newTaxonomyCommand(ctx *commandContext) *cobra.Command {
	var remove bool
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Verify scientific names against the GBIF backbone",
		Long: "Taxonomy resolves each record's scientific name through the GBIF " +
			"species match API, adopts accepted names for confirmed synonyms, and " +
			"flags names that resolve to genus, family, or other non-species ranks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Taxonomy:       true,
				RemoveRejected: remove,
				DryRun:         dryRun,
			}
			return runStages(cmd, ctx, opts, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Delete records whose names resolve to non-species taxa")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report proposed changes without writing anything")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run report as JSON")
	return cmd
}
