package main

import (
	"github.com/spf13/cobra"

	"trellis/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var removeRejected bool
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every pipeline stage over the catalog",
		Long: "Run loads the catalog, reports duplicates, verifies scientific names " +
			"against the GBIF backbone, reconciles image assets, normalizes " +
			"descriptions, and rebuilds the index.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.AllStages()
			opts.RemoveRejected = removeRejected
			opts.DryRun = dryRun
			return runStages(cmd, ctx, opts, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&removeRejected, "remove-rejected", false, "Delete records whose names resolve to non-species taxa")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report proposed changes without writing anything")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run report as JSON")
	return cmd
}
