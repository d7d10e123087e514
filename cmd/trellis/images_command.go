package main

import (
	"github.com/spf13/cobra"

	"trellis/internal/pipeline"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "Reconcile records with the image asset library",
		Long: "Images matches each record's scientific name against asset folder " +
			"slugs, rewrites image references from the matched folder, and scrubs " +
			"placeholder references on records with no matching folder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Images: true, DryRun: dryRun}
			return runStages(cmd, ctx, opts, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report proposed changes without writing anything")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run report as JSON")
	return cmd
}
