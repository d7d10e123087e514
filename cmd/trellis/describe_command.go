package main

import (
	"github.com/spf13/cobra"

	"trellis/internal/pipeline"
)

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Normalize descriptions and flag quality problems",
		Long: "Describe strips source citations and stray URLs from descriptions, " +
			"then flags texts that look too short, truncated, or contaminated with " +
			"care instructions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Descriptions: true, DryRun: dryRun}
			return runStages(cmd, ctx, opts, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report proposed changes without writing anything")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run report as JSON")
	return cmd
}
