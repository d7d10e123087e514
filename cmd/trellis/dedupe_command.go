package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trellis/internal/catalog"
	"trellis/internal/dedupe"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Report duplicate ids, scientific names, and display names",
		Long: "Dedupe scans the catalog and reports every group of records sharing " +
			"an id, a scientific name, or a display name. It never modifies the " +
			"catalog; merging duplicates is a curator decision.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := catalog.NewStore(cfg.Paths.CatalogDir, logger)
			if err != nil {
				return err
			}
			records, malformed, err := store.LoadAll()
			if err != nil {
				return err
			}
			if len(malformed) > 0 && !jsonOut {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d malformed record file(s)\n", len(malformed))
			}
			return renderDuplicateReport(cmd.OutOrStdout(), dedupe.Detect(records), jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the duplicate report as JSON")
	return cmd
}
