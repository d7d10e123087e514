package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trellis/internal/catalog"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the catalog index from the record files on disk",
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
			lock, err := store.AcquireLock()
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			records, malformed, err := store.LoadAll()
			if err != nil {
				return err
			}
			index, err := store.RebuildIndex(records, malformed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d record file(s)\n", index.Count)
			if len(malformed) > 0 {
				fmt.Fprintf(out, "%d could not be parsed and were indexed by filename only\n", len(malformed))
			}
			return nil
		},
	}
}
