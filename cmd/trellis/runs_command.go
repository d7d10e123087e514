package main

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"trellis/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show the ledger of past pipeline runs",
		Long: "Runs lists recent pipeline runs from the local ledger, newest first. " +
			"With a run id it shows every anomaly that run recorded.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.RunLog.Enabled {
				return fmt.Errorf("run ledger is disabled in configuration")
			}

			ledger, err := runlog.Open(filepath.Join(cfg.Paths.LogDir, ledgerFileName))
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			if len(args) == 1 {
				return renderRunAnomalies(cmd, ledger, args[0])
			}
			return renderRunList(cmd, ledger, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func renderRunList(cmd *cobra.Command, ledger *runlog.Store, limit int) error {
	runs, err := ledger.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	tw := newTable(out, table.Row{"Run", "Started", "Mode", "Scanned", "Removed", "Updated", "Anomalies"}, 4, 5, 6, 7)
	for _, run := range runs {
		mode := "full"
		if run.DryRun {
			mode = "dry-run"
		}
		tw.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			mode,
			run.Scanned,
			run.Removed,
			run.Updated,
			run.Anomalies,
		})
	}
	tw.Render()
	return nil
}

func renderRunAnomalies(cmd *cobra.Command, ledger *runlog.Store, runID string) error {
	anomalies, err := ledger.RunAnomalies(cmd.Context(), runID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(anomalies) == 0 {
		fmt.Fprintf(out, "No anomalies recorded for run %s\n", runID)
		return nil
	}

	tw := newTable(out, table.Row{"Record", "Stage", "Detail"})
	for _, anomaly := range anomalies {
		tw.AppendRow(table.Row{anomaly.Record, anomaly.Stage, anomaly.Message})
	}
	tw.Render()
	return nil
}
