package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"trellis/internal/assets"
	"trellis/internal/catalog"
	"trellis/internal/config"
	"trellis/internal/describe"
	"trellis/internal/logging"
	"trellis/internal/pipeline"
	"trellis/internal/runlog"
	"trellis/internal/taxonomy"
	"trellis/internal/taxonomy/gbif"
)

const ledgerFileName = "runlog.db"

// runStages wires the pipeline for the enabled stages, runs it, records the
// run in the ledger, and renders the report. Every stage command funnels
// through here so policy (locking, ledger, rendering) stays in one place.
func runStages(cmd *cobra.Command, ctx *commandContext, opts pipeline.Options, jsonOut bool) error {
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
	if !opts.DryRun {
		lock, err := store.AcquireLock()
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
	}

	var resolver *taxonomy.Resolver
	if opts.Taxonomy {
		resolver, err = buildResolver(cfg, logger)
		if err != nil {
			return err
		}
	}

	var library *assets.Library
	if opts.Images {
		library, err = assets.Scan(cfg.Paths.AssetsDir)
		if err != nil {
			return err
		}
	}

	thresholds := describe.Thresholds{
		VeryShortLength: cfg.Descriptions.VeryShortLength,
		ShortLength:     cfg.Descriptions.ShortLength,
		CareSpan:        cfg.Descriptions.CareSpan,
	}

	p := pipeline.New(store, resolver, library, assets.NewDenylist(cfg.Images.Denylist), thresholds, logger, opts)
	report, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.RunLog.Enabled && !opts.DryRun {
		recordRun(cfg, logger, report)
	}

	return renderReport(cmd.OutOrStdout(), report, jsonOut)
}

func buildResolver(cfg *config.Config, logger *slog.Logger) (*taxonomy.Resolver, error) {
	client, err := gbif.New(cfg.GBIF.BaseURL,
		gbif.WithTimeout(time.Duration(cfg.GBIF.RequestTimeout)*time.Second))
	if err != nil {
		return nil, err
	}
	resolverOpts := []taxonomy.ResolverOption{
		taxonomy.WithDelay(time.Duration(cfg.GBIF.RateLimitMS) * time.Millisecond),
	}
	if cfg.TaxonomyCache.Enabled {
		resolverOpts = append(resolverOpts, taxonomy.WithCache(taxonomy.NewCache(cfg.TaxonomyCache.Path, logger)))
	}
	return taxonomy.NewResolver(client, logger, resolverOpts...), nil
}

// recordRun is best-effort: a broken ledger must never fail a completed run.
func recordRun(cfg *config.Config, logger *slog.Logger, report *pipeline.Report) {
	ledger, err := runlog.Open(filepath.Join(cfg.Paths.LogDir, ledgerFileName))
	if err != nil {
		logger.Warn("run ledger unavailable", logging.Error(err))
		return
	}
	defer func() { _ = ledger.Close() }()
	if err := ledger.RecordRun(context.Background(), report); err != nil {
		logger.Warn("run ledger write failed", logging.Error(err))
	}
}

func writeJSON(out io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
