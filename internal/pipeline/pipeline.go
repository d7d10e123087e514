// Package pipeline sequences the integrity stages over the full record set:
// load, duplicate detection, taxonomy resolution, image association,
// description normalization, index rebuild. Processing is deliberately
// sequential; the external match service's rate limit depends on calls being
// issued one at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trellis/internal/assets"
	"trellis/internal/catalog"
	"trellis/internal/dedupe"
	"trellis/internal/describe"
	"trellis/internal/logging"
	"trellis/internal/services"
	"trellis/internal/taxonomy"
)

// Stage names used in logs, anomalies, and the run ledger.
const (
	StageLoad         = "load"
	StageDuplicates   = "duplicates"
	StageTaxonomy     = "taxonomy"
	StageImages       = "images"
	StageDescriptions = "descriptions"
	StageIndex        = "index"
)

// Options selects which stages run and what policy applies.
type Options struct {
	Duplicates   bool
	Taxonomy     bool
	Images       bool
	Descriptions bool

	// RemoveRejected enables deleting records whose names the taxonomy stage
	// rejected as non-species. Removal is always the orchestrator's decision;
	// the resolver only classifies.
	RemoveRejected bool
	// DryRun computes and reports every proposed change without writing
	// records or the index.
	DryRun bool
}

// AllStages enables everything.
func AllStages() Options {
	return Options{Duplicates: true, Taxonomy: true, Images: true, Descriptions: true}
}

// Pipeline owns one run over the catalog. Collaborators are injected so
// stage-specific commands can construct only what they need.
type Pipeline struct {
	store      *catalog.Store
	resolver   *taxonomy.Resolver
	library    *assets.Library
	deny       assets.Denylist
	thresholds describe.Thresholds
	logger     *slog.Logger
	opts       Options

	dirty map[*catalog.Record]bool
}

// New constructs a pipeline. resolver and library may be nil when the
// corresponding stages are disabled.
func New(store *catalog.Store, resolver *taxonomy.Resolver, library *assets.Library, deny assets.Denylist, thresholds describe.Thresholds, logger *slog.Logger, opts Options) *Pipeline {
	return &Pipeline{
		store:      store,
		resolver:   resolver,
		library:    library,
		deny:       deny,
		thresholds: thresholds,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		opts:       opts,
		dirty:      make(map[*catalog.Record]bool),
	}
}

// Run executes the enabled stages and returns the aggregated report. The only
// errors returned are catalog-wide fatals; every per-record failure degrades
// to a report anomaly.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    p.opts.DryRun,
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("starting catalog run",
		logging.Bool("dry_run", p.opts.DryRun),
		logging.Bool("remove_rejected", p.opts.RemoveRejected))

	records, malformed, err := p.store.LoadAll()
	if err != nil {
		return nil, err
	}
	report.Scanned = len(records)
	report.Malformed = len(malformed)
	for _, m := range malformed {
		report.AddAnomaly(m.Filename, StageLoad, fmt.Sprintf("malformed record: %v", m.Err))
	}

	if p.opts.Duplicates {
		p.stageDuplicates(report, records)
	}
	kept := records
	if p.opts.Taxonomy {
		kept = p.stageTaxonomy(ctx, report, records)
	}
	if p.opts.Images {
		p.stageImages(ctx, report, kept)
	}
	if p.opts.Descriptions {
		p.stageDescriptions(ctx, report, kept)
	}

	p.commit(ctx, report, kept, malformed)

	report.FinishedAt = time.Now().UTC()
	logger.Info("catalog run finished",
		logging.Int("scanned", report.Scanned),
		logging.Int("kept", report.Kept()),
		logging.Int("removed", report.Removed),
		logging.Int("updated", report.Updated),
		logging.Int("anomalies", len(report.Anomalies)))
	return report, nil
}

func (p *Pipeline) stageDuplicates(report *Report, records []*catalog.Record) {
	report.Duplicates = dedupe.Detect(records)
	report.DuplicateGroups = len(report.Duplicates.ByID) +
		len(report.Duplicates.ByScientificName) +
		len(report.Duplicates.ByName)
	for _, group := range report.Duplicates.ByID {
		for _, member := range group.Members {
			report.AddAnomaly(member.Filename, StageDuplicates, fmt.Sprintf("duplicate id %q", group.Key))
		}
	}
	for _, group := range report.Duplicates.ByScientificName {
		for _, member := range group.Members {
			report.AddAnomaly(member.Filename, StageDuplicates, fmt.Sprintf("duplicate scientific name %q", group.Key))
		}
	}
	for _, group := range report.Duplicates.ByName {
		for _, member := range group.Members {
			report.AddAnomaly(member.Filename, StageDuplicates, fmt.Sprintf("duplicate name %q", group.Key))
		}
	}
}

// stageTaxonomy resolves every record's scientific name and applies removal
// policy. It returns the surviving records. Unresolved always survives.
func (p *Pipeline) stageTaxonomy(ctx context.Context, report *Report, records []*catalog.Record) []*catalog.Record {
	stageCtx := services.WithStage(ctx, StageTaxonomy)
	kept := make([]*catalog.Record, 0, len(records))

	for _, record := range records {
		if ctx.Err() != nil {
			kept = append(kept, record)
			continue
		}
		recordCtx := services.WithRecord(stageCtx, record.Filename)
		logger := logging.WithContext(recordCtx, p.logger)

		report.Taxonomy.Checked++
		resolution := p.resolver.Resolve(recordCtx, record.ScientificName)

		switch resolution.Outcome {
		case taxonomy.OutcomeSpeciesConfirmed:
			report.Taxonomy.Confirmed++
			if accepted := resolution.AcceptedName; accepted != "" && !equalsFoldName(accepted, record.ScientificName) {
				logger.Info("adopting accepted name",
					logging.String("from", record.ScientificName),
					logging.String("to", accepted))
				report.AddAnomaly(record.Filename, StageTaxonomy,
					fmt.Sprintf("synonym %q renamed to accepted %q", record.ScientificName, accepted))
				record.ScientificName = accepted
				p.dirty[record] = true
				report.Taxonomy.Renamed++
			}
			kept = append(kept, record)
		case taxonomy.OutcomeRejectedNonSpecies:
			report.Taxonomy.Rejected++
			if !p.opts.RemoveRejected {
				report.AddAnomaly(record.Filename, StageTaxonomy,
					fmt.Sprintf("%q is not species rank (rank %s); use --remove-rejected to delete", record.ScientificName, orUnknown(resolution.Rank)))
				kept = append(kept, record)
				continue
			}
			if p.opts.DryRun {
				report.WouldRemove++
				report.AddAnomaly(record.Filename, StageTaxonomy,
					fmt.Sprintf("would remove: %q is not species rank", record.ScientificName))
				continue
			}
			if err := p.store.Remove(record); err != nil {
				logger.Warn("record removal failed", logging.Error(err))
				report.AddAnomaly(record.Filename, StageTaxonomy, fmt.Sprintf("removal failed: %v", err))
				kept = append(kept, record)
				continue
			}
			report.Taxonomy.Removed++
			report.Removed++
			report.AddAnomaly(record.Filename, StageTaxonomy,
				fmt.Sprintf("removed: %q is not species rank (rank %s)", record.ScientificName, orUnknown(resolution.Rank)))
		default:
			report.Taxonomy.Unresolved++
			report.AddAnomaly(record.Filename, StageTaxonomy,
				fmt.Sprintf("unresolved %q, kept unchanged", record.ScientificName))
			kept = append(kept, record)
		}
	}
	return kept
}

func (p *Pipeline) stageImages(ctx context.Context, report *Report, records []*catalog.Record) {
	stageCtx := services.WithStage(ctx, StageImages)

	for _, record := range records {
		recordCtx := services.WithRecord(stageCtx, record.Filename)
		logger := logging.WithContext(recordCtx, p.logger)
		slug := assets.Slugify(record.ScientificName)

		resolution, ok := p.library.Resolve(record.ScientificName, p.deny)
		if !ok {
			report.Images.NoAsset++
			report.AddAnomaly(record.Filename, StageImages,
				fmt.Sprintf("no asset folder for %q", record.ScientificName))
			// Existing fields stay untouched, except a stolen placeholder
			// still gets scrubbed.
			imageURL, images, changed := assets.Scrub(record.ImageURL, record.Images, slug, p.deny)
			if changed {
				record.ImageURL = imageURL
				record.Images = images
				p.dirty[record] = true
				report.Images.Scrubbed++
			}
			continue
		}

		report.Images.Matched++
		if resolution.Tied {
			report.Images.Ties++
			report.AddAnomaly(record.Filename, StageImages,
				fmt.Sprintf("multiple folders satisfied %s match, chose %q", resolution.Rule, resolution.Folder))
		}
		if record.ImageURL == resolution.ImageURL && equalStrings(record.Images, resolution.Images) {
			continue
		}
		logger.Debug("rewriting image references",
			logging.String("folder", resolution.Folder),
			logging.Int("images", len(resolution.Images)))
		record.ImageURL = resolution.ImageURL
		record.Images = resolution.Images
		p.dirty[record] = true
		report.Images.Updated++
	}
}

func (p *Pipeline) stageDescriptions(ctx context.Context, report *Report, records []*catalog.Record) {
	stageCtx := services.WithStage(ctx, StageDescriptions)

	for _, record := range records {
		recordCtx := services.WithRecord(stageCtx, record.Filename)

		cleaned := describe.Cleanup(record.Description)
		if cleaned != record.Description {
			record.Description = cleaned
			p.dirty[record] = true
			report.Descriptions.Cleaned++
		}

		flags := describe.Analyze(record.Description, p.thresholds)
		if len(flags) > 0 {
			report.Descriptions.Flagged++
			for _, flag := range flags {
				report.AddAnomaly(record.Filename, StageDescriptions, string(flag))
			}
			logging.WithContext(recordCtx, p.logger).Debug("description flagged",
				logging.Any("flags", flags))
		}
	}
}

// commit saves every dirty record and rebuilds the index. Per-record save
// failures leave the on-disk record unchanged and become anomalies.
func (p *Pipeline) commit(ctx context.Context, report *Report, kept []*catalog.Record, malformed []catalog.Malformed) {
	logger := logging.WithContext(services.WithStage(ctx, StageIndex), p.logger)

	if p.opts.DryRun {
		report.Updated = len(p.dirty)
		logger.Info("dry run: skipping writes", logging.Int("pending_updates", len(p.dirty)))
		return
	}

	for _, record := range kept {
		if !p.dirty[record] {
			continue
		}
		if err := p.store.Save(record); err != nil {
			logger.Warn("record save failed",
				logging.String(logging.FieldRecord, record.Filename),
				logging.Error(err))
			report.AddAnomaly(record.Filename, StageIndex, fmt.Sprintf("save failed: %v", err))
			continue
		}
		report.Updated++
	}

	if _, err := p.store.RebuildIndex(kept, malformed); err != nil {
		logger.Warn("index rebuild failed", logging.Error(err))
		report.AddAnomaly(catalogIndexName, StageIndex, fmt.Sprintf("index rebuild failed: %v", err))
	}
}

const catalogIndexName = "index.json"

func equalsFoldName(a, b string) bool {
	return taxonomy.CanonicalCase(a) == taxonomy.CanonicalCase(b)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
