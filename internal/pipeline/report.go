package pipeline

import (
	"time"

	"trellis/internal/dedupe"
)

// Anomaly is one per-record problem surfaced during a run. Anomalies never
// abort the run; they exist so no record is ever touched or skipped silently.
type Anomaly struct {
	Record  string `json:"record"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// TaxonomySummary counts taxonomy stage outcomes.
type TaxonomySummary struct {
	Checked    int `json:"checked"`
	Confirmed  int `json:"confirmed"`
	Rejected   int `json:"rejected"`
	Unresolved int `json:"unresolved"`
	Removed    int `json:"removed"`
	Renamed    int `json:"renamed"`
}

// ImageSummary counts image stage outcomes.
type ImageSummary struct {
	Matched  int `json:"matched"`
	Updated  int `json:"updated"`
	NoAsset  int `json:"no_asset"`
	Scrubbed int `json:"scrubbed"`
	Ties     int `json:"ties"`
}

// DescriptionSummary counts description stage outcomes.
type DescriptionSummary struct {
	Cleaned int `json:"cleaned"`
	Flagged int `json:"flagged"`
}

// Report aggregates everything one pipeline run did, for the operator summary
// and the run ledger.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	Scanned   int `json:"scanned"`
	Malformed int `json:"malformed"`
	Removed   int `json:"removed"`
	Updated   int `json:"updated"`

	// WouldRemove counts records a dry run flagged for removal. Removed stays
	// zero on dry runs; nothing actually left the disk.
	WouldRemove int `json:"would_remove"`

	Duplicates      dedupe.Report      `json:"-"`
	DuplicateGroups int                `json:"duplicate_groups"`
	Taxonomy        TaxonomySummary    `json:"taxonomy"`
	Images          ImageSummary       `json:"images"`
	Descriptions    DescriptionSummary `json:"descriptions"`

	Anomalies []Anomaly `json:"anomalies"`
}

// Kept returns how many scanned records survived the run.
func (r *Report) Kept() int {
	return r.Scanned - r.Removed
}

// AddAnomaly appends one diagnostic entry.
func (r *Report) AddAnomaly(record, stage, message string) {
	r.Anomalies = append(r.Anomalies, Anomaly{Record: record, Stage: stage, Message: message})
}
