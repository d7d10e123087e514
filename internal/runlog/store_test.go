package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trellis/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runlog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(runID string, started time.Time) *pipeline.Report {
	report := &pipeline.Report{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Scanned:    10,
		Removed:    1,
		Updated:    4,
		Taxonomy:   pipeline.TaxonomySummary{Checked: 10, Confirmed: 8, Rejected: 1, Unresolved: 1},
		Images:     pipeline.ImageSummary{Matched: 7, NoAsset: 3},
	}
	report.AddAnomaly("a.json", pipeline.StageTaxonomy, "unresolved")
	report.AddAnomaly("b.json", pipeline.StageImages, "no asset folder")
	return report
}

func TestRecordRunAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := store.RecordRun(ctx, sampleReport("run-older", base)); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := store.RecordRun(ctx, sampleReport("run-newer", base.Add(time.Hour))); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-newer" || runs[1].ID != "run-older" {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}

	run := runs[0]
	if run.Scanned != 10 || run.Removed != 1 || run.Updated != 4 {
		t.Errorf("counts = %+v", run)
	}
	if run.TaxonomyConfirmed != 8 || run.TaxonomyUnresolved != 1 {
		t.Errorf("taxonomy counts = %+v", run)
	}
	if run.Anomalies != 2 {
		t.Errorf("Anomalies = %d, want 2", run.Anomalies)
	}
	if !run.StartedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("StartedAt = %v", run.StartedAt)
	}
}

func TestListRunsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		report := sampleReport(
			"run-"+string(rune('a'+i)),
			base.Add(time.Duration(i)*time.Minute),
		)
		if err := store.RecordRun(ctx, report); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected limit of 2, got %d", len(runs))
	}
}

func TestRunAnomalies(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	report := sampleReport("run-x", time.Now().UTC())
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	anomalies, err := store.RunAnomalies(ctx, "run-x")
	if err != nil {
		t.Fatalf("RunAnomalies failed: %v", err)
	}
	if len(anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(anomalies))
	}
	if anomalies[0].Record != "a.json" || anomalies[0].Stage != pipeline.StageTaxonomy {
		t.Errorf("first anomaly = %+v, want insertion order preserved", anomalies[0])
	}

	none, err := store.RunAnomalies(ctx, "missing-run")
	if err != nil {
		t.Fatalf("RunAnomalies failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no anomalies for unknown run, got %d", len(none))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runlog.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.RecordRun(context.Background(), sampleReport("run-1", time.Now().UTC())); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = second.Close() }()

	runs, err := second.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected the recorded run to survive reopen, got %d", len(runs))
	}
}
