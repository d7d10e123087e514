package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"trellis/internal/catalog"
	"trellis/internal/dedupe"
	"trellis/internal/pipeline"
)

func TestRenderReportText(t *testing.T) {
	report := &pipeline.Report{
		RunID:   "run-1",
		Scanned: 5,
		Updated: 2,
		Taxonomy: pipeline.TaxonomySummary{
			Checked: 5, Confirmed: 4, Rejected: 1,
		},
	}
	report.AddAnomaly("a.json", pipeline.StageTaxonomy, "unresolved")

	var out bytes.Buffer
	if err := renderReport(&out, report, false); err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	text := out.String()
	for _, want := range []string{"run-1", "Scanned", "Species confirmed", "a.json"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Would remove") {
		t.Errorf("non-dry-run output should omit the proposed-removal row:\n%s", text)
	}
}

func TestRenderReportTextDryRun(t *testing.T) {
	report := &pipeline.Report{
		RunID:       "run-3",
		DryRun:      true,
		Scanned:     2,
		WouldRemove: 1,
	}

	var out bytes.Buffer
	if err := renderReport(&out, report, false); err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	if !strings.Contains(out.String(), "Would remove") {
		t.Errorf("dry-run output missing the proposed-removal row:\n%s", out.String())
	}
}

func TestRenderReportJSON(t *testing.T) {
	report := &pipeline.Report{RunID: "run-2", Scanned: 1}

	var out bytes.Buffer
	if err := renderReport(&out, report, true); err != nil {
		t.Fatalf("renderReport: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output invalid: %v\n%s", err, out.String())
	}
	if decoded["run_id"] != "run-2" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
}

func TestRenderDuplicateReport(t *testing.T) {
	member := &catalog.Record{Filename: "a.json"}
	other := &catalog.Record{Filename: "b.json"}
	report := dedupe.Report{
		ByScientificName: []dedupe.Group{{Key: "ficus pumila", Members: []*catalog.Record{member, other}}},
	}

	var out bytes.Buffer
	if err := renderDuplicateReport(&out, report, false); err != nil {
		t.Fatalf("renderDuplicateReport: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "ficus pumila") || !strings.Contains(text, "a.json, b.json") {
		t.Errorf("output = %s", text)
	}

	out.Reset()
	if err := renderDuplicateReport(&out, dedupe.Report{}, false); err != nil {
		t.Fatalf("renderDuplicateReport: %v", err)
	}
	if !strings.Contains(out.String(), "No duplicates found.") {
		t.Errorf("empty report output = %q", out.String())
	}
}
