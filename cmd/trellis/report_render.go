package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"trellis/internal/dedupe"
	"trellis/internal/pipeline"
)

func renderReport(out io.Writer, report *pipeline.Report, jsonOut bool) error {
	if jsonOut {
		return writeJSON(out, report)
	}

	title := "Catalog run"
	if report.DryRun {
		title = "Catalog run (dry run, no writes)"
	}
	fmt.Fprintf(out, "%s %s\n", title, report.RunID)

	tw := newTable(out, table.Row{"Metric", "Count"}, 2)
	tw.AppendRow(table.Row{"Scanned", report.Scanned})
	tw.AppendRow(table.Row{"Kept", report.Kept()})
	tw.AppendRow(table.Row{"Removed", report.Removed})
	if report.WouldRemove > 0 {
		tw.AppendRow(table.Row{"Would remove", report.WouldRemove})
	}
	tw.AppendRow(table.Row{"Updated", report.Updated})
	tw.AppendRow(table.Row{"Malformed", report.Malformed})
	if report.DuplicateGroups > 0 {
		tw.AppendRow(table.Row{"Duplicate groups", report.DuplicateGroups})
	}
	if report.Taxonomy.Checked > 0 {
		tw.AppendRow(table.Row{"Species confirmed", report.Taxonomy.Confirmed})
		tw.AppendRow(table.Row{"Non-species rejected", report.Taxonomy.Rejected})
		tw.AppendRow(table.Row{"Unresolved", report.Taxonomy.Unresolved})
		tw.AppendRow(table.Row{"Renamed to accepted", report.Taxonomy.Renamed})
	}
	if report.Images.Matched > 0 || report.Images.NoAsset > 0 {
		tw.AppendRow(table.Row{"Image sets matched", report.Images.Matched})
		tw.AppendRow(table.Row{"Image sets rewritten", report.Images.Updated})
		tw.AppendRow(table.Row{"No asset folder", report.Images.NoAsset})
		tw.AppendRow(table.Row{"Placeholders scrubbed", report.Images.Scrubbed})
	}
	if report.Descriptions.Cleaned > 0 || report.Descriptions.Flagged > 0 {
		tw.AppendRow(table.Row{"Descriptions cleaned", report.Descriptions.Cleaned})
		tw.AppendRow(table.Row{"Descriptions flagged", report.Descriptions.Flagged})
	}
	tw.Render()

	if len(report.Anomalies) > 0 {
		at := newTable(out, table.Row{"Record", "Stage", "Detail"})
		for _, anomaly := range report.Anomalies {
			at.AppendRow(table.Row{anomaly.Record, anomaly.Stage, anomaly.Message})
		}
		at.Render()
	}
	return nil
}

func renderDuplicateReport(out io.Writer, report dedupe.Report, jsonOut bool) error {
	if jsonOut {
		return writeJSON(out, duplicateJSON(report))
	}
	if report.Empty() {
		fmt.Fprintln(out, "No duplicates found.")
		return nil
	}
	renderGroups(out, "Duplicate ids", report.ByID)
	renderGroups(out, "Duplicate scientific names", report.ByScientificName)
	renderGroups(out, "Duplicate names", report.ByName)
	return nil
}

func renderGroups(out io.Writer, title string, groups []dedupe.Group) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintln(out, title)

	tw := newTable(out, table.Row{"Key", "Count", "Records"}, 2)
	for _, group := range groups {
		members := make([]string, 0, len(group.Members))
		for _, member := range group.Members {
			members = append(members, member.Filename)
		}
		key := group.Key
		if key == "" {
			key = "(missing)"
		}
		tw.AppendRow(table.Row{key, len(group.Members), strings.Join(members, ", ")})
	}
	tw.Render()
}

type duplicateGroupJSON struct {
	Key     string   `json:"key"`
	Members []string `json:"members"`
}

type duplicateReportJSON struct {
	ByID             []duplicateGroupJSON `json:"by_id"`
	ByScientificName []duplicateGroupJSON `json:"by_scientific_name"`
	ByName           []duplicateGroupJSON `json:"by_name"`
}

func duplicateJSON(report dedupe.Report) duplicateReportJSON {
	convert := func(groups []dedupe.Group) []duplicateGroupJSON {
		result := make([]duplicateGroupJSON, 0, len(groups))
		for _, group := range groups {
			members := make([]string, 0, len(group.Members))
			for _, member := range group.Members {
				members = append(members, member.Filename)
			}
			result = append(result, duplicateGroupJSON{Key: group.Key, Members: members})
		}
		return result
	}
	return duplicateReportJSON{
		ByID:             convert(report.ByID),
		ByScientificName: convert(report.ByScientificName),
		ByName:           convert(report.ByName),
	}
}
