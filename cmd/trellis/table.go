package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTable builds a rounded table that renders straight to out. Count
// columns (1-based positions) are right-aligned; everything else, headers
// included, stays left.
func newTable(out io.Writer, header table.Row, countCols ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	if len(countCols) > 0 {
		configs := make([]table.ColumnConfig, 0, len(countCols))
		for _, col := range countCols {
			configs = append(configs, table.ColumnConfig{
				Number:      col,
				Align:       text.AlignRight,
				AlignHeader: text.AlignLeft,
			})
		}
		tw.SetColumnConfigs(configs)
	}
	return tw
}
