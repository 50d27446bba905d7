package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"imgpress/internal/queue"
)

// queueRow is one work item flattened for display.
type queueRow struct {
	id     int64
	kind   queue.Kind
	label  string
	status queue.Status
	detail string
}

// renderQueueTable renders the queue view: ID, kind, item label, lifecycle
// state, and a state-dependent detail column. IDs are right-aligned so they
// line up when the queue grows past single digits.
func renderQueueTable(rows []queueRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"ID", "Kind", "Item", "Status", "Detail"})
	for _, row := range rows {
		tw.AppendRow(table.Row{
			strconv.FormatInt(row.id, 10),
			string(row.kind),
			row.label,
			string(row.status),
			row.detail,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
