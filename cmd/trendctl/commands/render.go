package commands

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/use-agent/trendscout/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeTable(w io.Writer, rec *models.SnapshotRecord) {
	t := newTable(w)
	t.SetTitle("Trending at %s from %s", rec.Timestamp, rec.IPAddress)
	t.AppendHeader(table.Row{"#", "Topic"})
	for i, topic := range rec.Topics {
		t.AppendRow(table.Row{i + 1, topic})
	}
	// Ids go in the body: footers are upper-cased by the style.
	t.AppendSeparator()
	t.AppendRow(table.Row{"id", rec.ID})
	t.AppendRow(table.Row{"unique_id", rec.UniqueID})
	t.Render()
}

func writeJSON(w io.Writer, rec *models.SnapshotRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
