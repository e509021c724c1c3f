package dashboard

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable prints rows as a terminal table for the non-server mode.
func RenderTable(w io.Writer, rows []Row) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	t.AppendHeader(table.Row{"Title", "Price", "Rating", "Availability"})
	for _, row := range rows {
		price := "-"
		if row.HasPrice() {
			price = fmt.Sprintf("%.2f", row.Price)
		}
		rating := "-"
		if row.Rating > 0 {
			rating = fmt.Sprintf("%d", row.Rating)
		}
		t.AppendRow(table.Row{row.ShortTitle, price, rating, row.Availability})
	}

	summary := Summarize(rows)
	t.AppendFooter(table.Row{"Total", summary.Count, "", ""})
	t.Render()
}
