package tui

import (
	"strconv"

	table "github.com/charmbracelet/bubbles/table"

	"geomap/internal/geom"
)

const maxColWidth = 24

// refreshAttrs rebuilds the table columns/rows from a layer's features.
func (m *Model) refreshAttrs(layerID string) {
	l, ok := m.mp.Layer(layerID)
	if !ok {
		m.showAttrs = false
		return
	}
	cols, rows := geom.Attributes(l.Collection())
	// No columns or rows: leave the table alone so it never renders a
	// mismatched row.
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.setStatus("no attributes on %s layer", layerID)
		return
	}
	m.attrLayer = layerID

	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(len(c)+2, maxColWidth)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make(table.Row, 0, len(tcols))
		row = append(row, strconv.Itoa(i+1))
		row = append(row, r...)
		for len(row) < len(tcols) {
			row = append(row, "")
		}
		trows = append(trows, row[:len(tcols)])
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
	m.setStatus("attributes: %s layer, %d rows", layerID, len(trows))
}
