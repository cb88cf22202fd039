package pipeline

import (
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

// ConcatBronze unions zero or more normalized, lineage-tagged batches into
// the bronze table. Row order follows the input sequence. The final column
// order is the canonical bronze order, restricted to columns that appear in
// at least one batch; columns a given batch lacks stay missing in its rows.
// With no batches the result is empty but still carries the full canonical
// header so downstream code can rely on it.
func ConcatBronze(batches []*table.Table) *table.Table {
	if len(batches) == 0 {
		return table.New(BronzeColumns...)
	}

	cols := make([]string, 0, len(BronzeColumns))
	for _, c := range BronzeColumns {
		for _, b := range batches {
			if b.HasColumn(c) {
				cols = append(cols, c)
				break
			}
		}
	}

	out := table.New(cols...)
	for _, b := range batches {
		for i := 0; i < b.Len(); i++ {
			row := make(table.Row, len(cols))
			for _, c := range cols {
				if b.HasColumn(c) {
					row[c] = b.Cell(i, c)
				}
			}
			out.Append(row)
		}
	}
	return out
}
