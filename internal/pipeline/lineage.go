package pipeline

import (
	"time"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

// TagLineage returns a copy of the batch with lineage metadata attached:
// source_file carries the batch identifier and ingested_at the UTC instant of
// tagging as ISO 8601. The timestamp is taken once per call, so every row of
// a batch shares it.
func TagLineage(t *table.Table, sourceName string) *table.Table {
	out := t.Clone()
	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	out.AddColumn(ColSourceFile, func(int) any { return sourceName })
	out.AddColumn(ColIngestedAt, func(int) any { return ingestedAt })
	return out
}
