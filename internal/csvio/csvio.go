// Package csvio reads uploaded CSV batches into tables and renders tables
// back to canonical CSV.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses a CSV stream into a raw table: the first record becomes the
// column set, every cell stays a string, empty cells become missing. Input
// that is not valid UTF-8 is re-decoded as Latin-1, the usual encoding of
// legacy Spanish exports. Ragged rows are tolerated; short rows leave the
// trailing columns missing.
func Read(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("read csv: latin-1 fallback: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return table.New(), nil
	}

	t := table.New(records[0]...)
	for _, record := range records[1:] {
		row := make(table.Row, len(records[0]))
		for i, col := range records[0] {
			if i < len(record) && record[i] != "" {
				row[col] = record[i]
			}
		}
		t.Append(row)
	}
	return t, nil
}

// Write renders a table as CSV with the canonical cell formats: dates as
// 2006-01-02, timestamps as RFC 3339, amounts as plain decimal numbers,
// missing cells as empty fields.
func Write(w io.Writer, t *table.Table) error {
	writer := csv.NewWriter(w)

	cols := t.Columns()
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	record := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, col := range cols {
			record[j] = formatCell(t.Cell(i, col))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Encode renders a table as an in-memory CSV document.
func Encode(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
