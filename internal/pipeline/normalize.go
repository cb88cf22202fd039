package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

// dateLayouts are the accepted source date formats, tried in order. Exports
// come from Spanish-locale systems, so ambiguous slashed dates are read
// day-first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

// NormalizeColumns renames the mapped source columns to the canonical
// {date, partner, amount} names and coerces their cells into canonical types.
// Unmapped columns pass through unchanged. Cells that cannot be coerced
// become nil rather than failing: malformed input is a data-quality finding
// for the Validator, not a normalization error. The input table is never
// mutated.
func NormalizeColumns(t *table.Table, m Mapping) *table.Table {
	out := t.Clone()
	out.RenameColumns(m.columnRenames())

	if out.HasColumn(ColDate) {
		for i := 0; i < out.Len(); i++ {
			if d, ok := parseDateCell(out.Cell(i, ColDate)); ok {
				out.SetCell(i, ColDate, d)
			} else {
				out.SetCell(i, ColDate, nil)
			}
		}
	}

	if out.HasColumn(ColAmount) {
		for i := 0; i < out.Len(); i++ {
			if f, ok := parseAmountCell(out.Cell(i, ColAmount)); ok {
				out.SetCell(i, ColAmount, f)
			} else {
				out.SetCell(i, ColAmount, nil)
			}
		}
	}

	if out.HasColumn(ColPartner) {
		for i := 0; i < out.Len(); i++ {
			v := out.Cell(i, ColPartner)
			if v == nil {
				continue
			}
			out.SetCell(i, ColPartner, strings.TrimSpace(coerceString(v)))
		}
	}

	return out
}

// parseDateCell coerces a cell into a calendar date.
func parseDateCell(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// parseAmountCell coerces a cell into a non-locale float amount. String cells
// may carry the euro symbol, incidental whitespace and Spanish decimal
// notation ("1.234,56"); when a decimal comma is present, dots are treated as
// thousands separators and stripped.
func parseAmountCell(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		s := strings.ReplaceAll(val, "€", "")
		s = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
		if s == "" {
			return 0, false
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	default:
		return 0, false
	}
}

// coerceString renders any cell as a string.
func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
