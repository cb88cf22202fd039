package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

// Accepted date window for transaction records, inclusive on both ends.
var (
	minValidDate = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxValidDate = time.Date(2030, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Validator runs data-quality checks over a canonical table. The logger is
// injected so validation never touches process-wide logging state.
type Validator struct {
	log zerolog.Logger
}

// NewValidator creates a validator that reports through log.
func NewValidator(log zerolog.Logger) *Validator {
	return &Validator{log: log}
}

// BasicChecks runs the integrity checks in a fixed order and returns one
// error string per finding category. When a required column is missing the
// schema itself is broken, so only that category is reported and the
// remaining checks are skipped. Data-quality findings never abort the
// pipeline; they are surfaced for the operator.
func (v *Validator) BasicChecks(t *table.Table) []string {
	var errs []string

	for _, c := range RequiredColumns {
		if !t.HasColumn(c) {
			errs = append(errs, fmt.Sprintf("missing required column: %s", c))
		}
	}
	if len(errs) > 0 {
		v.log.Error().Strs("errors", errs).Msg("Schema validation failed")
		return errs
	}

	invalidDates := 0
	outOfRange := 0
	for i := 0; i < t.Len(); i++ {
		d, ok := parseDateCell(t.Cell(i, ColDate))
		if !ok {
			invalidDates++
			continue
		}
		if d.Before(minValidDate) || d.After(maxValidDate) {
			outOfRange++
		}
	}
	if invalidDates > 0 {
		errs = append(errs, fmt.Sprintf("%d rows with invalid dates", invalidDates))
	}
	if outOfRange > 0 {
		errs = append(errs, fmt.Sprintf("%d rows with date outside the range 2010-01-01 to 2030-12-31", outOfRange))
	}

	if !isNumericColumn(t, ColAmount) {
		errs = append(errs, "amount column contains non-numeric values")
	} else {
		negative := 0
		for i := 0; i < t.Len(); i++ {
			if f, ok := numericCell(t.Cell(i, ColAmount)); ok && f < 0 {
				negative++
			}
		}
		if negative > 0 {
			errs = append(errs, fmt.Sprintf("%d rows with negative amount", negative))
		}
	}

	duplicates := 0
	seen := make(map[string]bool, t.Len())
	for i := 0; i < t.Len(); i++ {
		key := naturalKey(t.Cell(i, ColDate), t.Cell(i, ColPartner))
		if seen[key] {
			duplicates++
		}
		seen[key] = true
	}
	if duplicates > 0 {
		errs = append(errs, fmt.Sprintf("%d duplicate rows by (date, partner)", duplicates))
	}

	if len(errs) > 0 {
		v.log.Warn().Strs("errors", errs).Msg("Validation finished with findings")
	} else {
		v.log.Info().Msg("Validation passed")
	}
	return errs
}

// VeracityScore computes the percentage of rows that pass every validity
// check at once: parseable in-range date, numeric non-negative amount and a
// non-blank partner. The result is rounded to two decimals; an empty table
// scores 0. The score is diagnostic only and never gates aggregation.
func (v *Validator) VeracityScore(t *table.Table) float64 {
	if t.Len() == 0 {
		return 0.0
	}

	valid := 0
	for i := 0; i < t.Len(); i++ {
		d, ok := parseDateCell(t.Cell(i, ColDate))
		if !ok || d.Before(minValidDate) || d.After(maxValidDate) {
			continue
		}
		amount, ok := parseAmountCell(t.Cell(i, ColAmount))
		if !ok || amount < 0 {
			continue
		}
		p := t.Cell(i, ColPartner)
		if p == nil || strings.TrimSpace(coerceString(p)) == "" {
			continue
		}
		valid++
	}

	score := float64(valid) / float64(t.Len()) * 100
	return math.Round(score*100) / 100
}

// Summary renders the error list as a human-readable report.
func Summary(errs []string) string {
	if len(errs) == 0 {
		return "All validation checks passed."
	}
	return "Validation found the following problems:\n- " + strings.Join(errs, "\n- ")
}

// isNumericColumn reports whether every present cell of the column is
// numeric. Missing cells do not break uniformity.
func isNumericColumn(t *table.Table, name string) bool {
	for i := 0; i < t.Len(); i++ {
		v := t.Cell(i, name)
		if v == nil {
			continue
		}
		if _, ok := numericCell(v); !ok {
			return false
		}
	}
	return true
}

func numericCell(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}

// naturalKey builds the duplicate-detection key for a row. Cell type is part
// of the key so exact value equality is preserved.
func naturalKey(date, partner any) string {
	return fmt.Sprintf("%T=%v|%T=%v", date, date, partner, partner)
}
