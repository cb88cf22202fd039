package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

// ErrMissingColumn signals that a table reached the aggregator without a
// required canonical column. This is a caller-configuration failure (a bad
// column mapping), not a data-quality finding, and aborts the run.
var ErrMissingColumn = errors.New("required column missing")

// ToSilver rolls bronze up to one row per (partner, month), where month is
// the first calendar day of the record's month. Amounts are summed with
// decimal arithmetic into total_amount. Rows whose date is missing or
// unparsable have no month and are excluded from the rollup; rows with a
// missing amount contribute nothing to the sum but still open their group.
func ToSilver(bronze *table.Table) (*table.Table, error) {
	if err := requireColumns(bronze, RequiredColumns...); err != nil {
		return nil, fmt.Errorf("to silver: %w", err)
	}

	type silverGroup struct {
		partner string
		month   time.Time
		total   decimal.Decimal
	}

	groups := make(map[string]*silverGroup)
	order := make([]string, 0)

	for i := 0; i < bronze.Len(); i++ {
		d, ok := parseDateCell(bronze.Cell(i, ColDate))
		if !ok {
			continue
		}
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)

		partner := ""
		if p := bronze.Cell(i, ColPartner); p != nil {
			partner = coerceString(p)
		}

		key := partner + "|" + month.Format("2006-01-02")
		g, exists := groups[key]
		if !exists {
			g = &silverGroup{partner: partner, month: month}
			groups[key] = g
			order = append(order, key)
		}
		if f, ok := numericCell(bronze.Cell(i, ColAmount)); ok {
			g.total = g.total.Add(decimal.NewFromFloat(f))
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := groups[order[i]], groups[order[j]]
		if a.partner != b.partner {
			return a.partner < b.partner
		}
		return a.month.Before(b.month)
	})

	out := table.New(ColPartner, ColMonth, ColTotalAmount)
	for _, key := range order {
		g := groups[key]
		out.Append(table.Row{
			ColPartner:     g.partner,
			ColMonth:       g.month,
			ColTotalAmount: g.total.InexactFloat64(),
		})
	}
	return out, nil
}

// ToGold rolls silver up to one row per (partner, year). total_amount sums
// the monthly totals; n_transactions counts the silver rows folded into each
// group, i.e. the number of distinct months with activity.
func ToGold(silver *table.Table) (*table.Table, error) {
	if err := requireColumns(silver, ColPartner, ColMonth, ColTotalAmount); err != nil {
		return nil, fmt.Errorf("to gold: %w", err)
	}

	type goldGroup struct {
		partner string
		year    int
		total   decimal.Decimal
		months  int
	}

	groups := make(map[string]*goldGroup)
	order := make([]string, 0)

	for i := 0; i < silver.Len(); i++ {
		m, ok := parseDateCell(silver.Cell(i, ColMonth))
		if !ok {
			continue
		}

		partner := ""
		if p := silver.Cell(i, ColPartner); p != nil {
			partner = coerceString(p)
		}

		key := fmt.Sprintf("%s|%d", partner, m.Year())
		g, exists := groups[key]
		if !exists {
			g = &goldGroup{partner: partner, year: m.Year()}
			groups[key] = g
			order = append(order, key)
		}
		g.months++
		if f, ok := numericCell(silver.Cell(i, ColTotalAmount)); ok {
			g.total = g.total.Add(decimal.NewFromFloat(f))
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := groups[order[i]], groups[order[j]]
		if a.partner != b.partner {
			return a.partner < b.partner
		}
		return a.year < b.year
	})

	out := table.New(ColYear, ColPartner, ColTotalAmount, ColNTransactions)
	for _, key := range order {
		g := groups[key]
		out.Append(table.Row{
			ColYear:          g.year,
			ColPartner:       g.partner,
			ColTotalAmount:   g.total.InexactFloat64(),
			ColNTransactions: g.months,
		})
	}
	return out, nil
}

// TotalAmount is the headline KPI: the sum of all silver monthly totals.
// Zero when the run has no silver table.
func (s *RunState) TotalAmount() float64 {
	if s.Silver == nil {
		return 0
	}
	total := decimal.Zero
	for i := 0; i < s.Silver.Len(); i++ {
		if f, ok := numericCell(s.Silver.Cell(i, ColTotalAmount)); ok {
			total = total.Add(decimal.NewFromFloat(f))
		}
	}
	return total.InexactFloat64()
}

func requireColumns(t *table.Table, cols ...string) error {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}
