package pipeline

// Canonical column names of the bronze schema. Every ingested batch is
// renamed into this vocabulary before assembly.
const (
	ColDate       = "date"
	ColPartner    = "partner"
	ColAmount     = "amount"
	ColSourceFile = "source_file"
	ColIngestedAt = "ingested_at"

	// Derived columns of the silver and gold layers.
	ColMonth         = "month"
	ColYear          = "year"
	ColTotalAmount   = "total_amount"
	ColNTransactions = "n_transactions"
)

// BronzeColumns is the fixed column order of the bronze layer.
var BronzeColumns = []string{ColDate, ColPartner, ColAmount, ColSourceFile, ColIngestedAt}

// RequiredColumns are the canonical columns aggregation cannot run without.
var RequiredColumns = []string{ColDate, ColPartner, ColAmount}

// Mapping names the source columns that hold the canonical date, partner and
// amount fields of a batch. An empty field means the mapping omits that
// canonical column.
type Mapping struct {
	DateColumn    string `json:"date_col"`
	PartnerColumn string `json:"partner_col"`
	AmountColumn  string `json:"amount_col"`
}

// columnRenames builds the source -> canonical rename table.
func (m Mapping) columnRenames() map[string]string {
	renames := make(map[string]string, 3)
	if m.DateColumn != "" {
		renames[m.DateColumn] = ColDate
	}
	if m.PartnerColumn != "" {
		renames[m.PartnerColumn] = ColPartner
	}
	if m.AmountColumn != "" {
		renames[m.AmountColumn] = ColAmount
	}
	return renames
}
