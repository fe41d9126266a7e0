package models

// SaleRow is one lot of a DVF mutation, as staged from the raw
// pipe-delimited files. Several rows may belong to the same sale.
type SaleRow struct {
	ID           int64   `json:"id" gorm:"primaryKey"`
	Date         string  `json:"date" gorm:"index:idx_mutation"`
	Nature       string  `json:"nature"`
	DeptCode     string  `json:"dept_code" gorm:"index:idx_mutation"`
	CommuneCode  int     `json:"commune_code" gorm:"index:idx_mutation"`
	Disposition  string  `json:"disposition" gorm:"index:idx_mutation"`
	PostalCode   string  `json:"postal_code"`
	CommuneName  string  `json:"commune_name"`
	PropertyType string  `json:"property_type"`
	Price        float64 `json:"price" gorm:"index:idx_mutation"`
	Surface      float64 `json:"surface"`
}

// ReconciledSale is one real-world transaction after multi-lot
// deduplication. Price is the single shared value of the group,
// TotalSurface the sum across lots.
type ReconciledSale struct {
	MutationID   string  `json:"mutation_id"`
	Date         string  `json:"date"`
	DeptCode     string  `json:"dept_code"`
	InseeCode    string  `json:"insee_code"`
	PostalCode   string  `json:"postal_code"`
	CommuneName  string  `json:"commune_name"`
	PropertyType string  `json:"property_type"`
	Price        float64 `json:"price"`
	TotalSurface float64 `json:"total_surface"`
	NLots        int     `json:"n_lots"`
	PriceM2      float64 `json:"price_m2"`
}

// StatsAggregate holds the price statistics for one geographic unit.
// Price fields are nil when the sample is below the configured floor.
type StatsAggregate struct {
	MedianPriceM2 *float64 `json:"median_price_m2"`
	Q25           *float64 `json:"q25"`
	Q75           *float64 `json:"q75"`
	NSales        int      `json:"n_sales"`
}

// TopEntry is one row of the top-expensive-communes ranking.
type TopEntry struct {
	City          string  `json:"city"`
	Code          string  `json:"code"`
	MedianPriceM2 float64 `json:"median_price_m2"`
	Volume        int     `json:"volume"`
	PropertyType  string  `json:"property_type"`
}
