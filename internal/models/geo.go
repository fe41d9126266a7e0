package models

// Level is one tier of the administrative hierarchy.
type Level string

const (
	LevelCountry    Level = "country"
	LevelRegion     Level = "region"
	LevelDepartment Level = "departement"
	LevelCanton     Level = "canton"
	LevelCommune    Level = "commune"
)

// Levels lists every aggregation level, coarsest first.
var Levels = []Level{
	LevelCountry,
	LevelRegion,
	LevelDepartment,
	LevelCanton,
	LevelCommune,
}

// CountryCode is the single unit code at country level.
const CountryCode = "FR"

// QualityReport accumulates the recoverable defects of one run.
// Nothing is corrected silently without being counted here.
type QualityReport struct {
	RowsRead           int            `json:"rows_read"`
	ParseDefects       int            `json:"parse_defects"`
	ParseDefectsByFile map[string]int `json:"parse_defects_by_file,omitempty"`
	FilteredRows       int            `json:"filtered_rows"`
	StagedRows         int            `json:"staged_rows"`
	ReconciledSales    int            `json:"reconciled_sales"`
	OutlierSales       int            `json:"outlier_sales"`
	ReferentialDefects int            `json:"referential_defects"`
	UnknownCommunes    []string       `json:"unknown_communes,omitempty"`
	DegenerateGeometry int            `json:"degenerate_geometry"`
	DegenerateUnits    []string       `json:"degenerate_units,omitempty"`
	BelowSampleFloor   int            `json:"below_sample_floor"`
}
