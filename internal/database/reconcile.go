package database

import (
	"fmt"

	"gorm.io/gorm"

	"dvfmap/internal/models"
)

// The upstream document identifier is always absent from DVF files, so
// lots belonging to one disposition of one sale are grouped by a
// synthetic mutation id built from date, department, zero-padded
// commune, disposition number and price. Two unrelated sales sharing
// all five values collide into one group; the source data offers no
// stronger key, so this stays an accepted approximation.
//
// Within a group the price is the repeated total of the whole sale and
// must be taken once (MAX over identical values), while surfaces are
// summed across lots. Summing prices here is exactly the defect this
// table exists to remove.
const reconcileQuery = `
SELECT
    date || '|' || dept_code || '|' || printf('%03d', commune_code) || '|' ||
        disposition || '|' || CAST(price AS TEXT) AS mutation_id,
    date,
    dept_code,
    dept_code || printf('%03d', commune_code) AS insee_code,
    postal_code,
    commune_name,
    MAX(property_type) AS property_type,
    MAX(price) AS price,
    SUM(surface) AS total_surface,
    COUNT(*) AS n_lots,
    MAX(price) / SUM(surface) AS price_m2
FROM sale_rows
GROUP BY
    date,
    dept_code,
    commune_code,
    disposition,
    price,
    postal_code,
    commune_name
`

// Reconcile collapses the staged lot rows into one ReconciledSale per
// synthetic mutation id.
func Reconcile(db *gorm.DB) ([]models.ReconciledSale, error) {
	var sales []models.ReconciledSale
	if err := db.Raw(reconcileQuery).Scan(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to reconcile sales: %w", err)
	}
	return sales, nil
}
