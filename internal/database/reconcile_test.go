package database

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dvfmap/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "staging.db"))
	require.NoError(t, err)
	require.NoError(t, ResetStaging(db))
	return db
}

func TestReconcile_BulkSaleSurfacesSummedPriceTakenOnce(t *testing.T) {
	db := openTestDB(t)

	// A bulk building sale records the total price on every lot row.
	lot := models.SaleRow{
		Date:         "03/01/2022",
		Nature:       "Vente",
		DeptCode:     "75",
		CommuneCode:  56,
		Disposition:  "1",
		PostalCode:   "75001",
		CommuneName:  "PARIS",
		PropertyType: "Appartement",
		Price:        42048908,
	}
	lotA, lotB := lot, lot
	lotA.Surface = 23
	lotB.Surface = 24
	require.NoError(t, InsertSaleRows(db, []*models.SaleRow{&lotA, &lotB}))

	sales, err := Reconcile(db)
	require.NoError(t, err)
	require.Len(t, sales, 1)

	s := sales[0]
	assert.Equal(t, 42048908.0, s.Price, "price must be taken once, never summed")
	assert.Equal(t, 47.0, s.TotalSurface)
	assert.Equal(t, 2, s.NLots)
	assert.InDelta(t, 894657.6, s.PriceM2, 1)
	assert.Equal(t, "75056", s.InseeCode, "commune code must be zero padded")
	assert.True(t, strings.HasPrefix(s.MutationID, "03/01/2022|75|056|1|"))
}

func TestReconcile_DistinctSalesStaySeparate(t *testing.T) {
	db := openTestDB(t)

	base := models.SaleRow{
		Date:         "03/01/2022",
		Nature:       "Vente",
		DeptCode:     "69",
		CommuneCode:  123,
		Disposition:  "1",
		PostalCode:   "69001",
		CommuneName:  "LYON",
		PropertyType: "Maison",
		Price:        300000,
		Surface:      90,
	}
	otherPrice := base
	otherPrice.Price = 310000
	otherDisposition := base
	otherDisposition.Disposition = "2"

	require.NoError(t, InsertSaleRows(db, []*models.SaleRow{&base, &otherPrice, &otherDisposition}))

	sales, err := Reconcile(db)
	require.NoError(t, err)
	assert.Len(t, sales, 3)
	for _, s := range sales {
		assert.Equal(t, 1, s.NLots)
		assert.Equal(t, 90.0, s.TotalSurface)
	}
}

func TestReconcile_SingleLotPassesThrough(t *testing.T) {
	db := openTestDB(t)

	row := models.SaleRow{
		Date:         "15/06/2021",
		Nature:       "Vente",
		DeptCode:     "2A",
		CommuneCode:  4,
		Disposition:  "1",
		PostalCode:   "20000",
		CommuneName:  "AJACCIO",
		PropertyType: "Maison",
		Price:        250000,
		Surface:      100,
	}
	require.NoError(t, InsertSaleRows(db, []*models.SaleRow{&row}))

	sales, err := Reconcile(db)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "2A004", sales[0].InseeCode)
	assert.Equal(t, 2500.0, sales[0].PriceM2)
}
