package report

import (
	"sort"
	"sync"

	"dvfmap/internal/models"
)

// Collector accumulates the recoverable defects of a single run.
// Safe for concurrent use; stages report into it, nothing is dropped
// silently.
type Collector struct {
	mu     sync.Mutex
	report models.QualityReport
}

func NewCollector() *Collector {
	return &Collector{
		report: models.QualityReport{
			ParseDefectsByFile: make(map[string]int),
		},
	}
}

// AddRowsRead records rows seen in a source file, before any filtering.
func (c *Collector) AddRowsRead(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.RowsRead += n
}

// AddParseDefect counts a malformed row in the given source file.
func (c *Collector) AddParseDefect(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.ParseDefects++
	c.report.ParseDefectsByFile[file]++
}

// AddFilteredRow counts a well-formed row rejected by the validity
// filters (nature, property type, price, surface).
func (c *Collector) AddFilteredRow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.FilteredRows++
}

// AddStagedRows counts rows written to the staging table.
func (c *Collector) AddStagedRows(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.StagedRows += n
}

// SetReconciledSales records the size of the reconciled transaction set.
func (c *Collector) SetReconciledSales(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.ReconciledSales = n
}

// AddOutlierSales counts sales excluded by the price-per-area bounds.
func (c *Collector) AddOutlierSales(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.OutlierSales += n
}

// AddReferentialDefect counts a sale whose commune is absent from the
// boundary hierarchy. Each unknown commune code is retained once.
func (c *Collector) AddReferentialDefect(communeCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.ReferentialDefects++
	for _, code := range c.report.UnknownCommunes {
		if code == communeCode {
			return
		}
	}
	c.report.UnknownCommunes = append(c.report.UnknownCommunes, communeCode)
}

// AddDegenerateUnit counts a unit excluded from geometry output because
// simplification collapsed its shape.
func (c *Collector) AddDegenerateUnit(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.DegenerateGeometry++
	c.report.DegenerateUnits = append(c.report.DegenerateUnits, code)
}

// AddBelowSampleFloor counts a unit whose sample was too small for
// price statistics.
func (c *Collector) AddBelowSampleFloor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.BelowSampleFloor++
}

// Snapshot returns a copy of the accumulated report with list fields
// sorted for deterministic output.
func (c *Collector) Snapshot() models.QualityReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.report
	snap.UnknownCommunes = append([]string(nil), c.report.UnknownCommunes...)
	snap.DegenerateUnits = append([]string(nil), c.report.DegenerateUnits...)
	snap.ParseDefectsByFile = make(map[string]int, len(c.report.ParseDefectsByFile))
	for k, v := range c.report.ParseDefectsByFile {
		snap.ParseDefectsByFile[k] = v
	}
	sort.Strings(snap.UnknownCommunes)
	sort.Strings(snap.DegenerateUnits)
	return snap
}
