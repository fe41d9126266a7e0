package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"dvfmap/internal/hierarchy"
	"dvfmap/internal/models"
)

// Output file names per level above commune.
var levelFiles = map[models.Level]string{
	models.LevelCountry:    "country.geojson",
	models.LevelRegion:     "regions.geojson",
	models.LevelDepartment: "departements.geojson",
	models.LevelCanton:     "cantons.geojson",
}

// CommunesDir holds the per-department commune shards.
const CommunesDir = "communes"

// Assembler joins statistics to geometry and writes the static
// artifacts. Every file is written atomically: it exists only once
// fully computed, so a partial run leaves missing files, never corrupt
// ones.
type Assembler struct {
	logger    *logrus.Logger
	outputDir string
}

func New(outputDir string, logger *logrus.Logger) *Assembler {
	return &Assembler{
		logger:    logger,
		outputDir: outputDir,
	}
}

// JoinStats enriches each feature with its unit's aggregate. Units
// below the sample floor carry only their sale count; units without
// any aggregate keep bare code and name, which downstream renders as
// "no data".
func JoinStats(features []*geojson.Feature, aggs map[string]models.StatsAggregate) {
	for _, f := range features {
		agg, ok := aggs[f.Properties.MustString("code", "")]
		if !ok {
			continue
		}
		f.Properties["n_sales"] = agg.NSales
		if agg.MedianPriceM2 == nil {
			continue
		}
		f.Properties["price_m2"] = *agg.MedianPriceM2
		f.Properties["q25"] = *agg.Q25
		f.Properties["q75"] = *agg.Q75
	}
}

// WriteLevel writes one level's feature collection.
func (a *Assembler) WriteLevel(level models.Level, features []*geojson.Feature) error {
	name, ok := levelFiles[level]
	if !ok {
		return fmt.Errorf("no output file for level %s", level)
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = sortByCode(features)
	path := filepath.Join(a.outputDir, name)
	if err := writeJSON(path, fc, false); err != nil {
		return err
	}

	a.logger.WithFields(logrus.Fields{
		"level":    level,
		"features": len(features),
		"file":     name,
	}).Info("Wrote level output")
	return nil
}

type shardIndex struct {
	Departments []string       `json:"departments"`
	Counts      map[string]int `json:"counts"`
}

// WriteCommuneShards partitions the commune features by department and
// writes one shard per department, plus an index file, for lazy
// viewport-scoped delivery. Shards are independent and written
// concurrently.
func (a *Assembler) WriteCommuneShards(features []*geojson.Feature) error {
	byDept := make(map[string][]*geojson.Feature)
	for _, f := range features {
		dept := hierarchy.DepartmentOf(f.Properties.MustString("code", ""))
		byDept[dept] = append(byDept[dept], f)
	}

	dir := filepath.Join(a.outputDir, CommunesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create communes directory: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for dept, depts := range byDept {
		wg.Add(1)
		go func(dept string, features []*geojson.Feature) {
			defer wg.Done()

			fc := geojson.NewFeatureCollection()
			fc.Features = sortByCode(features)
			path := filepath.Join(dir, dept+".geojson")
			if err := writeJSON(path, fc, false); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(dept, depts)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	index := shardIndex{
		Departments: make([]string, 0, len(byDept)),
		Counts:      make(map[string]int, len(byDept)),
	}
	for dept, depts := range byDept {
		index.Departments = append(index.Departments, dept)
		index.Counts[dept] = len(depts)
	}
	sort.Strings(index.Departments)

	if err := writeJSON(filepath.Join(dir, "index.json"), index, true); err != nil {
		return err
	}

	a.logger.WithField("departments", len(byDept)).Info("Wrote commune shards")
	return nil
}

// sortByCode orders features by code so output is deterministic given
// identical inputs.
func sortByCode(features []*geojson.Feature) []*geojson.Feature {
	sorted := append([]*geojson.Feature(nil), features...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Properties.MustString("code", "") < sorted[j].Properties.MustString("code", "")
	})
	return sorted
}

// WriteStatsCache writes the stats-by-code lookup covering all levels.
func (a *Assembler) WriteStatsCache(all map[models.Level]map[string]models.StatsAggregate) error {
	return writeJSON(filepath.Join(a.outputDir, "stats_cache.json"), all, true)
}

// WriteTop writes the ranked top-expensive-communes listing.
func (a *Assembler) WriteTop(entries []models.TopEntry) error {
	payload := map[string][]models.TopEntry{"data": entries}
	return writeJSON(filepath.Join(a.outputDir, "top_expensive.json"), payload, true)
}

// WriteReport writes the per-run quality report.
func (a *Assembler) WriteReport(rep models.QualityReport) error {
	return writeJSON(filepath.Join(a.outputDir, "quality_report.json"), rep, true)
}
