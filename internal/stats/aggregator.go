package stats

import (
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"dvfmap/config"
	"dvfmap/internal/hierarchy"
	"dvfmap/internal/models"
	"dvfmap/internal/report"
)

// Aggregator computes price statistics per geographic unit, at every
// level, directly over the reconciled sales assigned to that unit.
// Medians and quartiles are non-additive across partitions, so child
// aggregates are never combined; each level reduces the full leaf
// multiset on its own.
type Aggregator struct {
	logger   *logrus.Logger
	report   *report.Collector
	minPrice float64
	maxPrice float64
	minSales int
}

func NewAggregator(cfg *config.Config, rep *report.Collector, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		logger:   logger,
		report:   rep,
		minPrice: cfg.Filters.MinPriceM2,
		maxPrice: cfg.Filters.MaxPriceM2,
		minSales: cfg.Filters.MinSalesForStats,
	}
}

// FilterOutliers excludes sales outside the configured price-per-area
// bounds. Applied once, before any rollup level, so every level's
// statistics are outlier-consistent.
func (a *Aggregator) FilterOutliers(sales []models.ReconciledSale) []models.ReconciledSale {
	kept := make([]models.ReconciledSale, 0, len(sales))
	for _, s := range sales {
		if s.PriceM2 < a.minPrice || s.PriceM2 > a.maxPrice {
			continue
		}
		kept = append(kept, s)
	}
	a.report.AddOutlierSales(len(sales) - len(kept))
	a.logger.WithFields(logrus.Fields{
		"sales":    len(sales),
		"outliers": len(sales) - len(kept),
	}).Info("Applied outlier bounds")
	return kept
}

type assignment struct {
	ancestry hierarchy.Ancestry
	priceM2  float64
}

// Compute resolves each sale's ancestry once, then reduces every level
// concurrently over the shared immutable assignment slice. Sales whose
// commune is absent from the hierarchy are excluded and counted.
func (a *Aggregator) Compute(sales []models.ReconciledSale, resolver *hierarchy.Resolver) map[models.Level]map[string]models.StatsAggregate {
	assigned := make([]assignment, 0, len(sales))
	for _, s := range sales {
		anc, ok := resolver.Resolve(s.InseeCode)
		if !ok {
			a.report.AddReferentialDefect(s.InseeCode)
			continue
		}
		assigned = append(assigned, assignment{ancestry: anc, priceM2: s.PriceM2})
	}

	results := make(map[models.Level]map[string]models.StatsAggregate, len(models.Levels))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, level := range models.Levels {
		wg.Add(1)
		go func(level models.Level) {
			defer wg.Done()

			groups := make(map[string][]float64)
			for _, as := range assigned {
				code := as.ancestry.UnitAt(level)
				if code == "" {
					continue
				}
				groups[code] = append(groups[code], as.priceM2)
			}

			aggs := make(map[string]models.StatsAggregate, len(groups))
			for code, prices := range groups {
				aggs[code] = a.reduce(prices)
			}

			mu.Lock()
			results[level] = aggs
			mu.Unlock()

			a.logger.WithFields(logrus.Fields{
				"level": level,
				"units": len(aggs),
			}).Info("Computed level statistics")
		}(level)
	}

	wg.Wait()
	return results
}

// reduce turns one unit's price multiset into its aggregate. Below the
// sample floor the price fields stay nil while the count is preserved,
// surfacing data thinness without implying confidence.
func (a *Aggregator) reduce(prices []float64) models.StatsAggregate {
	n := len(prices)
	if n < a.minSales {
		a.report.AddBelowSampleFloor()
		return models.StatsAggregate{NSales: n}
	}

	sort.Float64s(prices)
	median := roundPrice(quantile(prices, 0.5))
	q25 := roundPrice(quantile(prices, 0.25))
	q75 := roundPrice(quantile(prices, 0.75))

	return models.StatsAggregate{
		MedianPriceM2: &median,
		Q25:           &q25,
		Q75:           &q75,
		NSales:        n,
	}
}

// quantile is the nearest-rank order statistic over a sorted slice:
// every emitted value is an observed sale price, never an interpolated
// one. Each sale counts once regardless of surface.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	pos := int(math.RoundToEven(q * float64(n-1)))
	if pos < 0 {
		pos = 0
	}
	if pos > n-1 {
		pos = n - 1
	}
	return sorted[pos]
}

func roundPrice(v float64) float64 {
	return math.Round(v)
}
