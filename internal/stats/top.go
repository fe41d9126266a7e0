package stats

import (
	"sort"

	"dvfmap/internal/hierarchy"
	"dvfmap/internal/models"
)

// PredominantTypes returns, per commune, the property type with the
// most post-filter sales, used to annotate the ranking entries.
func (a *Aggregator) PredominantTypes(sales []models.ReconciledSale, resolver *hierarchy.Resolver) map[string]string {
	counts := make(map[string]map[string]int)
	for _, s := range sales {
		anc, ok := resolver.Resolve(s.InseeCode)
		if !ok {
			continue
		}
		if counts[anc.Commune] == nil {
			counts[anc.Commune] = make(map[string]int)
		}
		counts[anc.Commune][s.PropertyType]++
	}

	types := make(map[string]string, len(counts))
	for commune, byType := range counts {
		best, bestCount := "", -1
		for t, n := range byType {
			if n > bestCount || (n == bestCount && t < best) {
				best, bestCount = t, n
			}
		}
		types[commune] = best
	}
	return types
}

// TopExpensive ranks the communes with the highest sample-supported
// median price. Ties are broken by sample count descending, then by
// code for a stable order. Communes below minSales are not ranked.
func TopExpensive(communeAggs map[string]models.StatsAggregate, types map[string]string, resolver *hierarchy.Resolver, topN, minSales int) []models.TopEntry {
	entries := make([]models.TopEntry, 0, len(communeAggs))
	for code, agg := range communeAggs {
		if agg.MedianPriceM2 == nil || agg.NSales < minSales {
			continue
		}
		entries = append(entries, models.TopEntry{
			City:          resolver.Name(code),
			Code:          code,
			MedianPriceM2: *agg.MedianPriceM2,
			Volume:        agg.NSales,
			PropertyType:  types[code],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MedianPriceM2 != entries[j].MedianPriceM2 {
			return entries[i].MedianPriceM2 > entries[j].MedianPriceM2
		}
		if entries[i].Volume != entries[j].Volume {
			return entries[i].Volume > entries[j].Volume
		}
		return entries[i].Code < entries[j].Code
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
