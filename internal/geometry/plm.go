package geometry

import (
	"sort"

	"github.com/paulmach/orb/geojson"

	"dvfmap/config"
)

// MergeCommuneLayer folds the municipal arrondissements of merged
// cities into their parent unit: the parent's single feature is
// replaced by the arrondissement polygons relabeled with the parent
// code and city name, so the city renders with fine geometry but joins
// stats and hierarchy as one unit. With no arrondissement data the
// parent features are kept as-is. Both inputs are standardized.
func MergeCommuneLayer(communes, arrondissements []*geojson.Feature, cities *config.MergedCities) []*geojson.Feature {
	if len(arrondissements) == 0 {
		return communes
	}

	arrToCommune := cities.ArrondissementToCommune()
	parents := make(map[string]bool, len(cities.Cities))
	for _, city := range cities.Cities {
		parents[city.Code] = true
	}

	out := make([]*geojson.Feature, 0, len(communes)+len(arrondissements))
	for _, f := range communes {
		if parents[f.Properties.MustString("code", "")] {
			continue
		}
		out = append(out, f)
	}

	for _, f := range arrondissements {
		parent, ok := arrToCommune[f.Properties.MustString("code", "")]
		if !ok {
			continue
		}
		city := cities.ByCode(parent)
		if city == nil {
			continue
		}
		nf := geojson.NewFeature(f.Geometry)
		nf.Properties = geojson.Properties{"code": city.Code, "name": city.Name}
		out = append(out, nf)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Properties.MustString("code") < out[j].Properties.MustString("code")
	})
	return out
}

// PseudoCantons builds canton features for the merged cities from
// their parent commune geometry, so the canton layer covers the whole
// city under its pseudo-canton code. Input is the standardized commune
// layer before the parent features are replaced.
func PseudoCantons(communes []*geojson.Feature, cities *config.MergedCities) []*geojson.Feature {
	byCode := make(map[string]*geojson.Feature, len(communes))
	for _, f := range communes {
		byCode[f.Properties.MustString("code", "")] = f
	}

	out := make([]*geojson.Feature, 0, len(cities.Cities))
	for _, city := range cities.Cities {
		f, ok := byCode[city.Code]
		if !ok {
			continue
		}
		nf := geojson.NewFeature(f.Geometry)
		nf.Properties = geojson.Properties{"code": city.CantonCode, "name": city.Name}
		out = append(out, nf)
	}
	return out
}
