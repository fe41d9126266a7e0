package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"dvfmap/internal/models"
)

// CombineToCountry assembles the country outline from the mainland
// region geometries, combined into a single MultiPolygon feature under
// the country code. Interior region borders are kept, not dissolved.
// Input is the standardized, unsimplified region layer.
func CombineToCountry(regions []*geojson.Feature, metroRegions []string) *geojson.Feature {
	metro := make(map[string]bool, len(metroRegions))
	for _, code := range metroRegions {
		metro[code] = true
	}

	var combined orb.MultiPolygon
	for _, f := range regions {
		if !metro[f.Properties.MustString("code", "")] {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			combined = append(combined, g)
		case orb.MultiPolygon:
			combined = append(combined, g...)
		}
	}

	f := geojson.NewFeature(combined)
	f.Properties = geojson.Properties{"code": models.CountryCode, "name": "France"}
	return f
}
