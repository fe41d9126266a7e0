package geometry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb/geojson"

	"dvfmap/internal/models"
)

// Boundary file names expected under the boundary directory.
var boundaryFiles = map[models.Level]string{
	models.LevelRegion:     "region.geojson",
	models.LevelDepartment: "departement.geojson",
	models.LevelCanton:     "canton.geojson",
	models.LevelCommune:    "commune.geojson",
}

// ArrondissementFile holds the municipal arrondissement boundaries of
// the merged cities.
const ArrondissementFile = "arrondissement_municipal.geojson"

// Source property names per level, matching Admin Express exports.
var codeFields = map[models.Level]string{
	models.LevelRegion:     "INSEE_REG",
	models.LevelDepartment: "INSEE_DEP",
	models.LevelCanton:     "INSEE_CAN",
	models.LevelCommune:    "INSEE_COM",
}

var nameFields = map[models.Level]string{
	models.LevelRegion:     "NOM",
	models.LevelDepartment: "NOM",
	models.LevelCanton:     "INSEE_CAN", // canton layer carries no name
	models.LevelCommune:    "NOM",
}

// BoundaryPath returns the boundary file path for a level.
func BoundaryPath(dir string, level models.Level) string {
	return filepath.Join(dir, boundaryFiles[level])
}

// LoadFeatureCollection reads one boundary GeoJSON file. A missing or
// unreadable boundary dataset is fatal to the run.
func LoadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundary file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boundary file %s: %w", filepath.Base(path), err)
	}
	return fc, nil
}

// Standardize maps raw boundary features to features carrying only
// code and name properties, the shape every downstream stage works on.
// Canton codes are prefixed with their department so they are unique
// nationwide.
func Standardize(features []*geojson.Feature, level models.Level) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(features))
	for _, f := range features {
		code := stringProperty(f, codeFields[level])
		if code == "" {
			continue
		}
		if level == models.LevelCanton {
			if dept := stringProperty(f, "INSEE_DEP"); dept != "" {
				code = dept + "_" + code
			}
		}

		name := stringProperty(f, nameFields[level])
		if name == "" {
			name = code
		}
		if level == models.LevelCanton {
			name = "Canton " + stringProperty(f, codeFields[level])
		}

		nf := geojson.NewFeature(f.Geometry)
		nf.Properties = geojson.Properties{"code": code, "name": name}
		out = append(out, nf)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Properties.MustString("code") < out[j].Properties.MustString("code")
	})
	return out
}

// StandardizeArrondissements maps municipal arrondissement features to
// code/name form (the arrondissement keeps its own INSEE code here;
// the merge into the parent unit happens in MergeCommuneLayer).
func StandardizeArrondissements(features []*geojson.Feature) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(features))
	for _, f := range features {
		code := stringProperty(f, "INSEE_ARM")
		if code == "" {
			continue
		}
		name := stringProperty(f, "NOM")
		if name == "" {
			name = code
		}
		nf := geojson.NewFeature(f.Geometry)
		nf.Properties = geojson.Properties{"code": code, "name": name}
		out = append(out, nf)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Properties.MustString("code") < out[j].Properties.MustString("code")
	})
	return out
}

func stringProperty(f *geojson.Feature, key string) string {
	if f.Properties == nil {
		return ""
	}
	switch v := f.Properties[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
