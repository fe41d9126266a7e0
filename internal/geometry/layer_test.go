package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dvfmap/internal/models"
)

func rawFeature(props geojson.Properties) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	f.Properties = props
	return f
}

func TestStandardize_Communes(t *testing.T) {
	in := []*geojson.Feature{
		rawFeature(geojson.Properties{"INSEE_COM": "33063", "NOM": "Bordeaux", "INSEE_DEP": "33"}),
		rawFeature(geojson.Properties{"INSEE_COM": "01001", "NOM": "L'Abergement-Clemenciat"}),
		rawFeature(geojson.Properties{"NOM": "Sans code"}),
	}

	out := Standardize(in, models.LevelCommune)

	require.Len(t, out, 2, "features without a code are dropped")
	assert.Equal(t, "01001", out[0].Properties.MustString("code"))
	assert.Equal(t, "33063", out[1].Properties.MustString("code"))
	assert.Equal(t, "Bordeaux", out[1].Properties.MustString("name"))
	assert.Len(t, out[1].Properties, 2, "only code and name survive standardization")
}

func TestStandardize_CantonCodesPrefixedWithDepartment(t *testing.T) {
	in := []*geojson.Feature{
		rawFeature(geojson.Properties{"INSEE_CAN": "08", "INSEE_DEP": "01"}),
		rawFeature(geojson.Properties{"INSEE_CAN": "08", "INSEE_DEP": "33"}),
	}

	out := Standardize(in, models.LevelCanton)

	require.Len(t, out, 2)
	assert.Equal(t, "01_08", out[0].Properties.MustString("code"))
	assert.Equal(t, "33_08", out[1].Properties.MustString("code"))
	assert.Equal(t, "Canton 08", out[0].Properties.MustString("name"))
}

func TestStandardize_NumericCodesAccepted(t *testing.T) {
	// GeoJSON properties may carry numeric codes depending on the export.
	in := []*geojson.Feature{
		rawFeature(geojson.Properties{"INSEE_REG": float64(84), "NOM": "Auvergne-Rhone-Alpes"}),
	}

	out := Standardize(in, models.LevelRegion)

	require.Len(t, out, 1)
	assert.Equal(t, "84", out[0].Properties.MustString("code"))
}

func TestStandardizeArrondissements(t *testing.T) {
	in := []*geojson.Feature{
		rawFeature(geojson.Properties{"INSEE_ARM": "75111", "NOM": "Paris 11e Arrondissement"}),
		rawFeature(geojson.Properties{"INSEE_ARM": "75101", "NOM": "Paris 1er Arrondissement"}),
		rawFeature(geojson.Properties{"NOM": "pas un arrondissement"}),
	}

	out := StandardizeArrondissements(in)

	require.Len(t, out, 2)
	assert.Equal(t, "75101", out[0].Properties.MustString("code"))
	assert.Equal(t, "75111", out[1].Properties.MustString("code"))
}

func TestLoadFeatureCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commune.geojson")
	payload := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{"INSEE_COM":"33063"},` +
		`"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	fc, err := LoadFeatureCollection(path)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	_, err = LoadFeatureCollection(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}

func TestBoundaryPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "region.geojson"), BoundaryPath("data", models.LevelRegion))
	assert.Equal(t, filepath.Join("data", "commune.geojson"), BoundaryPath("data", models.LevelCommune))
}
