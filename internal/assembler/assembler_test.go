package assembler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dvfmap/internal/models"
)

func feature(code, name string) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	f.Properties = geojson.Properties{"code": code, "name": name}
	return f
}

func floatPtr(v float64) *float64 { return &v }

func readCollection(t *testing.T, path string) *geojson.FeatureCollection {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	return fc
}

func TestJoinStats(t *testing.T) {
	features := []*geojson.Feature{
		feature("33063", "Bordeaux"),
		feature("01001", "L'Abergement-Clemenciat"),
		feature("29083", "Ile-de-Sein"),
	}
	aggs := map[string]models.StatsAggregate{
		"33063": {
			MedianPriceM2: floatPtr(4500),
			Q25:           floatPtr(3800),
			Q75:           floatPtr(5200),
			NSales:        320,
		},
		// Below the sample floor: count only.
		"01001": {NSales: 2},
	}

	JoinStats(features, aggs)

	bordeaux := features[0].Properties
	assert.Equal(t, 4500.0, bordeaux["price_m2"])
	assert.Equal(t, 3800.0, bordeaux["q25"])
	assert.Equal(t, 5200.0, bordeaux["q75"])
	assert.Equal(t, 320, bordeaux["n_sales"])

	thin := features[1].Properties
	assert.Equal(t, 2, thin["n_sales"])
	_, hasPrice := thin["price_m2"]
	assert.False(t, hasPrice, "below-floor units must not publish prices")

	noData := features[2].Properties
	_, hasSales := noData["n_sales"]
	assert.False(t, hasSales, "units without sales keep bare code and name")
}

func TestWriteLevel_SortedAndValid(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, logrus.New())

	features := []*geojson.Feature{
		feature("84", "Auvergne-Rhone-Alpes"),
		feature("11", "Ile-de-France"),
		feature("75", "Nouvelle-Aquitaine"),
	}
	require.NoError(t, a.WriteLevel(models.LevelRegion, features))

	fc := readCollection(t, filepath.Join(dir, "regions.geojson"))
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "11", fc.Features[0].Properties.MustString("code"))
	assert.Equal(t, "75", fc.Features[1].Properties.MustString("code"))
	assert.Equal(t, "84", fc.Features[2].Properties.MustString("code"))

	_, err := os.Stat(filepath.Join(dir, "regions.geojson.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file must not survive the write")
}

func TestWriteCommuneShards_PartitionedByDepartment(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, logrus.New())

	features := []*geojson.Feature{
		feature("33063", "Bordeaux"),
		feature("33039", "Begles"),
		feature("2A004", "Ajaccio"),
		feature("97101", "Les Abymes"),
	}
	require.NoError(t, a.WriteCommuneShards(features))

	shard := readCollection(t, filepath.Join(dir, CommunesDir, "33.geojson"))
	require.Len(t, shard.Features, 2)
	assert.Equal(t, "33039", shard.Features[0].Properties.MustString("code"))

	corse := readCollection(t, filepath.Join(dir, CommunesDir, "2A.geojson"))
	assert.Len(t, corse.Features, 1)

	// Overseas departments use their three-character prefix.
	overseas := readCollection(t, filepath.Join(dir, CommunesDir, "971.geojson"))
	assert.Len(t, overseas.Features, 1)

	data, err := os.ReadFile(filepath.Join(dir, CommunesDir, "index.json"))
	require.NoError(t, err)
	var index struct {
		Departments []string       `json:"departments"`
		Counts      map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(data, &index))
	assert.Equal(t, []string{"2A", "33", "971"}, index.Departments)
	assert.Equal(t, 2, index.Counts["33"])
	assert.Equal(t, 1, index.Counts["971"])
}

func TestWriteStatsCache(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, logrus.New())

	all := map[models.Level]map[string]models.StatsAggregate{
		models.LevelCommune: {
			"33063": {MedianPriceM2: floatPtr(4500), Q25: floatPtr(3800), Q75: floatPtr(5200), NSales: 320},
			"01001": {NSales: 2},
		},
	}
	require.NoError(t, a.WriteStatsCache(all))

	data, err := os.ReadFile(filepath.Join(dir, "stats_cache.json"))
	require.NoError(t, err)

	var decoded map[string]map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	bordeaux := decoded["commune"]["33063"]
	assert.Equal(t, 4500.0, bordeaux["median_price_m2"])
	assert.Nil(t, decoded["commune"]["01001"]["median_price_m2"])
}

func TestWriteTop(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, logrus.New())

	entries := []models.TopEntry{
		{City: "Paris", Code: "75056", MedianPriceM2: 10500, Volume: 25000, PropertyType: "Appartement"},
	}
	require.NoError(t, a.WriteTop(entries))

	data, err := os.ReadFile(filepath.Join(dir, "top_expensive.json"))
	require.NoError(t, err)

	var decoded map[string][]models.TopEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded["data"], 1)
	assert.Equal(t, "75056", decoded["data"][0].Code)
}

func TestWriteJSON_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, writeJSON(path, map[string]int{"a": 1}, false))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temporary file")

	// Marshal failures leave nothing behind.
	err = writeJSON(filepath.Join(dir, "bad.json"), func() {}, false)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "bad.json"))
	assert.True(t, os.IsNotExist(statErr))
}
