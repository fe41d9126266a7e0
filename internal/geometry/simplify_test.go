package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dvfmap/config"
	"dvfmap/internal/models"
	"dvfmap/internal/report"
)

func testSimplifier() (*Simplifier, *report.Collector) {
	cfg := &config.Config{}
	cfg.Simplify.Country = 0.015
	cfg.Simplify.Region = 0.003
	cfg.Simplify.Department = 0.0015
	cfg.Simplify.Canton = 0.001
	cfg.Simplify.Commune = 0.00075
	cfg.Simplify.Arrondissement = 0.0005
	cfg.Simplify.CoordinatePrecision = 5
	rep := report.NewCollector()
	return NewSimplifier(cfg, rep, logrus.New()), rep
}

func polygonFeature(code string, ring orb.Ring) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties = geojson.Properties{"code": code, "name": code}
	return f
}

func vertexCount(g orb.Geometry) int {
	switch g := g.(type) {
	case orb.Polygon:
		n := 0
		for _, r := range g {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range g {
			n += vertexCount(p)
		}
		return n
	default:
		return 0
	}
}

func TestSimplifier_ReducesVertexCount(t *testing.T) {
	s, _ := testSimplifier()

	// A unit square with near-collinear noise along the bottom edge.
	ring := orb.Ring{
		{0, 0}, {0.25, 0.0001}, {0.5, 0.0002}, {0.75, 0.0001},
		{1, 0}, {1, 1}, {0, 1}, {0, 0},
	}
	in := []*geojson.Feature{polygonFeature("33063", ring)}

	out := s.SimplifyLevel(in, models.LevelCommune)

	require.Len(t, out, 1)
	assert.Less(t, vertexCount(out[0].Geometry), len(ring))
	assert.GreaterOrEqual(t, vertexCount(out[0].Geometry), 4)
	assert.Equal(t, "33063", out[0].Properties.MustString("code"))
}

func TestSimplifier_DoesNotMutateInput(t *testing.T) {
	s, _ := testSimplifier()

	ring := orb.Ring{
		{0, 0}, {0.5, 0.0001}, {1, 0}, {1, 1}, {0, 1}, {0, 0},
	}
	in := []*geojson.Feature{polygonFeature("01001", ring)}

	s.SimplifyLevel(in, models.LevelCommune)

	assert.Len(t, in[0].Geometry.(orb.Polygon)[0], 6, "source geometry must stay intact")
	assert.Equal(t, orb.Point{0.5, 0.0001}, in[0].Geometry.(orb.Polygon)[0][1])
}

func TestSimplifier_RoundsCoordinates(t *testing.T) {
	s, _ := testSimplifier()

	ring := orb.Ring{
		{2.123456789, 48.987654321}, {3.111111111, 48.987654321},
		{3.111111111, 49.5}, {2.123456789, 49.5}, {2.123456789, 48.987654321},
	}
	out := s.SimplifyLevel([]*geojson.Feature{polygonFeature("60001", ring)}, models.LevelCommune)

	require.Len(t, out, 1)
	got := out[0].Geometry.(orb.Polygon)[0]
	assert.Equal(t, orb.Point{2.12346, 48.98765}, got[0])
	assert.Equal(t, orb.Point{3.11111, 48.98765}, got[1])
}

func TestSimplifier_CollapsedUnitExcludedAndCounted(t *testing.T) {
	s, rep := testSimplifier()

	// Every vertex rounds to the same point at five decimals.
	tiny := orb.Ring{
		{2.0000001, 48.0000001}, {2.0000002, 48.0000001},
		{2.0000002, 48.0000002}, {2.0000001, 48.0000001},
	}
	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	in := []*geojson.Feature{
		polygonFeature("98801", tiny),
		polygonFeature("33063", square),
	}

	out := s.SimplifyLevel(in, models.LevelCommune)

	require.Len(t, out, 1)
	assert.Equal(t, "33063", out[0].Properties.MustString("code"))

	snap := rep.Snapshot()
	assert.Equal(t, 1, snap.DegenerateGeometry)
	assert.Equal(t, []string{"98801"}, snap.DegenerateUnits)
}

func TestSimplifier_SkipsNilGeometry(t *testing.T) {
	s, rep := testSimplifier()

	f := geojson.NewFeature(nil)
	f.Properties = geojson.Properties{"code": "00000"}
	out := s.SimplifyLevel([]*geojson.Feature{f}, models.LevelRegion)

	assert.Empty(t, out)
	assert.Equal(t, 0, rep.Snapshot().DegenerateGeometry)
}

func TestCleanRing(t *testing.T) {
	// Consecutive duplicates from rounding are removed and the ring
	// stays closed.
	r, ok := cleanRing(orb.Ring{{0, 0}, {0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 0}})
	require.True(t, ok)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, r)

	_, ok = cleanRing(orb.Ring{{0, 0}, {1, 0}, {0, 0}})
	assert.False(t, ok, "fewer than three distinct vertices")

	_, ok = cleanRing(orb.Ring{})
	assert.False(t, ok)
}

func TestRingSelfIntersects(t *testing.T) {
	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	assert.False(t, ringSelfIntersects(square))

	bowtie := orb.Ring{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}
	assert.True(t, ringSelfIntersects(bowtie))
}
