package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	"github.com/sirupsen/logrus"

	"dvfmap/config"
	"dvfmap/internal/models"
	"dvfmap/internal/report"
)

// Simplifier reduces boundary vertex counts per level under the
// configured tolerance and rounds coordinates for output size.
type Simplifier struct {
	logger    *logrus.Logger
	report    *report.Collector
	cfg       *config.Config
	precision int
}

func NewSimplifier(cfg *config.Config, rep *report.Collector, logger *logrus.Logger) *Simplifier {
	return &Simplifier{
		logger:    logger,
		report:    rep,
		cfg:       cfg,
		precision: cfg.Simplify.CoordinatePrecision,
	}
}

// SimplifyLevel simplifies standardized features at the level's
// tolerance. Units whose shape collapses below three distinct vertices
// are excluded from the result and counted; their statistics are still
// emitted elsewhere.
func (s *Simplifier) SimplifyLevel(features []*geojson.Feature, level models.Level) []*geojson.Feature {
	return s.simplifyAt(features, s.cfg.ToleranceFor(level), string(level))
}

// SimplifyArrondissements simplifies municipal arrondissement features
// at their own, finest tolerance.
func (s *Simplifier) SimplifyArrondissements(features []*geojson.Feature) []*geojson.Feature {
	return s.simplifyAt(features, s.cfg.Simplify.Arrondissement, "arrondissement")
}

func (s *Simplifier) simplifyAt(features []*geojson.Feature, tolerance float64, label string) []*geojson.Feature {
	dp := simplify.DouglasPeucker(tolerance)

	out := make([]*geojson.Feature, 0, len(features))
	dropped := 0
	for _, f := range features {
		if f.Geometry == nil {
			continue
		}

		geom := dp.Simplify(orb.Clone(f.Geometry))
		geom = roundGeometry(geom, s.precision)
		geom, ok := cleanGeometry(geom)
		if !ok {
			code := f.Properties.MustString("code", "")
			s.report.AddDegenerateUnit(code)
			s.logger.WithFields(logrus.Fields{
				"level": label,
				"code":  code,
			}).Warn("Simplification collapsed geometry, unit excluded")
			dropped++
			continue
		}

		nf := geojson.NewFeature(geom)
		nf.Properties = f.Properties.Clone()
		out = append(out, nf)
	}

	s.logger.WithFields(logrus.Fields{
		"level":     label,
		"features":  len(out),
		"dropped":   dropped,
		"tolerance": tolerance,
	}).Info("Simplified layer")
	return out
}

// roundGeometry rounds every coordinate to the given decimal precision
// (5 decimals is roughly one meter).
func roundGeometry(g orb.Geometry, precision int) orb.Geometry {
	factor := math.Pow(10, float64(precision))

	switch g := g.(type) {
	case orb.Point:
		return roundPoint(g, factor)
	case orb.MultiPoint:
		for i := range g {
			g[i] = roundPoint(g[i], factor)
		}
		return g
	case orb.LineString:
		for i := range g {
			g[i] = roundPoint(g[i], factor)
		}
		return g
	case orb.Ring:
		for i := range g {
			g[i] = roundPoint(g[i], factor)
		}
		return g
	case orb.Polygon:
		for i := range g {
			g[i] = roundGeometry(g[i], precision).(orb.Ring)
		}
		return g
	case orb.MultiPolygon:
		for i := range g {
			g[i] = roundGeometry(g[i], precision).(orb.Polygon)
		}
		return g
	case orb.Collection:
		for i := range g {
			g[i] = roundGeometry(g[i], precision)
		}
		return g
	default:
		return g
	}
}

func roundPoint(p orb.Point, factor float64) orb.Point {
	return orb.Point{
		math.Round(p[0]*factor) / factor,
		math.Round(p[1]*factor) / factor,
	}
}

// cleanGeometry drops rings that degenerated during simplification or
// rounding. A polygon losing its outer ring, or a multipolygon losing
// every member, makes the whole unit degenerate.
func cleanGeometry(g orb.Geometry) (orb.Geometry, bool) {
	switch g := g.(type) {
	case orb.Polygon:
		return cleanPolygon(g)
	case orb.MultiPolygon:
		kept := make(orb.MultiPolygon, 0, len(g))
		for _, poly := range g {
			if cleaned, ok := cleanPolygon(poly); ok {
				kept = append(kept, cleaned.(orb.Polygon))
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		return kept, true
	default:
		return g, true
	}
}

func cleanPolygon(p orb.Polygon) (orb.Geometry, bool) {
	kept := make(orb.Polygon, 0, len(p))
	for i, ring := range p {
		cleaned, ok := cleanRing(ring)
		if !ok {
			// Losing an inner ring only loses a hole.
			if i == 0 {
				return nil, false
			}
			continue
		}
		kept = append(kept, cleaned)
	}
	if len(kept) == 0 {
		return nil, false
	}
	return kept, true
}

// cleanRing removes consecutive duplicate points introduced by
// rounding, re-closes the ring, and rejects rings with fewer than
// three distinct vertices or a crossing introduced by simplification.
func cleanRing(r orb.Ring) (orb.Ring, bool) {
	if len(r) == 0 {
		return nil, false
	}

	deduped := make(orb.Ring, 0, len(r))
	for _, p := range r {
		if len(deduped) > 0 && deduped[len(deduped)-1] == p {
			continue
		}
		deduped = append(deduped, p)
	}
	// Drop the closing point for the distinct count, then re-close.
	if len(deduped) > 1 && deduped[0] == deduped[len(deduped)-1] {
		deduped = deduped[:len(deduped)-1]
	}
	if len(deduped) < 3 {
		return nil, false
	}
	deduped = append(deduped, deduped[0])

	if ringSelfIntersects(deduped) {
		return nil, false
	}
	return deduped, true
}

// ringSelfIntersects reports whether any two non-adjacent segments of
// the closed ring properly cross.
func ringSelfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // closed ring, last point repeats the first
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			// Skip adjacent segments, including the wrap-around pair.
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsCross(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a, b, c, d orb.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}
