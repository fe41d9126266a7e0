package hierarchy

import (
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"dvfmap/config"
	"dvfmap/internal/models"
)

// CommuneInfo carries the administrative attributes of one commune as
// read from the boundary dataset.
type CommuneInfo struct {
	Insee  string
	Dept   string
	Canton string
	Name   string
}

// Ancestry is the unit code of one commune at every level.
type Ancestry struct {
	Commune    string
	Canton     string
	Department string
	Region     string
	Country    string
}

// UnitAt returns the code of the level's unit, or "" when the commune
// has no unit at that level (communes without a canton).
func (a Ancestry) UnitAt(level models.Level) string {
	switch level {
	case models.LevelCountry:
		return a.Country
	case models.LevelRegion:
		return a.Region
	case models.LevelDepartment:
		return a.Department
	case models.LevelCanton:
		return a.Canton
	case models.LevelCommune:
		return a.Commune
	default:
		return ""
	}
}

// Resolver maps commune codes to their ancestors at every level.
// Arrondissements of merged cities are reassigned to the parent
// commune before any lookup.
type Resolver struct {
	logger          *logrus.Logger
	arrToCommune    map[string]string
	communeToCanton map[string]string
	communeToDept   map[string]string
	names           map[string]string
}

// NewResolver builds the hierarchy from the commune attributes and the
// merged-cities configuration.
func NewResolver(communes []CommuneInfo, cities *config.MergedCities, logger *logrus.Logger) *Resolver {
	r := &Resolver{
		logger:          logger,
		arrToCommune:    cities.ArrondissementToCommune(),
		communeToCanton: make(map[string]string, len(communes)),
		communeToDept:   make(map[string]string, len(communes)),
		names:           make(map[string]string, len(communes)),
	}

	for _, c := range communes {
		dept := c.Dept
		if dept == "" {
			dept = DepartmentOf(c.Insee)
		}
		r.communeToDept[c.Insee] = dept
		if c.Canton != "" {
			r.communeToCanton[c.Insee] = dept + "_" + c.Canton
		}
		if c.Name != "" {
			r.names[c.Insee] = c.Name
		}
	}

	// Merged cities resolve to a pseudo-canton covering the whole city.
	for _, city := range cities.Cities {
		r.communeToDept[city.Code] = DepartmentOf(city.Code)
		r.communeToCanton[city.Code] = city.CantonCode
		r.names[city.Code] = city.Name
	}

	logger.WithField("communes", len(r.communeToDept)).Info("Hierarchy built")
	return r
}

// FromFeatures extracts commune attributes from the raw commune
// boundary features and builds the resolver.
func FromFeatures(features []*geojson.Feature, cities *config.MergedCities, logger *logrus.Logger) *Resolver {
	communes := make([]CommuneInfo, 0, len(features))
	for _, f := range features {
		insee := property(f, "INSEE_COM")
		if insee == "" {
			continue
		}
		communes = append(communes, CommuneInfo{
			Insee:  insee,
			Dept:   property(f, "INSEE_DEP"),
			Canton: property(f, "INSEE_CAN"),
			Name:   property(f, "NOM"),
		})
	}
	return NewResolver(communes, cities, logger)
}

// Resolve returns the ancestry of a commune code. The second return is
// false when the code, after arrondissement reassignment, is absent
// from the boundary hierarchy; such sales are excluded from every
// aggregate, never coerced to a default unit.
func (r *Resolver) Resolve(insee string) (Ancestry, bool) {
	if parent, ok := r.arrToCommune[insee]; ok {
		insee = parent
	}

	dept, ok := r.communeToDept[insee]
	if !ok {
		return Ancestry{}, false
	}

	return Ancestry{
		Commune:    insee,
		Canton:     r.communeToCanton[insee],
		Department: dept,
		Region:     config.DeptToRegion[dept],
		Country:    models.CountryCode,
	}, true
}

// Name returns the display name of a commune, falling back to the code.
func (r *Resolver) Name(insee string) string {
	if name, ok := r.names[insee]; ok {
		return name
	}
	return insee
}

// DepartmentOf derives the department code from an INSEE commune code:
// three characters for overseas codes, two otherwise.
func DepartmentOf(insee string) string {
	if strings.HasPrefix(insee, "97") || strings.HasPrefix(insee, "98") {
		if len(insee) >= 3 {
			return insee[:3]
		}
	}
	if len(insee) >= 2 {
		return insee[:2]
	}
	return insee
}

func property(f *geojson.Feature, key string) string {
	if f.Properties == nil {
		return ""
	}
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}
