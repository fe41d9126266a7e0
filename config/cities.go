package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// MergedCity is a city whose municipal arrondissements are folded back
// into the parent commune before hierarchy construction, so city-level
// statistics cover the whole city rather than fragments.
type MergedCity struct {
	Name            string   `json:"name"`
	Code            string   `json:"code"`
	CantonCode      string   `json:"canton_code"`
	Arrondissements []string `json:"arrondissements"`
}

// MergedCities is the full merged-cities configuration for one run.
type MergedCities struct {
	Cities []MergedCity `json:"cities"`
}

// DefaultMergedCities returns the built-in PLM (Paris, Lyon, Marseille)
// configuration matching the DVF arrondissement code ranges.
func DefaultMergedCities() *MergedCities {
	return &MergedCities{
		Cities: []MergedCity{
			{
				Name:            "Paris",
				Code:            "75056",
				CantonCode:      "75_PARIS",
				Arrondissements: codeRange("75", 101, 120),
			},
			{
				Name:            "Lyon",
				Code:            "69123",
				CantonCode:      "69_LYON",
				Arrondissements: codeRange("69", 381, 389),
			},
			{
				Name:            "Marseille",
				Code:            "13055",
				CantonCode:      "13_MARSEILLE",
				Arrondissements: codeRange("13", 201, 216),
			},
		},
	}
}

// LoadMergedCities reads the merged-cities configuration from file,
// falling back to the built-in defaults when path is empty.
func LoadMergedCities(path string) (*MergedCities, error) {
	if path == "" {
		return DefaultMergedCities(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cities config: %w", err)
	}

	var cities MergedCities
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("failed to parse cities config: %w", err)
	}
	return &cities, nil
}

// ArrondissementToCommune returns the arrondissement to parent commune
// mapping across all configured cities.
func (m *MergedCities) ArrondissementToCommune() map[string]string {
	mapping := make(map[string]string)
	for _, city := range m.Cities {
		for _, arr := range city.Arrondissements {
			mapping[arr] = city.Code
		}
	}
	return mapping
}

// ByCode returns the merged city with the given commune code, or nil.
func (m *MergedCities) ByCode(code string) *MergedCity {
	for i := range m.Cities {
		if m.Cities[i].Code == code {
			return &m.Cities[i]
		}
	}
	return nil
}

func codeRange(dept string, from, to int) []string {
	codes := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		codes = append(codes, fmt.Sprintf("%s%03d", dept, i))
	}
	return codes
}
