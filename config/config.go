package config

import (
	"dvfmap/internal/models"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Input and output paths
	Paths struct {
		// Glob matching the extracted DVF text files (one row per lot)
		TransactionGlob string `env:"DVF_GLOB" envDefault:"data/dvf_extracted/*.txt"`

		// Directory holding the per-level boundary GeoJSON files
		BoundaryDir string `env:"BOUNDARY_DIR" envDefault:"data/boundaries"`

		// SQLite staging database, recreated on every run
		StagingDB string `env:"STAGING_DB" envDefault:"data/staging.db"`

		// Directory the static artifacts are written to
		OutputDir string `env:"OUTPUT_DIR" envDefault:"out"`

		// Merged-cities (PLM) configuration file; built-in defaults when empty
		CitiesConfig string `env:"CITIES_CONFIG" envDefault:""`
	}

	// Price filtering applied before any rollup level
	Filters struct {
		MinPriceM2       float64 `env:"MIN_PRICE_M2" envDefault:"100"`
		MaxPriceM2       float64 `env:"MAX_PRICE_M2" envDefault:"50000"`
		MinSalesForStats int     `env:"MIN_SALES_FOR_STATS" envDefault:"5"`
	}

	// Top-expensive-communes ranking
	Ranking struct {
		TopN int `env:"TOP_N" envDefault:"10"`

		// Communes below this sample size are not ranked
		TopMinSales int `env:"TOP_MIN_SALES" envDefault:"100"`
	}

	// Per-level simplification tolerances, in degrees
	Simplify struct {
		Country        float64 `env:"SIMPLIFY_COUNTRY" envDefault:"0.015"`
		Region         float64 `env:"SIMPLIFY_REGION" envDefault:"0.003"`
		Department     float64 `env:"SIMPLIFY_DEPARTEMENT" envDefault:"0.0015"`
		Canton         float64 `env:"SIMPLIFY_CANTON" envDefault:"0.001"`
		Commune        float64 `env:"SIMPLIFY_COMMUNE" envDefault:"0.00075"`
		Arrondissement float64 `env:"SIMPLIFY_ARRONDISSEMENT" envDefault:"0.0005"`

		// Decimal places kept on output coordinates (~1m at 5)
		CoordinatePrecision int `env:"COORD_PRECISION" envDefault:"5"`
	}

	// Staging batch processing configuration
	BatchProcessing struct {
		// Maximum number of rows to accumulate before staging
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"500"`

		// Number of concurrent staging writers
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`

		// Buffered batches in the staging queue
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"64"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToleranceFor returns the simplification tolerance for a level.
func (c *Config) ToleranceFor(level models.Level) float64 {
	switch level {
	case models.LevelCountry:
		return c.Simplify.Country
	case models.LevelRegion:
		return c.Simplify.Region
	case models.LevelDepartment:
		return c.Simplify.Department
	case models.LevelCanton:
		return c.Simplify.Canton
	case models.LevelCommune:
		return c.Simplify.Commune
	default:
		return c.Simplify.Commune
	}
}
