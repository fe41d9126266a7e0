package main

import (
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"dvfmap/config"
	"dvfmap/internal/assembler"
	"dvfmap/internal/database"
	"dvfmap/internal/geometry"
	"dvfmap/internal/hierarchy"
	"dvfmap/internal/ingest"
	"dvfmap/internal/models"
	"dvfmap/internal/queue"
	"dvfmap/internal/report"
	"dvfmap/internal/stats"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	cities, err := config.LoadMergedCities(cfg.Paths.CitiesConfig)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load merged cities configuration")
	}

	// Missing required input means every downstream aggregate would be
	// suspect, so the run aborts before producing any output.
	for _, level := range []models.Level{models.LevelRegion, models.LevelDepartment, models.LevelCanton, models.LevelCommune} {
		path := geometry.BoundaryPath(cfg.Paths.BoundaryDir, level)
		if _, err := os.Stat(path); err != nil {
			logger.WithError(err).WithField("path", path).Fatal("Boundary dataset missing")
		}
	}

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create output directory")
	}
	if dir := filepath.Dir(cfg.Paths.StagingDB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create staging directory")
		}
	}

	rep := report.NewCollector()

	// Stage raw lot rows, then collapse multi-lot sales.
	db, err := database.Open(cfg.Paths.StagingDB)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open staging database")
	}
	if err := database.ResetStaging(db); err != nil {
		logger.WithError(err).Fatal("Failed to reset staging schema")
	}

	q := queue.NewRowQueue(cfg.BatchProcessing.QueueSize, logger)
	writer := database.NewStagingWriter(db, q, cfg, rep, logger)
	writer.Start()

	reader := ingest.NewReader(cfg.BatchProcessing.MaxBatchSize, rep, logger)
	ingestErr := reader.IngestFiles(cfg.Paths.TransactionGlob, q)
	q.Close()
	if err := writer.Wait(); err != nil {
		logger.WithError(err).Fatal("Failed to stage transaction rows")
	}
	if ingestErr != nil {
		logger.WithError(ingestErr).Fatal("Failed to ingest transaction files")
	}

	sales, err := database.Reconcile(db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to reconcile sales")
	}
	rep.SetReconciledSales(len(sales))
	logger.WithField("sales", len(sales)).Info("Reconciled transaction set ready")

	// Boundaries and hierarchy.
	regionFC := mustLoad(logger, cfg.Paths.BoundaryDir, models.LevelRegion)
	deptFC := mustLoad(logger, cfg.Paths.BoundaryDir, models.LevelDepartment)
	cantonFC := mustLoad(logger, cfg.Paths.BoundaryDir, models.LevelCanton)
	communeFC := mustLoad(logger, cfg.Paths.BoundaryDir, models.LevelCommune)

	var arrFeatures []*geojson.Feature
	arrPath := filepath.Join(cfg.Paths.BoundaryDir, geometry.ArrondissementFile)
	if _, err := os.Stat(arrPath); err == nil {
		arrFC, err := geometry.LoadFeatureCollection(arrPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load arrondissement boundaries")
		}
		arrFeatures = geometry.StandardizeArrondissements(arrFC.Features)
	} else {
		logger.Info("No arrondissement boundaries, merged cities keep their single outline")
	}

	resolver := hierarchy.FromFeatures(communeFC.Features, cities, logger)

	// Statistics, recomputed from the leaf multiset at every level.
	agg := stats.NewAggregator(cfg, rep, logger)
	filtered := agg.FilterOutliers(sales)
	allStats := agg.Compute(filtered, resolver)
	types := agg.PredominantTypes(filtered, resolver)
	top := stats.TopExpensive(allStats[models.LevelCommune], types, resolver, cfg.Ranking.TopN, cfg.Ranking.TopMinSales)

	// Geometry.
	simp := geometry.NewSimplifier(cfg, rep, logger)

	stdRegions := geometry.Standardize(regionFC.Features, models.LevelRegion)
	stdCommunes := geometry.Standardize(communeFC.Features, models.LevelCommune)

	country := simp.SimplifyLevel(
		[]*geojson.Feature{geometry.CombineToCountry(stdRegions, config.MetropolitanRegions)},
		models.LevelCountry,
	)
	regions := simp.SimplifyLevel(stdRegions, models.LevelRegion)
	departments := simp.SimplifyLevel(geometry.Standardize(deptFC.Features, models.LevelDepartment), models.LevelDepartment)

	cantons := simp.SimplifyLevel(geometry.Standardize(cantonFC.Features, models.LevelCanton), models.LevelCanton)
	cantons = append(cantons, simp.SimplifyLevel(geometry.PseudoCantons(stdCommunes, cities), models.LevelCanton)...)

	communes := geometry.MergeCommuneLayer(
		simp.SimplifyLevel(stdCommunes, models.LevelCommune),
		simp.SimplifyArrondissements(arrFeatures),
		cities,
	)

	// Assembly.
	asm := assembler.New(cfg.Paths.OutputDir, logger)

	levelFeatures := map[models.Level][]*geojson.Feature{
		models.LevelCountry:    country,
		models.LevelRegion:     regions,
		models.LevelDepartment: departments,
		models.LevelCanton:     cantons,
	}
	for level, features := range levelFeatures {
		assembler.JoinStats(features, allStats[level])
		if err := asm.WriteLevel(level, features); err != nil {
			logger.WithError(err).Fatal("Failed to write level output")
		}
	}

	assembler.JoinStats(communes, allStats[models.LevelCommune])
	if err := asm.WriteCommuneShards(communes); err != nil {
		logger.WithError(err).Fatal("Failed to write commune shards")
	}

	if err := asm.WriteStatsCache(allStats); err != nil {
		logger.WithError(err).Fatal("Failed to write stats cache")
	}
	if err := asm.WriteTop(top); err != nil {
		logger.WithError(err).Fatal("Failed to write top ranking")
	}
	if err := asm.WriteReport(rep.Snapshot()); err != nil {
		logger.WithError(err).Fatal("Failed to write quality report")
	}

	snap := rep.Snapshot()
	logger.WithFields(logrus.Fields{
		"rows_read":           snap.RowsRead,
		"parse_defects":       snap.ParseDefects,
		"reconciled_sales":    snap.ReconciledSales,
		"referential_defects": snap.ReferentialDefects,
		"degenerate_geometry": snap.DegenerateGeometry,
	}).Info("Pipeline complete")
}

func mustLoad(logger *logrus.Logger, dir string, level models.Level) *geojson.FeatureCollection {
	fc, err := geometry.LoadFeatureCollection(geometry.BoundaryPath(dir, level))
	if err != nil {
		logger.WithError(err).WithField("level", level).Fatal("Failed to load boundary dataset")
	}
	return fc
}
