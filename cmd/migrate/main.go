package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/journalkeep/journal-backend/internal/bootstrap"
	"github.com/journalkeep/journal-backend/internal/config"
	"github.com/journalkeep/journal-backend/internal/migration"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	purge := flag.Bool("purge", false, "run one retention purge after migrating and exit")
	flag.Parse()

	config.LoadDotEnv()
	pkglogger.InitStructured(os.Getenv("APP_ENV"))
	log := pkglogger.WithComponent("migrate")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := bootstrap.OpenDB(cfg, logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get underlying DB")
	}
	defer sqlDB.Close()

	start := time.Now()
	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Dur("elapsed", time.Since(start)).Int("tables", len(migration.Models())).Msg("schema up to date")

	if !*purge {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	retention := bootstrap.NewRetentionService(db, cfg, bootstrap.NewObjectStore(cfg), bootstrap.NewEntryIndexer(ctx, cfg))
	result, err := retention.Purge(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("purge failed")
	}
	log.Info().
		Time("cutoff", result.Cutoff).
		Int("versions_deleted", result.VersionsDeleted).
		Int("entries_deleted", result.EntriesDeleted).
		Int("failures", result.Failures).
		Msg("purge finished")
}
