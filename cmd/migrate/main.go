package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
	"github.com/vendora/vendora/migrations"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration status without applying anything")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Infow("Running database migrations", "dry_run", *dryRun)
	if err := db.Migrate(ctx, migrations.FS, *dryRun); err != nil {
		logger.Fatalw("Migration failed", "error", err)
	}
	logger.Info("Migration completed successfully")
}
