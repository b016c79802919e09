package postgres

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
)

const migrationsTable = "schema_migrations"

// Migrate applies the embedded goose migrations. With dryRun it only reports pending versions.
func (db *DB) Migrate(ctx context.Context, migrations fs.FS, dryRun bool) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log: db.logger})
	goose.SetTableName(migrationsTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	if dryRun {
		if err := goose.StatusContext(ctx, db.DB.DB, "."); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to read migration status").
				Mark(ierr.ErrDatabase)
		}
		return nil
	}

	if err := goose.UpContext(ctx, db.DB.DB, "."); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply migrations").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// gooseLogger bridges goose's Printf-style logging to the application logger
type gooseLogger struct {
	log *logger.Logger
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(fmt.Sprintf(format, v...))
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.log.Info(fmt.Sprintf(format, v...))
}
