package postgres

import (
	"context"

	"github.com/vendora/vendora/internal/logger"
	sentryService "github.com/vendora/vendora/internal/sentry"
	"go.uber.org/fx"
)

// IClient is the transaction boundary used by services
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// Module provides the database pool and the instrumented transaction client
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
		fx.Invoke(func(lc fx.Lifecycle, db *DB) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					db.Close()
					return nil
				},
			})
		}),
	)
}

// NewClient returns the pool as an IClient wrapped with Sentry spans
func NewClient(db *DB, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return NewSentryClient(db, sentry, logger)
}
