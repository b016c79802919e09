package testutil

import (
	"context"

	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient runs transactional closures directly. The in-memory stores
// have no rollback, so a failing closure leaves its partial writes in place.
type MockPostgresClient struct {
	logger *logger.Logger

	// FailWith, when set, is returned by WithTx without running fn
	FailWith error
	// Calls counts WithTx invocations, nested ones included
	Calls int
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.Calls++
	if c.FailWith != nil {
		return c.FailWith
	}
	return fn(ctx)
}
