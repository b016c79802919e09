package testutil

import (
	"context"

	"github.com/vendora/vendora/internal/types"
)

// SetupContext returns a request-scoped context as the HTTP middleware would build it
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetRequestID(ctx, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))
	return ctx
}

// WithUser returns ctx authenticated as the given user
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = types.SetUserID(ctx, userID)
	return types.SetUserEmail(ctx, email)
}
