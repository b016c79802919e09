package registration

import (
	"context"
	"time"
)

type Repository interface {
	// UpsertByEmail inserts the registration or refreshes the existing one for the same email.
	// The stored token is kept on conflict; the returned value is the stored row.
	UpsertByEmail(ctx context.Context, reg *PendingRegistration) (*PendingRegistration, error)
	GetByToken(ctx context.Context, token string) (*PendingRegistration, error)
	GetByEmail(ctx context.Context, email string) (*PendingRegistration, error)
	// MarkUsed sets used_at if it is still null. It reports whether this call redeemed the token.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
}
