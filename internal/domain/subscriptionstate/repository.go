package subscriptionstate

import "context"

// Repository persists SubscriptionState rows keyed by user id
type Repository interface {
	// Get returns ErrNotFound when the user has no row yet
	Get(ctx context.Context, userID string) (*SubscriptionState, error)
	// GetByExternalCustomerID returns ErrNotFound when no row carries the customer id
	GetByExternalCustomerID(ctx context.Context, customerID string) (*SubscriptionState, error)
	// Upsert writes the full row, inserting on first use
	Upsert(ctx context.Context, state *SubscriptionState) error
	// UpdateIfSubscription writes the row only if the stored external subscription id still
	// equals expectedSubscriptionID. It reports whether the write happened.
	UpdateIfSubscription(ctx context.Context, state *SubscriptionState, expectedSubscriptionID string) (bool, error)
	// Delete removes the row; deleting a missing row is not an error
	Delete(ctx context.Context, userID string) error
}
