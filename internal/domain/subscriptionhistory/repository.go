package subscriptionhistory

import "context"

// Repository is append-only; entries are never updated or deleted
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	// ListByUser returns the user's entries newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error)
}
