package testutil

import (
	"context"

	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
)

var _ subscriptionhistory.Repository = (*InMemorySubscriptionHistoryStore)(nil)

type InMemorySubscriptionHistoryStore struct {
	*InMemoryStore[*subscriptionhistory.Entry]
	seq map[string]int
}

func NewInMemorySubscriptionHistoryStore() *InMemorySubscriptionHistoryStore {
	return &InMemorySubscriptionHistoryStore{
		InMemoryStore: NewInMemoryStore[*subscriptionhistory.Entry](),
		seq:           make(map[string]int),
	}
}

func (s *InMemorySubscriptionHistoryStore) Append(ctx context.Context, entry *subscriptionhistory.Entry) error {
	if err := s.InMemoryStore.Create(ctx, entry.ID, entry); err != nil {
		return err
	}
	s.seq[entry.ID] = len(s.seq)
	return nil
}

// ListByUser returns newest first; entries appended in the same instant keep insertion order
func (s *InMemorySubscriptionHistoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]*subscriptionhistory.Entry, error) {
	return s.InMemoryStore.List(ctx,
		func(_ context.Context, e *subscriptionhistory.Entry) bool {
			return e.UserID == userID
		},
		func(a, b *subscriptionhistory.Entry) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return s.seq[a.ID] > s.seq[b.ID]
		},
		limit,
	), nil
}

// All returns every entry of the user, oldest first
func (s *InMemorySubscriptionHistoryStore) All(userID string) []*subscriptionhistory.Entry {
	entries, _ := s.ListByUser(context.Background(), userID, 0)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

func (s *InMemorySubscriptionHistoryStore) Clear() {
	s.InMemoryStore.Clear()
	s.seq = make(map[string]int)
}
