package testutil

import (
	"context"

	"github.com/vendora/vendora/internal/domain/subscriptionstate"
)

var _ subscriptionstate.Repository = (*InMemorySubscriptionStateStore)(nil)

// InMemorySubscriptionStateStore keeps one state per user. Rows are cloned on the way in
// and out so callers cannot mutate stored state behind the repository's back.
type InMemorySubscriptionStateStore struct {
	*InMemoryStore[*subscriptionstate.SubscriptionState]

	// writes counts Upsert and successful UpdateIfSubscription calls
	writes int
}

func NewInMemorySubscriptionStateStore() *InMemorySubscriptionStateStore {
	return &InMemorySubscriptionStateStore{
		InMemoryStore: NewInMemoryStore[*subscriptionstate.SubscriptionState](),
	}
}

func (s *InMemorySubscriptionStateStore) Get(ctx context.Context, userID string) (*subscriptionstate.SubscriptionState, error) {
	state, err := s.InMemoryStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

func (s *InMemorySubscriptionStateStore) GetByExternalCustomerID(ctx context.Context, customerID string) (*subscriptionstate.SubscriptionState, error) {
	state, err := s.InMemoryStore.Find(ctx,
		func(_ context.Context, st *subscriptionstate.SubscriptionState) bool {
			return st.CustomerID() == customerID
		},
		func(a, b *subscriptionstate.SubscriptionState) bool {
			return a.UpdatedAt.After(b.UpdatedAt)
		},
	)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

func (s *InMemorySubscriptionStateStore) Upsert(ctx context.Context, state *subscriptionstate.SubscriptionState) error {
	s.InMemoryStore.Put(ctx, state.UserID, state.Clone())
	s.writes++
	return nil
}

func (s *InMemorySubscriptionStateStore) UpdateIfSubscription(ctx context.Context, state *subscriptionstate.SubscriptionState, expectedSubscriptionID string) (bool, error) {
	stored, err := s.InMemoryStore.Get(ctx, state.UserID)
	if err != nil || stored.SubscriptionID() != expectedSubscriptionID {
		return false, nil
	}
	s.InMemoryStore.Put(ctx, state.UserID, state.Clone())
	s.writes++
	return true, nil
}

// Seed stores a state without counting it as a write
func (s *InMemorySubscriptionStateStore) Seed(state *subscriptionstate.SubscriptionState) {
	s.InMemoryStore.Put(context.Background(), state.UserID, state.Clone())
}

// Writes returns the number of persisted writes since the last Clear
func (s *InMemorySubscriptionStateStore) Writes() int {
	return s.writes
}

func (s *InMemorySubscriptionStateStore) Clear() {
	s.InMemoryStore.Clear()
	s.writes = 0
}
