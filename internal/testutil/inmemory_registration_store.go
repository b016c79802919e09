package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/vendora/vendora/internal/domain/registration"
)

var _ registration.Repository = (*InMemoryRegistrationStore)(nil)

// InMemoryRegistrationStore is keyed by email, matching the unique constraint of the table
type InMemoryRegistrationStore struct {
	*InMemoryStore[*registration.PendingRegistration]
}

func NewInMemoryRegistrationStore() *InMemoryRegistrationStore {
	return &InMemoryRegistrationStore{
		InMemoryStore: NewInMemoryStore[*registration.PendingRegistration](),
	}
}

// UpsertByEmail keeps the id, token and redemption of an existing row
func (s *InMemoryRegistrationStore) UpsertByEmail(ctx context.Context, reg *registration.PendingRegistration) (*registration.PendingRegistration, error) {
	stored := lo.FromPtr(reg)
	if existing, err := s.InMemoryStore.Get(ctx, reg.Email); err == nil {
		stored.ID = existing.ID
		stored.Token = existing.Token
		stored.UsedAt = existing.UsedAt
		stored.CreatedAt = existing.CreatedAt
	}
	stored.UpdatedAt = time.Now().UTC()

	s.InMemoryStore.Put(ctx, stored.Email, &stored)
	out := stored
	return &out, nil
}

func (s *InMemoryRegistrationStore) GetByToken(ctx context.Context, token string) (*registration.PendingRegistration, error) {
	reg, err := s.InMemoryStore.Find(ctx, func(_ context.Context, r *registration.PendingRegistration) bool {
		return r.Token == token
	}, nil)
	if err != nil {
		return nil, err
	}
	out := *reg
	return &out, nil
}

func (s *InMemoryRegistrationStore) GetByEmail(ctx context.Context, email string) (*registration.PendingRegistration, error) {
	reg, err := s.InMemoryStore.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	out := *reg
	return &out, nil
}

func (s *InMemoryRegistrationStore) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	reg, err := s.InMemoryStore.Find(ctx, func(_ context.Context, r *registration.PendingRegistration) bool {
		return r.ID == id
	}, nil)
	if err != nil || reg.IsUsed() {
		return false, nil
	}
	updated := *reg
	updated.UsedAt = lo.ToPtr(at)
	updated.UpdatedAt = at
	s.InMemoryStore.Put(ctx, updated.Email, &updated)
	return true, nil
}
