package testutil

import (
	"context"

	"github.com/vendora/vendora/internal/domain/user"
	ierr "github.com/vendora/vendora/internal/errors"
)

var _ user.Repository = (*InMemoryUserStore)(nil)

// InMemoryUserStore is an in-memory implementation of user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	if _, err := s.GetByEmail(ctx, u.Email); err == nil {
		return ierr.NewErrorf("user with email %s already exists", u.Email).
			WithHint("User already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, u.ID, u)
}

func (s *InMemoryUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	return s.InMemoryStore.Find(ctx, func(_ context.Context, u *user.User) bool {
		return u.Email == email
	}, nil)
}

func (s *InMemoryUserStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}
