package service

import (
	"context"

	"github.com/vendora/vendora/internal/interfaces"
)

type UserService = interfaces.UserService

type userService struct {
	ServiceParams
}

func NewUserService(params ServiceParams) UserService {
	return &userService{ServiceParams: params}
}

// DeleteAccount removes the user and its subscription state together.
// History rows stay for audit.
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.UserRepo.GetByID(ctx, userID); err != nil {
			return err
		}
		if err := s.SubscriptionStateRepo.Delete(ctx, userID); err != nil {
			return err
		}
		return s.UserRepo.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("account deleted", "user_id", userID)
	return nil
}
