package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/testutil"
)

type UserServiceSuite struct {
	testutil.BaseServiceTestSuite
	service UserService
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewUserService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *UserServiceSuite) TestDeleteAccountRemovesUserAndState() {
	u := s.CreateUser("pedro@example.com")
	state := subscriptionstate.NewDefault(u.ID)
	state.PlanID = lo.ToPtr(s.PlanID("Essencial"))
	s.SeedState(state)

	s.Require().NoError(s.service.DeleteAccount(s.GetContext(), u.ID))

	_, err := s.GetStores().UserRepo.GetByID(s.GetContext(), u.ID)
	s.True(ierr.IsNotFound(err))
	_, err = s.GetStores().SubscriptionStateRepo.Get(s.GetContext(), u.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *UserServiceSuite) TestDeleteAccountWithoutState() {
	u := s.CreateUser("pedro@example.com")
	s.NoError(s.service.DeleteAccount(s.GetContext(), u.ID))
}

func (s *UserServiceSuite) TestDeleteUnknownAccount() {
	err := s.service.DeleteAccount(s.GetContext(), "user_missing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}
