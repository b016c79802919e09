package service

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/testutil"
	"github.com/vendora/vendora/internal/types"
)

type StateWriterSuite struct {
	testutil.BaseServiceTestSuite
	writer *stateWriter
}

func TestStateWriter(t *testing.T) {
	suite.Run(t, new(StateWriterSuite))
}

func (s *StateWriterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.writer = newStateWriter(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *StateWriterSuite) upgrade(sub string) transition {
	return transition{
		userID:    "user_1",
		eventType: types.HistoryEventUpdate,
		source:    types.HistorySourceWebhook,
		eventID:   "evt_1",
		mutate: func(_, next *subscriptionstate.SubscriptionState) step {
			next.PlanID = lo.ToPtr(s.PlanID("Essencial"))
			next.AttachExternal("cus_1", sub)
			return stepWrite
		},
	}
}

func (s *StateWriterSuite) TestLazilyCreatesStateAndRecordsHistory() {
	res, err := s.writer.apply(s.GetContext(), s.upgrade("sub_1"))
	s.Require().NoError(err)
	s.True(res.Written)
	s.Require().NotNil(res.Entry)
	s.Equal("Gratuito", res.Entry.PreviousPlanName)
	s.Equal("Essencial", res.Entry.NewPlanName)
	s.Equal(types.StateStatusFree, res.Entry.PreviousStatus)
	s.Equal(types.StateStatusActive, res.Entry.NewStatus)
	s.Equal(1, s.GetDB().Calls)

	s.Equal("sub_1", s.State("user_1").SubscriptionID())
}

func (s *StateWriterSuite) TestHistoryOnlyLeavesStateUntouched() {
	_, err := s.writer.apply(s.GetContext(), s.upgrade("sub_1"))
	s.Require().NoError(err)
	writes := s.GetStores().SubscriptionStateRepo.Writes()

	res, err := s.writer.apply(s.GetContext(), transition{
		userID:    "user_1",
		eventType: types.HistoryEventPaymentFailed,
		source:    types.HistorySourceWebhook,
		newStatus: "incomplete",
		mutate: func(_, next *subscriptionstate.SubscriptionState) step {
			next.IsActive = false
			return stepHistoryOnly
		},
	})
	s.Require().NoError(err)
	s.False(res.Written)
	s.Equal("incomplete", res.Entry.NewStatus)
	s.True(res.Entry.NewIsActive)
	s.Equal(writes, s.GetStores().SubscriptionStateRepo.Writes())
	s.Len(s.GetStores().SubscriptionHistoryRepo.All("user_1"), 2)
}

func (s *StateWriterSuite) TestSkipWritesNothing() {
	res, err := s.writer.apply(s.GetContext(), transition{
		userID: "user_1",
		mutate: func(_, _ *subscriptionstate.SubscriptionState) step { return stepSkip },
	})
	s.Require().NoError(err)
	s.False(res.Written)
	s.Nil(res.Entry)
	s.Equal(0, s.GetStores().SubscriptionStateRepo.Count())
}

func (s *StateWriterSuite) TestCompareAndSwapLosesToConcurrentChange() {
	_, err := s.writer.apply(s.GetContext(), s.upgrade("sub_2"))
	s.Require().NoError(err)

	t := s.upgrade("sub_3")
	t.expectedSubscriptionID = lo.ToPtr("sub_1")
	res, err := s.writer.apply(s.GetContext(), t)
	s.Require().NoError(err)
	s.False(res.Written)
	s.Nil(res.Entry)
	s.Equal("sub_2", s.State("user_1").SubscriptionID())
}

func (s *StateWriterSuite) TestTransactionErrorIsReturned() {
	s.GetDB().FailWith = context.DeadlineExceeded
	defer func() { s.GetDB().FailWith = nil }()

	_, err := s.writer.apply(s.GetContext(), s.upgrade("sub_1"))
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(0, s.GetStores().SubscriptionStateRepo.Count())
}

func (s *StateWriterSuite) TestPlanNameOverrideOnlyAppliesToWrites() {
	t := s.upgrade("sub_1")
	t.newPlanName = "Unknown Plan"
	res, err := s.writer.apply(s.GetContext(), t)
	s.Require().NoError(err)
	s.Equal("Unknown Plan", res.Entry.NewPlanName)
}
