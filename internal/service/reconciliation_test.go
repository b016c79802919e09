package service

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	"github.com/vendora/vendora/internal/testutil"
	"github.com/vendora/vendora/internal/types"
)

type ReconciliationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ReconciliationService
	user    *user.User
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceSuite))
}

func (s *ReconciliationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewReconciliationService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.user = s.CreateUser("joao@example.com")
}

func (s *ReconciliationServiceSuite) days(n int) int64 {
	return s.GetNow().Add(time.Duration(n) * 24 * time.Hour).Unix()
}

func (s *ReconciliationServiceSuite) TestActiveSubscriptionIsProjected() {
	s.GetStripe().AddCustomer("cus_1", "joao@example.com")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_profissional_monthly_v3", stripe.SubscriptionStatusActive, s.days(20)))

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.True(resp.Subscribed)
	s.Equal("Profissional", resp.PlanName)
	s.Require().NotNil(resp.SubscriptionEnd)
	s.Equal(s.days(20), resp.SubscriptionEnd.Unix())
	s.False(lo.FromPtr(resp.CancelAtPeriodEnd))

	state := s.State(s.user.ID)
	s.Equal("sub_1", state.SubscriptionID())
	s.Equal("cus_1", state.CustomerID())
	s.Equal(types.PaymentMethodStripe, state.PaymentMethod)

	history := s.GetStores().SubscriptionHistoryRepo.All(s.user.ID)
	s.Require().Len(history, 1)
	s.Equal(types.HistorySourceReconciliation, history[0].Source)
	s.Equal(types.HistoryEventSubscribe, history[0].EventType)
}

func (s *ReconciliationServiceSuite) TestUnchangedStateWritesNoHistory() {
	s.GetStripe().AddCustomer("cus_1", "joao@example.com")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_essencial_monthly_v3", stripe.SubscriptionStatusActive, s.days(20)))

	s.service.Reconcile(s.GetContext(), s.user.ID)
	writes := s.GetStores().SubscriptionStateRepo.Writes()
	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.True(resp.Subscribed)
	s.Equal(writes, s.GetStores().SubscriptionStateRepo.Writes())
	s.Len(s.GetStores().SubscriptionHistoryRepo.All(s.user.ID), 1)
}

func (s *ReconciliationServiceSuite) TestCanceledWithRemainingAccessStaysSubscribed() {
	s.GetStripe().AddCustomer("cus_1", "joao@example.com")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_essencial_annual_v3", stripe.SubscriptionStatusCanceled, s.days(5)))

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.True(resp.Subscribed)
	s.Equal("Essencial", resp.PlanName)
	s.True(lo.FromPtr(resp.CancelAtPeriodEnd))
}

func (s *ReconciliationServiceSuite) TestCanceledInThePastDeactivates() {
	state := subscriptionstate.NewDefault(s.user.ID)
	state.PlanID = lo.ToPtr(s.PlanID("Essencial"))
	state.AttachExternal("cus_1", "sub_1")
	s.SeedState(state)

	s.GetStripe().AddCustomer("cus_1", "joao@example.com")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_essencial_monthly_v3", stripe.SubscriptionStatusCanceled, s.days(-10)))

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.False(resp.Subscribed)
	s.Equal("Gratuito", resp.PlanName)

	stored := s.State(s.user.ID)
	s.True(s.GetCatalog().IsFree(stored.PlanID))
	s.False(stored.IsActive)
	s.False(stored.HasSubscription())
	s.Equal("cus_1", stored.CustomerID())

	history := s.GetStores().SubscriptionHistoryRepo.All(s.user.ID)
	s.Require().Len(history, 1)
	s.Equal(types.HistoryEventCancel, history[0].EventType)
	s.Equal("Essencial", history[0].PreviousPlanName)
}

func (s *ReconciliationServiceSuite) TestNoProviderCustomerMeansFree() {
	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.False(resp.Subscribed)
	s.Equal("Gratuito", resp.PlanName)
	s.Nil(resp.SubscriptionEnd)

	// first sight persists the default row without auditing it
	s.Equal(1, s.GetStores().SubscriptionStateRepo.Count())
	s.Empty(s.GetStores().SubscriptionHistoryRepo.All(s.user.ID))
}

func (s *ReconciliationServiceSuite) TestProviderErrorFailsClosed() {
	state := subscriptionstate.NewDefault(s.user.ID)
	state.PlanID = lo.ToPtr(s.PlanID("Profissional"))
	state.AttachExternal("cus_1", "sub_1")
	s.SeedState(state)
	s.GetStripe().Err = errors.New("tls handshake timeout")

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.False(resp.Subscribed)
	s.Equal("Gratuito", resp.PlanName)
	// the stored state is left for the next successful check
	s.True(state.SameAs(s.State(s.user.ID)))
}

func (s *ReconciliationServiceSuite) TestBypassShortCircuitsProvider() {
	state := subscriptionstate.NewDefault(s.user.ID)
	state.PlanID = lo.ToPtr(s.PlanID("Empresarial"))
	state.BypassExternalCheck = true
	state.PaymentMethod = types.PaymentMethodManual
	s.SeedState(state)
	s.GetStripe().Err = errors.New("must not be called")

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.True(resp.Subscribed)
	s.Equal("Empresarial", resp.PlanName)
	s.Empty(s.GetStores().SubscriptionHistoryRepo.All(s.user.ID))
}

func (s *ReconciliationServiceSuite) TestPastDueSubscriptionIsNotEligible() {
	s.GetStripe().AddCustomer("cus_1", "joao@example.com")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_essencial_monthly_v3", stripe.SubscriptionStatusPastDue, s.days(3)))

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.False(resp.Subscribed)
	s.False(s.State(s.user.ID).IsActive)
}

func (s *ReconciliationServiceSuite) TestUnknownUserFailsClosed() {
	resp := s.service.Reconcile(s.GetContext(), "user_missing")
	s.False(resp.Subscribed)
	s.Equal("Gratuito", resp.PlanName)
}

func (s *ReconciliationServiceSuite) TestUnmappedPriceIsSubscribedUnknownPlan() {
	s.GetStripe().AddCustomer("cus_1", "joao@example.com")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_not_in_catalog", stripe.SubscriptionStatusActive, s.days(20)))

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.True(resp.Subscribed)
	s.Equal(plan.UnknownPlanName, resp.PlanName)
	s.Require().NotNil(resp.SubscriptionEnd)
	s.Equal(s.days(20), resp.SubscriptionEnd.Unix())

	state := s.State(s.user.ID)
	s.Nil(state.PlanID)
	s.Equal("price_not_in_catalog", lo.FromPtr(state.UnmappedPriceID))
	s.Equal(types.PaymentMethodStripe, state.PaymentMethod)
	s.Equal("sub_1", state.SubscriptionID())

	history := s.GetStores().SubscriptionHistoryRepo.All(s.user.ID)
	s.Require().Len(history, 1)
	s.Equal(plan.UnknownPlanName, history[0].NewPlanName)
	s.Equal(types.StateStatusActive, history[0].NewStatus)

	again := s.service.Reconcile(s.GetContext(), s.user.ID)
	s.Equal(plan.UnknownPlanName, again.PlanName)
	s.Len(s.GetStores().SubscriptionHistoryRepo.All(s.user.ID), 1)
}

func (s *ReconciliationServiceSuite) TestUnmappedPlanIsClearedWhenNothingIsEligible() {
	state := subscriptionstate.NewDefault(s.user.ID)
	state.AssignUnmappedPrice("price_not_in_catalog")
	state.AttachExternal("cus_1", "sub_1")
	s.SeedState(state)
	s.GetStripe().AddCustomer("cus_1", "joao@example.com")

	resp := s.service.Reconcile(s.GetContext(), s.user.ID)

	s.False(resp.Subscribed)
	s.Equal("Gratuito", resp.PlanName)
	stored := s.State(s.user.ID)
	s.False(stored.HasUnmappedPlan())
	s.True(s.GetCatalog().IsFree(stored.PlanID))
}
