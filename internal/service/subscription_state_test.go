package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	"github.com/vendora/vendora/internal/testutil"
	"github.com/vendora/vendora/internal/types"
)

type SubscriptionStateServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionStateService
	user    *user.User
	end     time.Time
}

func TestSubscriptionStateService(t *testing.T) {
	suite.Run(t, new(SubscriptionStateServiceSuite))
}

func (s *SubscriptionStateServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	notifications, _ := newTestNotificationService(&s.BaseServiceTestSuite, params)
	registrations := NewRegistrationService(params, notifications)
	s.service = NewSubscriptionStateService(params, registrations, notifications)

	s.user = s.CreateUser("maria@example.com")
	s.GetStripe().AddCustomer("cus_1", "maria@example.com")
	s.end = s.GetNow().Add(30 * 24 * time.Hour).Truncate(time.Second)
}

// seedPaid stores an active paid state linked to cus_1 and the given subscription
func (s *SubscriptionStateServiceSuite) seedPaid(planName, subscriptionID string) *subscriptionstate.SubscriptionState {
	state := subscriptionstate.NewDefault(s.user.ID)
	state.PlanID = lo.ToPtr(s.PlanID(planName))
	state.AttachExternal("cus_1", subscriptionID)
	state.SubscriptionEnd = lo.ToPtr(s.end)
	s.SeedState(state)
	return state
}

func (s *SubscriptionStateServiceSuite) checkout(eventID, subscriptionID, priceID string) *dto.CheckoutCompletedInput {
	return &dto.CheckoutCompletedInput{
		EventID:         eventID,
		CustomerID:      "cus_1",
		CustomerEmail:   "maria@example.com",
		SubscriptionID:  subscriptionID,
		PriceID:         priceID,
		SubscriptionEnd: lo.ToPtr(s.end),
		RawPayload:      json.RawMessage(`{"id":"cs_1"}`),
	}
}

func (s *SubscriptionStateServiceSuite) history() []*historyView {
	entries := s.GetStores().SubscriptionHistoryRepo.All(s.user.ID)
	return lo.Map(entries, func(e *subscriptionhistory.Entry, _ int) *historyView {
		return &historyView{
			EventType:        e.EventType,
			Source:           e.Source,
			PreviousPlanName: e.PreviousPlanName,
			NewPlanName:      e.NewPlanName,
			NewStatus:        e.NewStatus,
			NewIsActive:      e.NewIsActive,
			ExternalEventID:  lo.FromPtr(e.ExternalEventID),
		}
	})
}

func (s *SubscriptionStateServiceSuite) TestCheckoutAttachesSubscriptionToExistingUser() {
	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_essencial_monthly_v3"))
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Equal(s.PlanID("Essencial"), lo.FromPtr(state.PlanID))
	s.True(state.IsActive)
	s.Equal(types.PaymentMethodStripe, state.PaymentMethod)
	s.Equal("sub_1", state.SubscriptionID())
	s.Equal("cus_1", state.CustomerID())
	s.Require().NotNil(state.SubscriptionEnd)
	s.True(state.SubscriptionEnd.Equal(s.end))

	s.Equal([]*historyView{{
		EventType:        types.HistoryEventSubscribe,
		Source:           types.HistorySourceWebhook,
		PreviousPlanName: "Gratuito",
		NewPlanName:      "Essencial",
		NewStatus:        types.StateStatusActive,
		NewIsActive:      true,
		ExternalEventID:  "evt_1",
	}}, s.history())
}

func (s *SubscriptionStateServiceSuite) TestCheckoutLegacyPriceResolvesToCurrentPlan() {
	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_essencial_monthly_v1"))
	s.Require().NoError(err)

	s.Equal(s.PlanID("Essencial"), lo.FromPtr(s.State(s.user.ID).PlanID))
}

func (s *SubscriptionStateServiceSuite) TestCheckoutReplayConvergesAndAppendsHistory() {
	in := s.checkout("evt_1", "sub_1", "price_profissional_monthly_v3")

	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), in))
	first := s.State(s.user.ID)

	for i := 0; i < 2; i++ {
		s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), in))
	}

	s.True(first.SameAs(s.State(s.user.ID)))
	s.Len(s.history(), 3)
	s.Empty(s.GetStripe().Canceled())
}

func (s *SubscriptionStateServiceSuite) TestCheckoutCancelsSupersededSubscription() {
	s.seedPaid("Essencial", "sub_old")

	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_2", "sub_new", "price_profissional_annual_v3"))
	s.Require().NoError(err)

	s.Equal([]string{"sub_old"}, s.GetStripe().Canceled())
	state := s.State(s.user.ID)
	s.Equal("sub_new", state.SubscriptionID())
	s.Equal(s.PlanID("Profissional"), lo.FromPtr(state.PlanID))
}

func (s *SubscriptionStateServiceSuite) TestCheckoutCancelFailureDoesNotBlockNewSubscription() {
	s.seedPaid("Essencial", "sub_old")
	s.GetStripe().Err = errors.New("connection reset")

	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_2", "sub_new", "price_profissional_monthly_v3"))
	s.Require().NoError(err)

	s.Equal("sub_new", s.State(s.user.ID).SubscriptionID())
}

func (s *SubscriptionStateServiceSuite) TestCheckoutClearsBypass() {
	state := s.seedPaid("Empresarial", "")
	state.ExternalSubscriptionID = nil
	state.BypassExternalCheck = true
	state.PaymentMethod = types.PaymentMethodManual
	s.SeedState(state)

	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_essencial_monthly_v3"))
	s.Require().NoError(err)

	stored := s.State(s.user.ID)
	s.False(stored.BypassExternalCheck)
	s.Equal(types.PaymentMethodStripe, stored.PaymentMethod)
}

func (s *SubscriptionStateServiceSuite) TestCheckoutUnknownPriceOnFreeUserIsPaidUnknownPlan() {
	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_retired_2019"))
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Nil(state.PlanID)
	s.True(state.HasUnmappedPlan())
	s.Equal("price_retired_2019", lo.FromPtr(state.UnmappedPriceID))
	s.True(state.IsActive)
	s.Equal(types.PaymentMethodStripe, state.PaymentMethod)
	s.Equal("sub_1", state.SubscriptionID())

	s.Equal([]*historyView{{
		EventType:        types.HistoryEventSubscribe,
		Source:           types.HistorySourceWebhook,
		PreviousPlanName: "Gratuito",
		NewPlanName:      plan.UnknownPlanName,
		NewStatus:        types.StateStatusActive,
		NewIsActive:      true,
		ExternalEventID:  "evt_1",
	}}, s.history())

	resp := NewReconciliationService(newTestServiceParams(&s.BaseServiceTestSuite)).(*reconciliationService).response(state)
	s.True(resp.Subscribed)
	s.Equal(plan.UnknownPlanName, resp.PlanName)
}

func (s *SubscriptionStateServiceSuite) TestCheckoutUnknownPriceReplacesPaidPlan() {
	s.seedPaid("Profissional", "sub_1")

	err := s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_retired_2019"))
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Nil(state.PlanID)
	s.True(state.HasUnmappedPlan())

	history := s.history()
	s.Require().Len(history, 1)
	s.Equal("Profissional", history[0].PreviousPlanName)
	s.Equal(plan.UnknownPlanName, history[0].NewPlanName)
}

func (s *SubscriptionStateServiceSuite) TestKnownPriceClearsUnmappedPlan() {
	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_retired_2019")))

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:         "evt_2",
		CustomerID:      "cus_1",
		SubscriptionID:  "sub_1",
		Status:          string(stripe.SubscriptionStatusActive),
		PriceID:         "price_essencial_monthly_v3",
		SubscriptionEnd: lo.ToPtr(s.end),
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Equal(s.PlanID("Essencial"), lo.FromPtr(state.PlanID))
	s.False(state.HasUnmappedPlan())

	history := s.history()
	s.Require().Len(history, 2)
	s.Equal(plan.UnknownPlanName, history[1].PreviousPlanName)
	s.Equal("Essencial", history[1].NewPlanName)
}

func (s *SubscriptionStateServiceSuite) TestDeleteClearsUnmappedPlan() {
	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_retired_2019")))
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_retired_2019", stripe.SubscriptionStatusCanceled, 0))

	err := s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_2",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.True(s.GetCatalog().IsFree(state.PlanID))
	s.False(state.HasUnmappedPlan())
	s.False(state.IsActive)
}

func (s *SubscriptionStateServiceSuite) TestCheckoutWithoutAccountParksPendingRegistration() {
	in := s.checkout("evt_9", "sub_9", "price_essencial_monthly_v3")
	in.CustomerID = "cus_9"
	in.CustomerEmail = "Novo@Example.com"

	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), in))

	reg, err := s.GetStores().RegistrationRepo.GetByEmail(s.GetContext(), "novo@example.com")
	s.Require().NoError(err)
	s.Equal("Essencial", reg.PlanName)
	s.Equal(s.PlanID("Essencial"), lo.FromPtr(reg.PlanID))
	s.Equal("sub_9", lo.FromPtr(reg.ExternalSubscriptionID))
	s.NotEmpty(reg.Token)

	s.Len(s.GetPubSub().GetMessages(s.GetConfig().Notifier.Topic), 1)
	// no account, no state row
	s.Equal(0, s.GetStores().SubscriptionStateRepo.Count())
	_, err = s.GetStores().UserRepo.GetByEmail(s.GetContext(), "novo@example.com")
	s.Error(err)
}

func (s *SubscriptionStateServiceSuite) TestCheckoutRedeliveryWithoutAccountKeepsTokenAndSendsOnce() {
	in := s.checkout("evt_9", "sub_9", "price_essencial_monthly_v3")
	in.CustomerID = "cus_9"
	in.CustomerEmail = "novo@example.com"

	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), in))
	first, err := s.GetStores().RegistrationRepo.GetByEmail(s.GetContext(), "novo@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), in))
	second, err := s.GetStores().RegistrationRepo.GetByEmail(s.GetContext(), "novo@example.com")
	s.Require().NoError(err)

	s.Equal(first.Token, second.Token)
	s.Len(s.GetPubSub().GetMessages(s.GetConfig().Notifier.Topic), 1)
}

func (s *SubscriptionStateServiceSuite) TestCheckoutWithoutSubscriptionIsIgnored() {
	in := s.checkout("evt_1", "", "")
	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), in))

	s.Equal(0, s.GetStores().SubscriptionStateRepo.Count())
	s.Empty(s.history())
}

func (s *SubscriptionStateServiceSuite) TestSubscriptionUpdatedChangesPlan() {
	s.seedPaid("Essencial", "sub_1")

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:           "evt_3",
		CustomerID:        "cus_1",
		SubscriptionID:    "sub_1",
		Status:            string(stripe.SubscriptionStatusActive),
		PriceID:           "price_profissional_monthly_v3",
		SubscriptionEnd:   lo.ToPtr(s.end),
		CancelAtPeriodEnd: true,
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Equal(s.PlanID("Profissional"), lo.FromPtr(state.PlanID))
	s.True(state.CancelAtPeriodEnd)

	history := s.history()
	s.Require().Len(history, 1)
	s.Equal(types.HistoryEventUpdate, history[0].EventType)
	s.Equal("Essencial", history[0].PreviousPlanName)
	s.Equal("Profissional", history[0].NewPlanName)
}

func (s *SubscriptionStateServiceSuite) TestSubscriptionPastDueDowngradesAndDeactivates() {
	s.seedPaid("Essencial", "sub_1")

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:        "evt_4",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         string(stripe.SubscriptionStatusPastDue),
		PriceID:        "price_essencial_monthly_v3",
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.True(s.GetCatalog().IsFree(state.PlanID))
	s.False(state.IsActive)
	s.Equal("sub_1", state.SubscriptionID())

	history := s.history()
	s.Require().Len(history, 1)
	s.Equal(types.HistoryEventPaymentFailed, history[0].EventType)
	s.Equal(string(stripe.SubscriptionStatusPastDue), history[0].NewStatus)
	s.Equal("Gratuito", history[0].NewPlanName)
	s.False(history[0].NewIsActive)
}

func (s *SubscriptionStateServiceSuite) TestPastDueOfSupersededSubscriptionOnlyRecordsHistory() {
	before := s.seedPaid("Profissional", "sub_new")

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:        "evt_5",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_old",
		Status:         string(stripe.SubscriptionStatusUnpaid),
	})
	s.Require().NoError(err)

	s.True(before.SameAs(s.State(s.user.ID)))
	history := s.history()
	s.Require().Len(history, 1)
	s.Equal("Profissional", history[0].NewPlanName)
	s.True(history[0].NewIsActive)
}

func (s *SubscriptionStateServiceSuite) TestLateUpdateOfSupersededSubscriptionOnlyRecordsHistory() {
	before := s.seedPaid("Profissional", "sub_new")

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:         "evt_5",
		CustomerID:      "cus_1",
		SubscriptionID:  "sub_old",
		Status:          string(stripe.SubscriptionStatusActive),
		PriceID:         "price_essencial_monthly_v3",
		SubscriptionEnd: lo.ToPtr(s.end),
	})
	s.Require().NoError(err)

	s.True(before.SameAs(s.State(s.user.ID)))
	history := s.history()
	s.Require().Len(history, 1)
	s.Equal(types.HistoryEventUpdate, history[0].EventType)
	s.Equal("Profissional", history[0].NewPlanName)

	// the real subscription's deletion still finds it stored
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_new", "cus_1", "price_profissional_monthly_v3", stripe.SubscriptionStatusCanceled, 0))
	err = s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_6",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_new",
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.True(s.GetCatalog().IsFree(state.PlanID))
	s.False(state.IsActive)
	s.False(state.HasSubscription())
}

func (s *SubscriptionStateServiceSuite) TestCreatedEventAttachesNewSubscription() {
	s.seedPaid("Essencial", "sub_old")

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:         "evt_5",
		CustomerID:      "cus_1",
		SubscriptionID:  "sub_new",
		Status:          string(stripe.SubscriptionStatusActive),
		PriceID:         "price_profissional_monthly_v3",
		SubscriptionEnd: lo.ToPtr(s.end),
		Created:         true,
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Equal("sub_new", state.SubscriptionID())
	s.Equal(s.PlanID("Profissional"), lo.FromPtr(state.PlanID))
}

func (s *SubscriptionStateServiceSuite) TestIncompleteStatusOnlyRecordsHistory() {
	before := s.seedPaid("Essencial", "sub_1")

	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:        "evt_6",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         string(stripe.SubscriptionStatusIncomplete),
	})
	s.Require().NoError(err)

	s.True(before.SameAs(s.State(s.user.ID)))
	history := s.history()
	s.Require().Len(history, 1)
	s.Equal(string(stripe.SubscriptionStatusIncomplete), history[0].NewStatus)
}

func (s *SubscriptionStateServiceSuite) TestUnresolvableCustomerIsDropped() {
	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:        "evt_7",
		CustomerID:     "cus_unknown",
		SubscriptionID: "sub_x",
		Status:         string(stripe.SubscriptionStatusActive),
		PriceID:        "price_essencial_monthly_v3",
	})
	s.Require().NoError(err)
	s.Equal(0, s.GetStores().SubscriptionStateRepo.Count())
}

func (s *SubscriptionStateServiceSuite) TestUserResolvedThroughProviderCustomerEmail() {
	err := s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:        "evt_8",
		Created:        true,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         string(stripe.SubscriptionStatusTrialing),
		PriceID:        "price_essencial_annual_v3",
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.Equal(s.PlanID("Essencial"), lo.FromPtr(state.PlanID))
	s.Equal(types.HistoryEventSubscribe, s.history()[0].EventType)
}

func (s *SubscriptionStateServiceSuite) TestDeleteResetsToFree() {
	s.seedPaid("Essencial", "sub_1")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_essencial_monthly_v3", stripe.SubscriptionStatusCanceled, 0))

	err := s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_10",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.True(s.GetCatalog().IsFree(state.PlanID))
	s.False(state.IsActive)
	s.False(state.HasSubscription())
	s.Empty(state.CustomerID())
	s.Nil(state.SubscriptionEnd)

	history := s.history()
	s.Require().Len(history, 1)
	s.Equal(types.HistoryEventCancel, history[0].EventType)
	s.Equal(types.StateStatusCanceled, history[0].NewStatus)
}

func (s *SubscriptionStateServiceSuite) TestDeleteIgnoredWhileAnotherSubscriptionIsLive() {
	before := s.seedPaid("Essencial", "sub_1")
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_1", "cus_1", "price_essencial_monthly_v3", stripe.SubscriptionStatusCanceled, 0))
	s.GetStripe().AddSubscription(testutil.NewSubscription("sub_2", "cus_1", "price_profissional_monthly_v3", stripe.SubscriptionStatusTrialing, s.end.Unix()))

	err := s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_11",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	s.True(before.SameAs(s.State(s.user.ID)))
	s.Empty(s.history())
}

func (s *SubscriptionStateServiceSuite) TestStaleDeleteForSupersededSubscriptionIsNoop() {
	before := s.seedPaid("Profissional", "sub_2")

	err := s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_12",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	s.True(before.SameAs(s.State(s.user.ID)))
	s.Empty(s.history())
}

func (s *SubscriptionStateServiceSuite) TestDeleteKeepsManualPlanOfBypassUser() {
	state := s.seedPaid("Empresarial", "sub_1")
	state.BypassExternalCheck = true
	s.SeedState(state)

	err := s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_13",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	stored := s.State(s.user.ID)
	s.Equal(s.PlanID("Empresarial"), lo.FromPtr(stored.PlanID))
	s.True(stored.IsActive)
	s.True(stored.BypassExternalCheck)
	s.Equal(types.PaymentMethodManual, stored.PaymentMethod)
	s.False(stored.HasSubscription())
}

func (s *SubscriptionStateServiceSuite) TestDeleteProviderErrorIsReturned() {
	s.seedPaid("Essencial", "sub_1")
	s.GetStripe().Err = errors.New("timeout")

	err := s.service.HandleSubscriptionDeleted(s.GetContext(), &dto.SubscriptionDeletedInput{
		EventID:        "evt_14",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Error(err)
}

func (s *SubscriptionStateServiceSuite) TestInvoicePaymentFailedDeactivates() {
	s.seedPaid("Essencial", "sub_1")

	err := s.service.HandleInvoicePaymentFailed(s.GetContext(), &dto.InvoicePaymentFailedInput{
		EventID:        "evt_15",
		CustomerID:     "cus_1",
		CustomerEmail:  "maria@example.com",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	state := s.State(s.user.ID)
	s.False(state.IsActive)
	s.True(s.GetCatalog().IsFree(state.PlanID))
	s.Equal("sub_1", state.SubscriptionID())

	history := s.history()
	s.Require().Len(history, 1)
	s.Equal(types.HistoryEventInvoicePaymentFailed, history[0].EventType)
	s.Equal(types.StateStatusFailed, history[0].NewStatus)
}

func (s *SubscriptionStateServiceSuite) TestBypassSurvivesInvoicePaymentFailure() {
	state := s.seedPaid("Empresarial", "sub_1")
	state.BypassExternalCheck = true
	s.SeedState(state)

	err := s.service.HandleInvoicePaymentFailed(s.GetContext(), &dto.InvoicePaymentFailedInput{
		EventID:        "evt_16",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	s.Require().NoError(err)

	stored := s.State(s.user.ID)
	s.True(stored.IsActive)
	s.Equal(s.PlanID("Empresarial"), lo.FromPtr(stored.PlanID))
	s.Len(s.history(), 1)
}

func (s *SubscriptionStateServiceSuite) TestRefundQueuesMarketingTag() {
	err := s.service.HandleChargeRefunded(s.GetContext(), &dto.ChargeRefundedInput{
		EventID:    "evt_17",
		ChargeID:   "ch_1",
		CustomerID: "cus_1",
		Amount:     4990,
		Currency:   "brl",
	})
	s.Require().NoError(err)

	msgs := s.GetPubSub().GetMessages(s.GetConfig().Notifier.Topic)
	s.Require().Len(msgs, 1)
	var n Notification
	s.Require().NoError(json.Unmarshal(msgs[0].Payload, &n))
	s.Equal(types.NotificationMarketingTag, n.Kind)
	s.Equal("maria@example.com", n.Email)
	s.Equal("reembolsado", n.Tag)
	s.Equal(0, s.GetStores().SubscriptionStateRepo.Count())
}

func (s *SubscriptionStateServiceSuite) TestRefundNeverFailsTheWebhook() {
	s.GetPubSub().FailWith = errors.New("broker down")
	defer func() { s.GetPubSub().FailWith = nil }()

	err := s.service.HandleChargeRefunded(s.GetContext(), &dto.ChargeRefundedInput{
		EventID:       "evt_18",
		ChargeID:      "ch_2",
		CustomerEmail: "maria@example.com",
	})
	s.NoError(err)
}

func (s *SubscriptionStateServiceSuite) TestListHistoryNewestFirst() {
	s.Require().NoError(s.service.HandleCheckoutCompleted(s.GetContext(), s.checkout("evt_1", "sub_1", "price_essencial_monthly_v3")))
	s.Require().NoError(s.service.HandleSubscriptionChanged(s.GetContext(), &dto.SubscriptionChangedInput{
		EventID:        "evt_2",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         string(stripe.SubscriptionStatusActive),
		PriceID:        "price_profissional_monthly_v3",
	}))

	resp, err := s.service.ListHistory(s.GetContext(), s.user.ID, &dto.ListSubscriptionHistoryRequest{})
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 2)
	s.Equal("evt_2", lo.FromPtr(resp.Items[0].ExternalEventID))
	s.Equal("evt_1", lo.FromPtr(resp.Items[1].ExternalEventID))

	resp, err = s.service.ListHistory(s.GetContext(), s.user.ID, &dto.ListSubscriptionHistoryRequest{Limit: 1})
	s.Require().NoError(err)
	s.Len(resp.Items, 1)

	_, err = s.service.ListHistory(s.GetContext(), s.user.ID, &dto.ListSubscriptionHistoryRequest{Limit: 500})
	s.Error(err)
}

// historyView is the comparable part of a history entry
type historyView struct {
	EventType        types.HistoryEventType
	Source           types.HistorySource
	PreviousPlanName string
	NewPlanName      string
	NewStatus        string
	NewIsActive      bool
	ExternalEventID  string
}
