package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	ierr "github.com/vendora/vendora/internal/errors"
	stripeint "github.com/vendora/vendora/internal/integration/stripe"
	"github.com/vendora/vendora/internal/interfaces"
	"github.com/vendora/vendora/internal/types"
)

type SubscriptionStateService = interfaces.SubscriptionStateService

type subscriptionStateService struct {
	ServiceParams
	writer        *stateWriter
	registrations interfaces.RegistrationService
	notifications interfaces.NotificationService
}

func NewSubscriptionStateService(
	params ServiceParams,
	registrations interfaces.RegistrationService,
	notifications interfaces.NotificationService,
) SubscriptionStateService {
	return &subscriptionStateService{
		ServiceParams: params,
		writer:        newStateWriter(params),
		registrations: registrations,
		notifications: notifications,
	}
}

// HandleCheckoutCompleted attaches a freshly paid subscription to the payer's account,
// or parks it as a pending registration when the payer has no account yet.
func (s *subscriptionStateService) HandleCheckoutCompleted(ctx context.Context, in *dto.CheckoutCompletedInput) error {
	if in.SubscriptionID == "" {
		s.Logger.Infow("checkout without subscription, ignoring", "event_id", in.EventID)
		return nil
	}

	email, err := s.customerEmail(ctx, in.CustomerID, in.CustomerEmail)
	if err != nil {
		return err
	}
	if email == "" {
		s.Logger.Warnw("checkout payer has no email, dropping event",
			"event_id", in.EventID,
			"customer_id", in.CustomerID,
		)
		return nil
	}

	mapping, known := s.resolvePrice(in.EventID, in.PriceID)

	u, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return err
		}
		var planID *uuid.UUID
		if known {
			planID = lo.ToPtr(mapping.PlanID)
		}
		_, err := s.registrations.CreatePending(ctx, &registration.PendingInput{
			Email:          email,
			PlanID:         planID,
			PriceID:        in.PriceID,
			PlanName:       mapping.PlanName,
			CustomerID:     in.CustomerID,
			SubscriptionID: in.SubscriptionID,
			EventID:        in.EventID,
		})
		return err
	}

	s.cancelSuperseded(ctx, u.ID, in.SubscriptionID)

	_, err = s.writer.apply(ctx, transition{
		userID:      u.ID,
		eventType:   types.HistoryEventSubscribe,
		source:      types.HistorySourceWebhook,
		eventID:     in.EventID,
		raw:         in.RawPayload,
		newPlanName: mapping.PlanName,
		mutate: func(_, next *subscriptionstate.SubscriptionState) step {
			assignPrice(next, mapping, known)
			next.AttachExternal(in.CustomerID, in.SubscriptionID)
			next.BypassExternalCheck = false
			next.IsActive = true
			next.SubscriptionEnd = in.SubscriptionEnd
			next.CancelAtPeriodEnd = in.CancelAtPeriodEnd
			return stepWrite
		},
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("checkout applied",
		"event_id", in.EventID,
		"user_id", u.ID,
		"subscription_id", in.SubscriptionID,
		"plan_name", mapping.PlanName,
	)
	return nil
}

// cancelSuperseded cancels a different subscription still attached to the user so the
// payer is not billed twice. Failures are logged; the new subscription wins regardless.
func (s *subscriptionStateService) cancelSuperseded(ctx context.Context, userID, newSubscriptionID string) {
	current, err := s.SubscriptionStateRepo.Get(ctx, userID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Warnw("could not load state to check superseded subscription", "user_id", userID, "error", err)
		}
		return
	}
	if !current.HasSubscription() || current.SubscriptionID() == newSubscriptionID {
		return
	}

	old := current.SubscriptionID()
	if err := s.Stripe.CancelSubscription(ctx, old); err != nil {
		s.Logger.Warnw("failed to cancel superseded subscription",
			"user_id", userID,
			"subscription_id", old,
			"new_subscription_id", newSubscriptionID,
			"error", err,
		)
		s.Sentry.CaptureException(err)
	}
}

// HandleSubscriptionChanged applies created and updated events
func (s *subscriptionStateService) HandleSubscriptionChanged(ctx context.Context, in *dto.SubscriptionChangedInput) error {
	userID, err := s.resolveUser(ctx, in.CustomerID, "")
	if err != nil {
		return err
	}
	if userID == "" {
		s.Logger.Warnw("no local user for subscription event, dropping",
			"event_id", in.EventID,
			"customer_id", in.CustomerID,
			"subscription_id", in.SubscriptionID,
		)
		return nil
	}

	mapping, known := s.resolvePrice(in.EventID, in.PriceID)
	eventType := lo.Ternary(in.Created, types.HistoryEventSubscribe, types.HistoryEventUpdate)

	t := transition{
		userID:    userID,
		eventType: eventType,
		source:    types.HistorySourceWebhook,
		eventID:   in.EventID,
		raw:       in.RawPayload,
	}

	switch {
	case stripeint.IsLiveStatus(in.Status):
		t.newPlanName = mapping.PlanName
		t.mutate = func(prev, next *subscriptionstate.SubscriptionState) step {
			// a late update for a replaced subscription must not re-attach it
			if !in.Created && supersededBy(prev, in.SubscriptionID) {
				return stepHistoryOnly
			}
			assignPrice(next, mapping, known)
			next.AttachExternal(in.CustomerID, in.SubscriptionID)
			next.IsActive = true
			next.SubscriptionEnd = in.SubscriptionEnd
			next.CancelAtPeriodEnd = in.CancelAtPeriodEnd
			return stepWrite
		}

	case stripeint.IsDelinquentStatus(in.Status):
		t.eventType = types.HistoryEventPaymentFailed
		t.newStatus = in.Status
		t.mutate = func(prev, next *subscriptionstate.SubscriptionState) step {
			if prev.BypassExternalCheck || supersededBy(prev, in.SubscriptionID) {
				return stepHistoryOnly
			}
			next.AssignPlan(s.Catalog.FreePlan().ID)
			next.AttachExternal(in.CustomerID, in.SubscriptionID)
			next.IsActive = false
			return stepWrite
		}

	default:
		t.newStatus = in.Status
		t.mutate = func(_, _ *subscriptionstate.SubscriptionState) step {
			return stepHistoryOnly
		}
	}

	res, err := s.writer.apply(ctx, t)
	if err != nil {
		return err
	}

	s.Logger.Infow("subscription event applied",
		"event_id", in.EventID,
		"user_id", userID,
		"subscription_id", in.SubscriptionID,
		"status", in.Status,
		"state_written", res.Written,
	)
	return nil
}

// HandleSubscriptionDeleted resets the user to the free plan unless another subscription
// still grants access or the deleted one is no longer the stored one.
func (s *subscriptionStateService) HandleSubscriptionDeleted(ctx context.Context, in *dto.SubscriptionDeletedInput) error {
	userID, err := s.resolveUser(ctx, in.CustomerID, "")
	if err != nil {
		return err
	}
	if userID == "" {
		s.Logger.Warnw("no local user for deleted subscription, dropping",
			"event_id", in.EventID,
			"customer_id", in.CustomerID,
		)
		return nil
	}

	if in.CustomerID != "" {
		subs, err := s.Stripe.ListSubscriptions(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if sub.ID != in.SubscriptionID && stripeint.IsLive(sub) {
				s.Logger.Infow("customer still holds a live subscription, ignoring delete",
					"event_id", in.EventID,
					"user_id", userID,
					"deleted_subscription_id", in.SubscriptionID,
					"live_subscription_id", sub.ID,
				)
				return nil
			}
		}
	}

	res, err := s.writer.apply(ctx, transition{
		userID:                 userID,
		eventType:              types.HistoryEventCancel,
		source:                 types.HistorySourceWebhook,
		eventID:                in.EventID,
		raw:                    in.RawPayload,
		expectedSubscriptionID: lo.ToPtr(in.SubscriptionID),
		newStatus:              types.StateStatusCanceled,
		mutate: func(prev, next *subscriptionstate.SubscriptionState) step {
			if prev.SubscriptionID() != in.SubscriptionID {
				return stepSkip
			}
			next.ClearExternal()
			next.CancelAtPeriodEnd = false
			next.SubscriptionEnd = nil
			if prev.BypassExternalCheck {
				// manual plans outlive the provider subscription
				next.PaymentMethod = types.PaymentMethodManual
				return stepWrite
			}
			next.AssignPlan(s.Catalog.FreePlan().ID)
			next.IsActive = false
			return stepWrite
		},
	})
	if err != nil {
		return err
	}

	if !res.Written {
		s.Logger.Infow("deleted subscription is not the stored one, ignoring",
			"event_id", in.EventID,
			"user_id", userID,
			"subscription_id", in.SubscriptionID,
		)
		return nil
	}

	s.Logger.Infow("subscription canceled", "event_id", in.EventID, "user_id", userID)
	return nil
}

// HandleInvoicePaymentFailed deactivates the user and keeps the external ids for recovery
func (s *subscriptionStateService) HandleInvoicePaymentFailed(ctx context.Context, in *dto.InvoicePaymentFailedInput) error {
	userID, err := s.resolveUser(ctx, in.CustomerID, in.CustomerEmail)
	if err != nil {
		return err
	}
	if userID == "" {
		s.Logger.Warnw("no local user for failed invoice, dropping",
			"event_id", in.EventID,
			"customer_id", in.CustomerID,
		)
		return nil
	}

	_, err = s.writer.apply(ctx, transition{
		userID:    userID,
		eventType: types.HistoryEventInvoicePaymentFailed,
		source:    types.HistorySourceWebhook,
		eventID:   in.EventID,
		raw:       in.RawPayload,
		newStatus: types.StateStatusFailed,
		mutate: func(prev, next *subscriptionstate.SubscriptionState) step {
			if prev.BypassExternalCheck || supersededBy(prev, in.SubscriptionID) {
				return stepHistoryOnly
			}
			next.AssignPlan(s.Catalog.FreePlan().ID)
			next.IsActive = false
			if !next.HasSubscription() && in.SubscriptionID != "" {
				next.AttachExternal(in.CustomerID, in.SubscriptionID)
			}
			return stepWrite
		},
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("invoice payment failure applied", "event_id", in.EventID, "user_id", userID)
	return nil
}

// HandleChargeRefunded only feeds the marketing side channel. Nothing here fails the webhook.
func (s *subscriptionStateService) HandleChargeRefunded(ctx context.Context, in *dto.ChargeRefundedInput) error {
	email, err := s.customerEmail(ctx, in.CustomerID, in.CustomerEmail)
	if err != nil || email == "" {
		s.Logger.Warnw("refund without resolvable email, skipping marketing tag",
			"event_id", in.EventID,
			"charge_id", in.ChargeID,
			"error", err,
		)
		return nil
	}

	if err := s.notifications.PublishMarketingTag(ctx, email, s.Config.Marketing.RefundedTag); err != nil {
		s.Logger.Errorw("failed to queue refund marketing tag",
			"event_id", in.EventID,
			"charge_id", in.ChargeID,
			"error", err,
		)
		s.Sentry.CaptureException(err)
	}
	return nil
}

func (s *subscriptionStateService) ListHistory(ctx context.Context, userID string, req *dto.ListSubscriptionHistoryRequest) (*dto.ListSubscriptionHistoryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entries, err := s.SubscriptionHistoryRepo.ListByUser(ctx, userID, req.GetLimit())
	if err != nil {
		return nil, err
	}

	return &dto.ListSubscriptionHistoryResponse{
		Items: lo.Map(entries, func(e *subscriptionhistory.Entry, _ int) *dto.SubscriptionHistoryEntryResponse {
			return dto.NewSubscriptionHistoryEntryResponse(e)
		}),
	}, nil
}

// resolvePrice maps a price id through the catalog. Unknown ids keep the transition going
// under the placeholder name.
func (s *subscriptionStateService) resolvePrice(eventID, priceID string) (plan.Mapping, bool) {
	mapping, ok := s.Catalog.Resolve(priceID)
	if !ok {
		s.Logger.Warnw("price id not in catalog",
			"event_id", eventID,
			"price_id", priceID,
			"catalog_version", s.Catalog.Version(),
		)
		return plan.Mapping{ExternalPriceID: priceID, PlanName: plan.UnknownPlanName}, false
	}
	return mapping, true
}

// resolveUser finds the local user behind a provider customer: by the email carried on the
// event, then by the stored customer id, then by the provider's customer record.
// An empty id with a nil error means the user does not exist locally.
func (s *subscriptionStateService) resolveUser(ctx context.Context, customerID, email string) (string, error) {
	if email != "" {
		if id, err := s.userIDByEmail(ctx, email); err != nil || id != "" {
			return id, err
		}
	}

	if customerID == "" {
		return "", nil
	}

	state, err := s.SubscriptionStateRepo.GetByExternalCustomerID(ctx, customerID)
	if err == nil {
		return state.UserID, nil
	}
	if !ierr.IsNotFound(err) {
		return "", err
	}

	customerEmail, err := s.customerEmail(ctx, customerID, "")
	if err != nil || customerEmail == "" || user.NormalizeEmail(customerEmail) == user.NormalizeEmail(email) {
		return "", err
	}
	return s.userIDByEmail(ctx, customerEmail)
}

func (s *subscriptionStateService) userIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return u.ID, nil
}

// customerEmail returns known when set, otherwise the email on the provider customer.
// A customer missing upstream yields "".
func (s *subscriptionStateService) customerEmail(ctx context.Context, customerID, known string) (string, error) {
	if known != "" || customerID == "" {
		return known, nil
	}
	customer, err := s.Stripe.GetCustomer(ctx, customerID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return customer.Email, nil
}

// assignPrice moves the state to the plan behind a resolved price. An unknown price is
// recorded as unmapped; an empty one leaves the plan untouched.
func assignPrice(state *subscriptionstate.SubscriptionState, mapping plan.Mapping, known bool) {
	switch {
	case known:
		state.AssignPlan(mapping.PlanID)
	case mapping.ExternalPriceID != "":
		state.AssignUnmappedPrice(mapping.ExternalPriceID)
	}
}

// supersededBy reports whether the state already tracks a different subscription than subscriptionID
func supersededBy(state *subscriptionstate.SubscriptionState, subscriptionID string) bool {
	return subscriptionID != "" && state.HasSubscription() && state.SubscriptionID() != subscriptionID
}
