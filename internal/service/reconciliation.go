package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	ierr "github.com/vendora/vendora/internal/errors"
	stripeint "github.com/vendora/vendora/internal/integration/stripe"
	"github.com/vendora/vendora/internal/interfaces"
	"github.com/vendora/vendora/internal/types"
)

type ReconciliationService = interfaces.ReconciliationService

type reconciliationService struct {
	ServiceParams
	writer *stateWriter
	now    func() time.Time
}

func NewReconciliationService(params ServiceParams) ReconciliationService {
	return &reconciliationService{
		ServiceParams: params,
		writer:        newStateWriter(params),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// providerView is what the payment provider currently says about a user
type providerView struct {
	customerID    string
	eligible      *stripe.Subscription
	hasCanceled   bool
	hasDelinquent bool
}

func (s *reconciliationService) Reconcile(ctx context.Context, userID string) *dto.SubscriptionStatusResponse {
	stored, err := s.SubscriptionStateRepo.Get(ctx, userID)
	if err != nil && !ierr.IsNotFound(err) {
		s.Logger.Errorw("failed to load subscription state", "user_id", userID, "error", err)
		return s.unsubscribed()
	}
	if stored != nil && stored.BypassExternalCheck {
		return s.response(stored)
	}

	u, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		s.Logger.Errorw("failed to load user for reconciliation", "user_id", userID, "error", err)
		return s.unsubscribed()
	}

	view, err := s.fetchProviderView(ctx, u.Email)
	if err != nil {
		s.Logger.Warnw("payment provider unavailable, failing closed",
			"user_id", userID,
			"error", err,
		)
		s.Sentry.CaptureException(err)
		return s.unsubscribed()
	}

	now := s.now()
	var computed *subscriptionstate.SubscriptionState

	res, err := s.writer.apply(ctx, transition{
		userID:        userID,
		eventType:     s.eventType(stored, view),
		source:        types.HistorySourceReconciliation,
		skipUnchanged: true,
		mutate: func(prev, next *subscriptionstate.SubscriptionState) step {
			if prev.BypassExternalCheck {
				computed = prev
				return stepSkip
			}
			s.project(next, view, now)
			computed = next
			return stepWrite
		},
	})
	if err != nil {
		// the provider answer is still the best information available
		s.Logger.Errorw("failed to persist reconciled state", "user_id", userID, "error", err)
		s.Sentry.CaptureException(err)
		if computed == nil {
			return s.unsubscribed()
		}
		return s.response(computed)
	}

	if res.Entry != nil {
		s.Logger.Infow("reconciliation corrected subscription state",
			"user_id", userID,
			"previous_plan", res.Entry.PreviousPlanName,
			"new_plan", res.Entry.NewPlanName,
			"new_status", res.Entry.NewStatus,
		)
	}

	return s.response(res.State)
}

func (s *reconciliationService) fetchProviderView(ctx context.Context, email string) (*providerView, error) {
	customer, err := s.Stripe.FindCustomerByEmail(ctx, email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return &providerView{}, nil
		}
		return nil, err
	}

	subs, err := s.Stripe.ListSubscriptions(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	return &providerView{
		customerID:    customer.ID,
		eligible:      stripeint.SelectEligible(subs, s.catalogInterval, s.now()),
		hasCanceled:   stripeint.HasCanceled(subs),
		hasDelinquent: lo.SomeBy(subs, stripeint.IsDelinquent),
	}, nil
}

// project writes the provider view onto next
func (s *reconciliationService) project(next *subscriptionstate.SubscriptionState, view *providerView, now time.Time) {
	if sub := view.eligible; sub != nil {
		priceID := stripeint.PriceID(sub)
		if mapping, ok := s.Catalog.Resolve(priceID); ok {
			next.AssignPlan(mapping.PlanID)
		} else {
			s.Logger.Warnw("price id not in catalog", "price_id", priceID, "catalog_version", s.Catalog.Version())
			if priceID != "" {
				next.AssignUnmappedPrice(priceID)
			}
		}
		next.AttachExternal(view.customerID, sub.ID)
		next.IsActive = true
		next.SubscriptionEnd = stripeint.PeriodEnd(sub, s.catalogInterval(priceID), now)
		next.CancelAtPeriodEnd = sub.CancelAtPeriodEnd || stripeint.IsCanceled(sub)
		return
	}

	if !s.Catalog.IsFree(next.PlanID) || next.HasUnmappedPlan() {
		next.AssignPlan(s.Catalog.FreePlan().ID)
	}
	next.ClearExternal()
	if view.customerID != "" {
		next.ExternalCustomerID = lo.ToPtr(view.customerID)
	}
	next.SubscriptionEnd = nil
	next.CancelAtPeriodEnd = false
	// an elapsed cancellation is a deliberate deactivation, not just a downgrade
	next.IsActive = next.IsActive && !view.hasCanceled && !view.hasDelinquent
}

func (s *reconciliationService) eventType(stored *subscriptionstate.SubscriptionState, view *providerView) types.HistoryEventType {
	switch {
	case view.eligible == nil:
		return types.HistoryEventCancel
	case stored == nil || stored.SubscriptionID() != view.eligible.ID:
		return types.HistoryEventSubscribe
	default:
		return types.HistoryEventUpdate
	}
}

func (s *reconciliationService) catalogInterval(priceID string) types.BillingInterval {
	if mapping, ok := s.Catalog.Resolve(priceID); ok {
		return mapping.Interval
	}
	return ""
}

func (s *reconciliationService) response(state *subscriptionstate.SubscriptionState) *dto.SubscriptionStatusResponse {
	if state == nil || !state.IsActive {
		return s.unsubscribed()
	}
	if state.HasUnmappedPlan() && state.HasSubscription() && state.PaymentMethod == types.PaymentMethodStripe {
		// paid, but the catalog cannot name the plan
		return &dto.SubscriptionStatusResponse{
			Subscribed:        true,
			PlanName:          plan.UnknownPlanName,
			SubscriptionEnd:   state.SubscriptionEnd,
			CancelAtPeriodEnd: lo.ToPtr(state.CancelAtPeriodEnd),
		}
	}
	if s.Catalog.IsFree(state.PlanID) {
		return s.unsubscribed()
	}
	return &dto.SubscriptionStatusResponse{
		Subscribed:        true,
		PlanName:          s.Catalog.PlanName(state.PlanID),
		SubscriptionEnd:   state.SubscriptionEnd,
		CancelAtPeriodEnd: lo.ToPtr(state.CancelAtPeriodEnd),
	}
}

// unsubscribed is both the answer for free users and the fail-closed answer
func (s *reconciliationService) unsubscribed() *dto.SubscriptionStatusResponse {
	return &dto.SubscriptionStatusResponse{
		Subscribed: false,
		PlanName:   s.Catalog.FreePlan().Name,
	}
}
