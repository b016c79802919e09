package subscriptionstate

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vendora/vendora/internal/types"
)

// SubscriptionState is the locally stored answer to "what plan does this user have".
// One row per user, created lazily. UnmappedPriceID is set while the user pays for a
// price the plan catalog does not know.
type SubscriptionState struct {
	UserID                 string              `db:"user_id" json:"user_id"`
	PlanID                 *uuid.UUID          `db:"plan_id" json:"plan_id,omitempty"`
	UnmappedPriceID        *string             `db:"unmapped_price_id" json:"unmapped_price_id,omitempty"`
	IsActive               bool                `db:"is_active" json:"is_active"`
	PaymentMethod          types.PaymentMethod `db:"payment_method" json:"payment_method"`
	ExternalCustomerID     *string             `db:"external_customer_id" json:"external_customer_id,omitempty"`
	ExternalSubscriptionID *string             `db:"external_subscription_id" json:"external_subscription_id,omitempty"`
	BypassExternalCheck    bool                `db:"bypass_external_check" json:"bypass_external_check"`
	CancelAtPeriodEnd      bool                `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	SubscriptionEnd        *time.Time          `db:"subscription_end" json:"subscription_end,omitempty"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updated_at"`
}

// NewDefault returns the state of a user who never paid: no plan, active, no payment method
func NewDefault(userID string) *SubscriptionState {
	now := time.Now().UTC()
	return &SubscriptionState{
		UserID:        userID,
		IsActive:      true,
		PaymentMethod: types.PaymentMethodNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy
func (s *SubscriptionState) Clone() *SubscriptionState {
	c := *s
	if s.PlanID != nil {
		c.PlanID = lo.ToPtr(*s.PlanID)
	}
	if s.UnmappedPriceID != nil {
		c.UnmappedPriceID = lo.ToPtr(*s.UnmappedPriceID)
	}
	if s.ExternalCustomerID != nil {
		c.ExternalCustomerID = lo.ToPtr(*s.ExternalCustomerID)
	}
	if s.ExternalSubscriptionID != nil {
		c.ExternalSubscriptionID = lo.ToPtr(*s.ExternalSubscriptionID)
	}
	if s.SubscriptionEnd != nil {
		c.SubscriptionEnd = lo.ToPtr(*s.SubscriptionEnd)
	}
	return &c
}

// AssignPlan moves the user to a catalog plan
func (s *SubscriptionState) AssignPlan(planID uuid.UUID) {
	s.PlanID = lo.ToPtr(planID)
	s.UnmappedPriceID = nil
}

// AssignUnmappedPrice records a paid price with no catalog plan. The plan id is cleared
// so the previous plan is not granted by mistake.
func (s *SubscriptionState) AssignUnmappedPrice(priceID string) {
	s.PlanID = nil
	s.UnmappedPriceID = lo.ToPtr(priceID)
}

// HasUnmappedPlan reports whether the user pays for a price the catalog does not know
func (s *SubscriptionState) HasUnmappedPlan() bool {
	return s.UnmappedPriceID != nil && *s.UnmappedPriceID != ""
}

// AttachExternal links the state to a provider subscription
func (s *SubscriptionState) AttachExternal(customerID, subscriptionID string) {
	if customerID != "" {
		s.ExternalCustomerID = lo.ToPtr(customerID)
	}
	s.ExternalSubscriptionID = lo.ToPtr(subscriptionID)
	s.PaymentMethod = types.PaymentMethodStripe
}

// ClearExternal unlinks the provider subscription and customer
func (s *SubscriptionState) ClearExternal() {
	s.ExternalCustomerID = nil
	s.ExternalSubscriptionID = nil
	if s.PaymentMethod == types.PaymentMethodStripe {
		s.PaymentMethod = types.PaymentMethodNone
	}
}

// HasSubscription reports whether a provider subscription id is stored
func (s *SubscriptionState) HasSubscription() bool {
	return s.ExternalSubscriptionID != nil && *s.ExternalSubscriptionID != ""
}

// SubscriptionID returns the stored provider subscription id or ""
func (s *SubscriptionState) SubscriptionID() string {
	return lo.FromPtr(s.ExternalSubscriptionID)
}

// CustomerID returns the stored provider customer id or ""
func (s *SubscriptionState) CustomerID() string {
	return lo.FromPtr(s.ExternalCustomerID)
}

// StatusLabel is the local status recorded in history entries.
// isFree decides whether the stored plan id is the free tier.
func (s *SubscriptionState) StatusLabel(isFree func(*uuid.UUID) bool) string {
	switch {
	case !s.IsActive:
		return types.StateStatusInactive
	case s.HasUnmappedPlan():
		return types.StateStatusActive
	case isFree(s.PlanID):
		return types.StateStatusFree
	default:
		return types.StateStatusActive
	}
}

// SameAs reports whether two states carry the same billing facts, ignoring timestamps
func (s *SubscriptionState) SameAs(o *SubscriptionState) bool {
	if o == nil {
		return false
	}
	return s.UserID == o.UserID &&
		equalPtr(s.PlanID, o.PlanID) &&
		equalPtr(s.UnmappedPriceID, o.UnmappedPriceID) &&
		s.IsActive == o.IsActive &&
		s.PaymentMethod == o.PaymentMethod &&
		equalPtr(s.ExternalCustomerID, o.ExternalCustomerID) &&
		equalPtr(s.ExternalSubscriptionID, o.ExternalSubscriptionID) &&
		s.BypassExternalCheck == o.BypassExternalCheck &&
		s.CancelAtPeriodEnd == o.CancelAtPeriodEnd &&
		equalTime(s.SubscriptionEnd, o.SubscriptionEnd)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
