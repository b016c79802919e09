package registration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/types"
)

// PendingRegistration holds a paid checkout whose payer has no local account yet.
// The token is single-use and does not expire.
type PendingRegistration struct {
	ID                     string     `db:"id" json:"id"`
	Email                  string     `db:"email" json:"email"`
	PlanID                 *uuid.UUID `db:"plan_id" json:"plan_id,omitempty"`
	UnmappedPriceID        *string    `db:"unmapped_price_id" json:"unmapped_price_id,omitempty"`
	PlanName               string     `db:"plan_name" json:"plan_name"`
	ExternalCustomerID     *string    `db:"external_customer_id" json:"external_customer_id,omitempty"`
	ExternalSubscriptionID *string    `db:"external_subscription_id" json:"external_subscription_id,omitempty"`
	ExternalEventID        *string    `db:"external_event_id" json:"external_event_id,omitempty"`
	Token                  string     `db:"token" json:"-"`
	UsedAt                 *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// New returns a pending registration with a fresh id and token
func New(email string) (*PendingRegistration, error) {
	token, err := types.GenerateToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &PendingRegistration{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REGISTRATION),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsUsed reports whether the token was already redeemed
func (p *PendingRegistration) IsUsed() bool {
	return p.UsedAt != nil
}

// PendingInput is what a checkout knows about a payer without an account
type PendingInput struct {
	Email          string
	PlanID         *uuid.UUID
	PriceID        string
	PlanName       string
	CustomerID     string
	SubscriptionID string
	EventID        string
}
