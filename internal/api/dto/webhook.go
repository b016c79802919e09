package dto

import (
	"encoding/json"
	"time"
)

// WebhookResponse is returned to the payment provider for every accepted delivery
type WebhookResponse struct {
	Received bool `json:"received"`
}

// The inputs below are provider events already verified and flattened by the webhook
// processor. RawPayload is the event object as delivered and is stored with history.

// CheckoutCompletedInput is a paid subscription checkout
type CheckoutCompletedInput struct {
	EventID           string
	CustomerID        string
	CustomerEmail     string
	SubscriptionID    string
	PriceID           string
	SubscriptionEnd   *time.Time
	CancelAtPeriodEnd bool
	RawPayload        json.RawMessage
}

// SubscriptionChangedInput is a subscription created or updated event
type SubscriptionChangedInput struct {
	EventID           string
	Created           bool
	CustomerID        string
	SubscriptionID    string
	Status            string
	PriceID           string
	SubscriptionEnd   *time.Time
	CancelAtPeriodEnd bool
	RawPayload        json.RawMessage
}

// SubscriptionDeletedInput is a subscription that ended on the provider side
type SubscriptionDeletedInput struct {
	EventID        string
	CustomerID     string
	SubscriptionID string
	RawPayload     json.RawMessage
}

// InvoicePaymentFailedInput is a failed renewal charge
type InvoicePaymentFailedInput struct {
	EventID        string
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
	RawPayload     json.RawMessage
}

// ChargeRefundedInput is a refunded charge; it only feeds side channels
type ChargeRefundedInput struct {
	EventID       string
	ChargeID      string
	CustomerID    string
	CustomerEmail string
	Amount        int64
	Currency      string
}
