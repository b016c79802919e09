package types

// PaymentMethod describes how a user's current plan is paid for
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodManual PaymentMethod = "manual"
	PaymentMethodNone   PaymentMethod = "none"
)

func (p PaymentMethod) Validate() bool {
	switch p {
	case PaymentMethodStripe, PaymentMethodManual, PaymentMethodNone:
		return true
	}
	return false
}

// HistoryEventType classifies a subscription history entry
type HistoryEventType string

const (
	HistoryEventSubscribe            HistoryEventType = "subscribe"
	HistoryEventUpdate               HistoryEventType = "update"
	HistoryEventCancel               HistoryEventType = "cancel"
	HistoryEventPaymentFailed        HistoryEventType = "payment_failed"
	HistoryEventInvoicePaymentFailed HistoryEventType = "invoice_payment_failed"
)

// HistorySource tells which path produced a history entry
type HistorySource string

const (
	HistorySourceWebhook        HistorySource = "webhook"
	HistorySourceReconciliation HistorySource = "reconciliation"
)

// Local status labels recorded in history next to provider statuses
const (
	StateStatusActive   = "active"
	StateStatusInactive = "inactive"
	StateStatusFree     = "free"
	StateStatusCanceled = "canceled"
	StateStatusFailed   = "payment_failed"
)

// BillingInterval is the recurrence of a catalog price
type BillingInterval string

const (
	BillingIntervalNone  BillingInterval = "none"
	BillingIntervalDay   BillingInterval = "day"
	BillingIntervalWeek  BillingInterval = "week"
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

func (b BillingInterval) Validate() bool {
	switch b {
	case BillingIntervalNone, BillingIntervalDay, BillingIntervalWeek, BillingIntervalMonth, BillingIntervalYear:
		return true
	}
	return false
}

// WebhookEventType is a payment provider event type handled by the webhook processor
type WebhookEventType string

const (
	WebhookEventCheckoutSessionCompleted WebhookEventType = "checkout.session.completed"
	WebhookEventSubscriptionCreated      WebhookEventType = "customer.subscription.created"
	WebhookEventSubscriptionUpdated      WebhookEventType = "customer.subscription.updated"
	WebhookEventSubscriptionDeleted      WebhookEventType = "customer.subscription.deleted"
	WebhookEventInvoicePaymentFailed     WebhookEventType = "invoice.payment_failed"
	WebhookEventChargeRefunded           WebhookEventType = "charge.refunded"
)
