package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/domain/plan"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/integration/stripe"
	"github.com/vendora/vendora/internal/interfaces"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/sentry"
	"github.com/vendora/vendora/internal/types"
)

// Handler verifies Stripe webhook deliveries and routes them to the subscription state service
type Handler struct {
	gateway stripe.Gateway
	states  interfaces.SubscriptionStateService
	catalog *plan.Catalog
	sentry  *sentry.Service
	logger  *logger.Logger
	now     func() time.Time
}

// NewHandler creates a new Stripe webhook handler
func NewHandler(
	gateway stripe.Gateway,
	states interfaces.SubscriptionStateService,
	catalog *plan.Catalog,
	sentry *sentry.Service,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		gateway: gateway,
		states:  states,
		catalog: catalog,
		sentry:  sentry,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle verifies the signature and processes the event. A verification failure is
// returned as ErrValidation; processing failures keep their own classification.
func (h *Handler) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := h.gateway.ParseWebhookEvent(payload, signature)
	if err != nil {
		h.logger.Warnw("rejected webhook delivery", "error", err)
		return err
	}
	return h.HandleWebhookEvent(ctx, event)
}

// HandleWebhookEvent processes an already verified Stripe event
func (h *Handler) HandleWebhookEvent(ctx context.Context, event *stripeapi.Event) error {
	span, ctx := h.sentry.MonitorWebhookProcessing(ctx, string(event.Type), time.Unix(event.Created, 0), map[string]interface{}{
		"event_id": event.ID,
	})
	if span != nil {
		defer span.Finish()
	}

	h.logger.Infow("processing Stripe webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	if event.Data == nil {
		return ierr.NewError("webhook event has no data").
			WithHint("Invalid webhook payload").
			Mark(ierr.ErrValidation)
	}

	switch types.WebhookEventType(event.Type) {
	case types.WebhookEventCheckoutSessionCompleted:
		return h.handleCheckoutCompleted(ctx, event)
	case types.WebhookEventSubscriptionCreated, types.WebhookEventSubscriptionUpdated:
		return h.handleSubscriptionChanged(ctx, event)
	case types.WebhookEventSubscriptionDeleted:
		return h.handleSubscriptionDeleted(ctx, event)
	case types.WebhookEventInvoicePaymentFailed:
		return h.handleInvoicePaymentFailed(ctx, event)
	case types.WebhookEventChargeRefunded:
		return h.handleChargeRefunded(ctx, event)
	default:
		h.logger.Infow("unhandled Stripe webhook event type", "type", event.Type)
		return nil
	}
}

func (h *Handler) handleCheckoutCompleted(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := decode(event, &session); err != nil {
		return err
	}

	in := &dto.CheckoutCompletedInput{
		EventID:       event.ID,
		CustomerEmail: session.CustomerEmail,
		RawPayload:    event.Data.Raw,
	}
	if session.Customer != nil {
		in.CustomerID = session.Customer.ID
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		in.CustomerEmail = session.CustomerDetails.Email
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return h.states.HandleCheckoutCompleted(ctx, in)
	}
	in.SubscriptionID = session.Subscription.ID

	// the session only references the subscription; price and period come from the API
	sub, err := h.gateway.GetSubscription(ctx, in.SubscriptionID)
	if err != nil {
		h.logger.Errorw("failed to fetch subscription for checkout",
			"error", err,
			"subscription_id", in.SubscriptionID,
			"event_id", event.ID,
		)
		return err
	}

	in.PriceID = stripe.PriceID(sub)
	in.SubscriptionEnd = stripe.PeriodEnd(sub, h.interval(in.PriceID), h.now())
	in.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if in.CustomerID == "" {
		in.CustomerID = stripe.CustomerID(sub)
	}

	return h.states.HandleCheckoutCompleted(ctx, in)
}

func (h *Handler) handleSubscriptionChanged(ctx context.Context, event *stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := decode(event, &sub); err != nil {
		return err
	}

	priceID := stripe.PriceID(&sub)
	return h.states.HandleSubscriptionChanged(ctx, &dto.SubscriptionChangedInput{
		EventID:           event.ID,
		Created:           types.WebhookEventType(event.Type) == types.WebhookEventSubscriptionCreated,
		CustomerID:        stripe.CustomerID(&sub),
		SubscriptionID:    sub.ID,
		Status:            string(sub.Status),
		PriceID:           priceID,
		SubscriptionEnd:   stripe.PeriodEnd(&sub, h.interval(priceID), h.now()),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		RawPayload:        event.Data.Raw,
	})
}

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, event *stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := decode(event, &sub); err != nil {
		return err
	}

	return h.states.HandleSubscriptionDeleted(ctx, &dto.SubscriptionDeletedInput{
		EventID:        event.ID,
		CustomerID:     stripe.CustomerID(&sub),
		SubscriptionID: sub.ID,
		RawPayload:     event.Data.Raw,
	})
}

func (h *Handler) handleInvoicePaymentFailed(ctx context.Context, event *stripeapi.Event) error {
	var invoice stripeapi.Invoice
	if err := decode(event, &invoice); err != nil {
		return err
	}

	in := &dto.InvoicePaymentFailedInput{
		EventID:       event.ID,
		CustomerEmail: invoice.CustomerEmail,
		RawPayload:    event.Data.Raw,
	}
	if invoice.Customer != nil {
		in.CustomerID = invoice.Customer.ID
	}
	if p := invoice.Parent; p != nil && p.SubscriptionDetails != nil && p.SubscriptionDetails.Subscription != nil {
		in.SubscriptionID = p.SubscriptionDetails.Subscription.ID
	}

	return h.states.HandleInvoicePaymentFailed(ctx, in)
}

func (h *Handler) handleChargeRefunded(ctx context.Context, event *stripeapi.Event) error {
	var charge stripeapi.Charge
	if err := decode(event, &charge); err != nil {
		return err
	}

	in := &dto.ChargeRefundedInput{
		EventID:       event.ID,
		ChargeID:      charge.ID,
		CustomerEmail: charge.ReceiptEmail,
		Amount:        charge.AmountRefunded,
		Currency:      string(charge.Currency),
	}
	if charge.Customer != nil {
		in.CustomerID = charge.Customer.ID
	}
	if charge.BillingDetails != nil && charge.BillingDetails.Email != "" {
		in.CustomerEmail = charge.BillingDetails.Email
	}

	h.logger.Infow("charge refunded",
		"charge_id", charge.ID,
		"amount", decimal.New(charge.AmountRefunded, -2).StringFixed(2),
		"currency", charge.Currency,
		"event_id", event.ID,
	)

	return h.states.HandleChargeRefunded(ctx, in)
}

func (h *Handler) interval(priceID string) types.BillingInterval {
	if mapping, ok := h.catalog.Resolve(priceID); ok {
		return mapping.Interval
	}
	return ""
}

func decode(event *stripeapi.Event, out interface{}) error {
	if err := json.Unmarshal(event.Data.Raw, out); err != nil {
		return ierr.WithError(err).
			WithHintf("Invalid %s payload in webhook", event.Type).
			Mark(ierr.ErrValidation)
	}
	return nil
}
