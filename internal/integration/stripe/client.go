package stripe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/vendora/vendora/internal/config"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
)

// Gateway is the subset of the payment provider API the billing core depends on
type Gateway interface {
	GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error)
	// FindCustomerByEmail returns ErrNotFound when no customer carries the email
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	// ListSubscriptions returns every subscription of the customer regardless of status
	ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// ParseWebhookEvent verifies the signature header and decodes the event
	ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error)
}

// Client implements Gateway on top of stripe-go
type Client struct {
	api           *stripe.Client
	webhookSecret string
	logger        *logger.Logger
}

// NewClient creates a Stripe client whose HTTP calls are bounded by stripe.timeout
func NewClient(cfg *config.Configuration, logger *logger.Logger) Gateway {
	timeout := cfg.Stripe.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})

	return &Client{
		api:           stripe.NewClient(cfg.Stripe.SecretKey, stripe.WithBackends(backends)),
		webhookSecret: cfg.Stripe.WebhookSecret,
		logger:        logger,
	}
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	customer, err := c.api.V1Customers.Retrieve(ctx, customerID, nil)
	if err != nil {
		return nil, wrapStripeErr(err, "customer")
	}
	if customer.Deleted {
		return nil, ierr.NewErrorf("customer %s is deleted", customerID).
			WithHint("Customer not found").
			Mark(ierr.ErrNotFound)
	}
	return customer, nil
}

func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = "email:'" + escapeSearchValue(email) + "'"
	params.Limit = stripe.Int64(1)

	for customer, err := range c.api.V1Customers.Search(ctx, params) {
		if err != nil {
			return nil, wrapStripeErr(err, "customer")
		}
		return customer, nil
	}

	return nil, ierr.NewError("customer not found").
		WithHint("No payment customer exists for this email").
		Mark(ierr.ErrNotFound)
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	sub, err := c.api.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return nil, wrapStripeErr(err, "subscription")
	}
	return sub, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}

	subs := make([]*stripe.Subscription, 0)
	for sub, err := range c.api.V1Subscriptions.List(ctx, params) {
		if err != nil {
			return nil, wrapStripeErr(err, "subscription")
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := c.api.V1Subscriptions.Cancel(ctx, subscriptionID, nil)
	if err != nil {
		return wrapStripeErr(err, "subscription")
	}
	c.logger.Infow("canceled provider subscription", "subscription_id", subscriptionID)
	return nil
}

func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	if c.webhookSecret == "" {
		return nil, ierr.NewError("webhook secret is not configured").
			WithHint("Webhook secret is not configured").
			Mark(ierr.ErrValidation)
	}
	if signature == "" {
		return nil, ierr.NewError("missing signature header").
			WithHint("Missing Stripe-Signature header").
			Mark(ierr.ErrValidation)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

// wrapStripeErr maps a missing resource to ErrNotFound and everything else to ErrHTTPClient
func wrapStripeErr(err error, resource string) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return ierr.WithError(err).
				WithHintf("Payment provider %s not found", resource).
				Mark(ierr.ErrNotFound)
		}
	}
	return ierr.WithError(err).
		WithHintf("Payment provider request for %s failed", resource).
		Mark(ierr.ErrHTTPClient)
}

func escapeSearchValue(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}
