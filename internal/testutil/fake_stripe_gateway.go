package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	ierr "github.com/vendora/vendora/internal/errors"
	stripeint "github.com/vendora/vendora/internal/integration/stripe"
)

var _ stripeint.Gateway = (*FakeStripeGateway)(nil)

// TestWebhookSecret signs payloads accepted by FakeStripeGateway.ParseWebhookEvent
const TestWebhookSecret = "whsec_test_secret"

// FakeStripeGateway is an in-memory payment provider. Customers and subscriptions are
// seeded by tests; Err, when set, fails every API call as a transport error.
type FakeStripeGateway struct {
	mu            sync.Mutex
	customers     map[string]*stripe.Customer
	subscriptions map[string]*stripe.Subscription
	canceled      []string
	searches      int

	Err error
}

func NewFakeStripeGateway() *FakeStripeGateway {
	return &FakeStripeGateway{
		customers:     make(map[string]*stripe.Customer),
		subscriptions: make(map[string]*stripe.Subscription),
	}
}

// AddCustomer registers a customer with the given id and email
func (g *FakeStripeGateway) AddCustomer(id, email string) *stripe.Customer {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := &stripe.Customer{ID: id, Email: email}
	g.customers[id] = c
	return c
}

// AddSubscription registers a subscription; its customer must carry at least an ID
func (g *FakeStripeGateway) AddSubscription(sub *stripe.Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions[sub.ID] = sub
}

// Canceled returns the ids passed to CancelSubscription, in call order
func (g *FakeStripeGateway) Canceled() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.canceled...)
}

// Searches reports how many FindCustomerByEmail calls reached the fake
func (g *FakeStripeGateway) Searches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.searches
}

func (g *FakeStripeGateway) transportErr() error {
	return ierr.WithError(g.Err).
		WithHint("Payment provider request failed").
		Mark(ierr.ErrHTTPClient)
}

func (g *FakeStripeGateway) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.transportErr()
	}
	c, ok := g.customers[customerID]
	if !ok {
		return nil, ierr.NewErrorf("customer %s not found", customerID).Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (g *FakeStripeGateway) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.searches++
	if g.Err != nil {
		return nil, g.transportErr()
	}
	for _, c := range g.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, ierr.NewError("customer not found").Mark(ierr.ErrNotFound)
}

func (g *FakeStripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.transportErr()
	}
	sub, ok := g.subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewErrorf("subscription %s not found", subscriptionID).Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (g *FakeStripeGateway) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.transportErr()
	}
	subs := lo.Filter(lo.Values(g.subscriptions), func(s *stripe.Subscription, _ int) bool {
		return stripeint.CustomerID(s) == customerID
	})
	// newest first, like the API
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Created > subs[j].Created })
	return subs, nil
}

func (g *FakeStripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.transportErr()
	}
	g.canceled = append(g.canceled, subscriptionID)
	if sub, ok := g.subscriptions[subscriptionID]; ok {
		sub.Status = stripe.SubscriptionStatusCanceled
	}
	return nil
}

func (g *FakeStripeGateway) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, TestWebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

// NewSubscription builds a subscription on a single price, ending at periodEnd (unix seconds)
func NewSubscription(id, customerID, priceID string, status stripe.SubscriptionStatus, periodEnd int64) *stripe.Subscription {
	return &stripe.Subscription{
		ID:       id,
		Status:   status,
		Customer: &stripe.Customer{ID: customerID},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price:            &stripe.Price{ID: priceID},
				CurrentPeriodEnd: periodEnd,
			}},
		},
	}
}
