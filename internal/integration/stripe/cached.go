package stripe

import (
	"context"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/cache"
	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/logger"
)

// cachedGateway remembers customer search results. Only hits are cached: a miss
// usually means a checkout is about to create the customer.
type cachedGateway struct {
	Gateway
	cache  cache.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedGateway puts the customer search behind c. Every other call goes straight to gateway.
func NewCachedGateway(gateway Gateway, c cache.Cache, cfg *config.Configuration, logger *logger.Logger) Gateway {
	return &cachedGateway{
		Gateway: gateway,
		cache:   c,
		ttl:     cfg.Cache.CustomerTTL,
		logger:  logger,
	}
}

func (g *cachedGateway) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	key := cache.GenerateKey(cache.PrefixProviderCustomer, strings.ToLower(strings.TrimSpace(email)))
	if v, ok := g.cache.Get(ctx, key); ok {
		if customer, ok := v.(*stripe.Customer); ok {
			return customer, nil
		}
	}

	customer, err := g.Gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	g.cache.Set(ctx, key, customer, g.ttl)
	g.logger.Debugw("cached provider customer", "customer_id", customer.ID)
	return customer, nil
}
