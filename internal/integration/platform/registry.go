package platform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vendora/vendora/internal/config"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
)

// Registry selects the validator for a platform
type Registry struct {
	validators map[types.Platform]Validator
	mu         sync.RWMutex
}

func NewEmptyRegistry() *Registry {
	return &Registry{validators: make(map[types.Platform]Validator)}
}

// NewRegistry registers one validator per supported platform. Every outbound call made by
// the validators is bounded by gateway.timeout.
func NewRegistry(cfg *config.Configuration, logger *logger.Logger) *Registry {
	client := httpclient.NewClient(httpclient.ClientConfig{Timeout: cfg.Gateway.Timeout})
	endpoint := func(p types.Platform) config.PlatformConfig {
		return cfg.Gateway.Platform(p, DefaultEndpoints[p])
	}

	r := NewEmptyRegistry()
	for _, v := range []Validator{
		NewHotmart(endpoint(types.PlatformHotmart), cfg.Gateway.Timeout, client, logger),
		NewKiwify(endpoint(types.PlatformKiwify), cfg.Gateway.Timeout, client, logger),
		NewEduzz(endpoint(types.PlatformEduzz), client, logger),
		NewBraip(endpoint(types.PlatformBraip), client, logger),
		NewMonetizze(endpoint(types.PlatformMonetizze), client, logger),
		NewCartPanda(endpoint(types.PlatformCartPanda), client, logger),
		NewPerfectPay(logger),
	} {
		if err := r.Register(v); err != nil {
			logger.Fatalw("failed to register product validator", "platform", v.Platform(), "error", err)
		}
	}
	return r
}

// Register adds a validator; a platform can be registered once
func (r *Registry) Register(v Validator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.validators[v.Platform()]; exists {
		return fmt.Errorf("validator %s already registered", v.Platform())
	}
	r.validators[v.Platform()] = v
	return nil
}

// Get returns the validator for the platform or a validation error for unsupported ones
func (r *Registry) Get(p types.Platform) (Validator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.validators[p]
	if !ok {
		return nil, ierr.NewErrorf("unsupported platform %q", p).
			WithHintf("Platform %s is not supported", p).
			Mark(ierr.ErrValidation)
	}
	return v, nil
}

// Platforms lists registered platforms in stable order
func (r *Registry) Platforms() []types.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Platform, 0, len(r.validators))
	for p := range r.validators {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
