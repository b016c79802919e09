package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/types"
)

// CatalogConfig is the versioned price -> plan table shared by every billing path
type CatalogConfig struct {
	Version string       `mapstructure:"version" validate:"required"`
	Plans   []PlanConfig `mapstructure:"plans" validate:"required,min=1,dive"`
}

type PlanConfig struct {
	ID       string        `mapstructure:"id" validate:"required,uuid"`
	Name     string        `mapstructure:"name" validate:"required"`
	Amount   string        `mapstructure:"amount" validate:"required"`
	Currency string        `mapstructure:"currency"`
	Prices   []PriceConfig `mapstructure:"prices" validate:"dive"`
}

type PriceConfig struct {
	ID       string                `mapstructure:"id" validate:"required"`
	Interval types.BillingInterval `mapstructure:"interval"`
	Legacy   bool                  `mapstructure:"legacy"`
}

// Validate runs the checks struct tags cannot express
func (c CatalogConfig) Validate() error {
	seen := make(map[string]string)
	for _, p := range c.Plans {
		if _, err := uuid.Parse(p.ID); err != nil {
			return fmt.Errorf("catalog plan %q has invalid id: %w", p.Name, err)
		}
		for _, price := range p.Prices {
			if price.Interval != "" && !price.Interval.Validate() {
				return fmt.Errorf("catalog price %q has invalid interval %q", price.ID, price.Interval)
			}
			if owner, ok := seen[price.ID]; ok && owner != p.ID {
				return fmt.Errorf("catalog price %q is mapped to more than one plan", price.ID)
			}
			seen[price.ID] = p.ID
		}
	}
	return nil
}

// DefaultCatalogConfig mirrors config.yaml and is used by scripts and tests
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Version: "2024-06",
		Plans: []PlanConfig{
			{
				ID:       "0b6f3c8e-2f4d-4f2a-9d7e-1c9a7f0e0001",
				Name:     "Gratuito",
				Amount:   "0",
				Currency: "brl",
			},
			{
				ID:       "0b6f3c8e-2f4d-4f2a-9d7e-1c9a7f0e0002",
				Name:     "Essencial",
				Amount:   "49.90",
				Currency: "brl",
				Prices: []PriceConfig{
					{ID: "price_essencial_monthly_v3", Interval: types.BillingIntervalMonth},
					{ID: "price_essencial_annual_v3", Interval: types.BillingIntervalYear},
					{ID: "price_essencial_monthly_v2", Interval: types.BillingIntervalMonth, Legacy: true},
					{ID: "price_essencial_monthly_v1", Interval: types.BillingIntervalMonth, Legacy: true},
				},
			},
			{
				ID:       "0b6f3c8e-2f4d-4f2a-9d7e-1c9a7f0e0003",
				Name:     "Profissional",
				Amount:   "99.90",
				Currency: "brl",
				Prices: []PriceConfig{
					{ID: "price_profissional_monthly_v3", Interval: types.BillingIntervalMonth},
					{ID: "price_profissional_annual_v3", Interval: types.BillingIntervalYear},
					{ID: "price_profissional_monthly_v2", Interval: types.BillingIntervalMonth, Legacy: true},
					{ID: "price_profissional_annual_v2", Interval: types.BillingIntervalYear, Legacy: true},
				},
			},
			{
				ID:       "0b6f3c8e-2f4d-4f2a-9d7e-1c9a7f0e0004",
				Name:     "Empresarial",
				Amount:   "249.90",
				Currency: "brl",
				Prices: []PriceConfig{
					{ID: "price_empresarial_monthly_v3", Interval: types.BillingIntervalMonth},
					{ID: "price_empresarial_annual_v3", Interval: types.BillingIntervalYear},
					{ID: "price_empresarial_monthly_v1", Interval: types.BillingIntervalMonth, Legacy: true},
				},
			},
		},
	}
}

// GatewayConfig configures outbound calls made by the product validation adapters.
// Base URLs are overridable so sandboxes and tests can point elsewhere.
type GatewayConfig struct {
	Timeout   time.Duration             `mapstructure:"timeout" default:"10s"`
	Platforms map[string]PlatformConfig `mapstructure:"platforms"`
}

type PlatformConfig struct {
	TokenURL string `mapstructure:"token_url"`
	APIURL   string `mapstructure:"api_url"`
}

// Platform returns the endpoint overrides for a platform, falling back to defaults
func (g GatewayConfig) Platform(p types.Platform, defaults PlatformConfig) PlatformConfig {
	cfg, ok := g.Platforms[string(p)]
	if !ok {
		return defaults
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaults.TokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaults.APIURL
	}
	return cfg
}
