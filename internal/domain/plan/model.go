package plan

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendora/vendora/internal/types"
)

// UnknownPlanName is recorded when a provider price id is not in the catalog
const UnknownPlanName = "Unknown Plan"

// Plan is an internal product tier
type Plan struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Prices   []Price         `json:"prices"`
}

// IsFree reports whether the plan costs nothing
func (p *Plan) IsFree() bool {
	return p.Amount.IsZero()
}

// Price is one external price id attached to a plan
type Price struct {
	ExternalPriceID string                `json:"external_price_id"`
	Interval        types.BillingInterval `json:"interval"`
	Legacy          bool                  `json:"legacy"`
}

// Mapping is the result of resolving an external price id
type Mapping struct {
	ExternalPriceID string
	PlanID          uuid.UUID
	PlanName        string
	Interval        types.BillingInterval
	Legacy          bool
}
