package plan

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendora/vendora/internal/config"
	ierr "github.com/vendora/vendora/internal/errors"
)

// Catalog maps external price ids (current and legacy) onto internal plans.
// It is immutable once built and safe for concurrent use.
type Catalog struct {
	version  string
	plans    map[uuid.UUID]*Plan
	order    []uuid.UUID
	byPrice  map[string]Mapping
	freePlan *Plan
}

// NewCatalog builds the catalog from configuration. It fails when a price id maps to two
// plans or when there is not exactly one zero-amount plan.
func NewCatalog(cfg *config.Configuration) (*Catalog, error) {
	return FromConfig(cfg.Catalog)
}

func FromConfig(cc config.CatalogConfig) (*Catalog, error) {
	c := &Catalog{
		version: cc.Version,
		plans:   make(map[uuid.UUID]*Plan, len(cc.Plans)),
		byPrice: make(map[string]Mapping),
	}

	for _, pc := range cc.Plans {
		id, err := uuid.Parse(pc.ID)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Catalog plan %s has an invalid id", pc.Name).
				Mark(ierr.ErrValidation)
		}
		if _, dup := c.plans[id]; dup {
			return nil, ierr.NewErrorf("duplicate plan id %s", id).
				WithHint("Catalog plan ids must be unique").
				Mark(ierr.ErrValidation)
		}

		amount, err := decimal.NewFromString(pc.Amount)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Catalog plan %s has an invalid amount", pc.Name).
				Mark(ierr.ErrValidation)
		}

		p := &Plan{ID: id, Name: pc.Name, Amount: amount, Currency: pc.Currency}
		for _, price := range pc.Prices {
			if existing, ok := c.byPrice[price.ID]; ok && existing.PlanID != id {
				return nil, ierr.NewErrorf("price %s maps to plans %s and %s", price.ID, existing.PlanID, id).
					WithHint("A price id can belong to only one plan").
					Mark(ierr.ErrValidation)
			}
			p.Prices = append(p.Prices, Price{
				ExternalPriceID: price.ID,
				Interval:        price.Interval,
				Legacy:          price.Legacy,
			})
			c.byPrice[price.ID] = Mapping{
				ExternalPriceID: price.ID,
				PlanID:          id,
				PlanName:        pc.Name,
				Interval:        price.Interval,
				Legacy:          price.Legacy,
			}
		}

		if p.IsFree() {
			if c.freePlan != nil {
				return nil, ierr.NewErrorf("plans %s and %s both have zero amount", c.freePlan.Name, p.Name).
					WithHint("Exactly one plan must be free").
					Mark(ierr.ErrValidation)
			}
			c.freePlan = p
		}

		c.plans[id] = p
		c.order = append(c.order, id)
	}

	if c.freePlan == nil {
		return nil, ierr.NewError("catalog has no free plan").
			WithHint("Exactly one plan must be free").
			Mark(ierr.ErrValidation)
	}

	return c, nil
}

// Resolve maps an external price id to its plan. Unknown ids return ok=false.
func (c *Catalog) Resolve(externalPriceID string) (Mapping, bool) {
	m, ok := c.byPrice[externalPriceID]
	return m, ok
}

// FreePlan returns the zero-amount plan
func (c *Catalog) FreePlan() *Plan {
	return c.freePlan
}

// Plan returns the plan with the given id
func (c *Catalog) Plan(id uuid.UUID) (*Plan, bool) {
	p, ok := c.plans[id]
	return p, ok
}

// PlanName returns the display name for an optional plan id.
// A nil id is the free plan; an id missing from the catalog is UnknownPlanName.
func (c *Catalog) PlanName(id *uuid.UUID) string {
	if id == nil {
		return c.freePlan.Name
	}
	if p, ok := c.plans[*id]; ok {
		return p.Name
	}
	return UnknownPlanName
}

// IsFree reports whether the optional plan id denotes the free tier
func (c *Catalog) IsFree(id *uuid.UUID) bool {
	return id == nil || *id == c.freePlan.ID
}

// Plans returns all plans in configuration order
func (c *Catalog) Plans() []*Plan {
	out := make([]*Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// Version identifies the catalog revision
func (c *Catalog) Version() string {
	return c.version
}
