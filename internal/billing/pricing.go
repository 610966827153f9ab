package billing

import (
	"fmt"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/config"
)

// Catalog resolves product and price ids for the running environment from the
// configured pricing table.
type Catalog struct {
	pricing config.Pricing
}

func NewCatalog(pricing map[string]config.Pricing, environment string) (Catalog, error) {
	entry, ok := pricing[environment]
	if !ok {
		return Catalog{}, fmt.Errorf("no pricing configured for environment %q", environment)
	}
	return Catalog{pricing: entry}, nil
}

func (c Catalog) ProductID() string {
	return c.pricing.ProductID
}

// PriceID returns the provider price id for a billing interval.
func (c Catalog) PriceID(interval Interval) (string, error) {
	priceID, ok := c.pricing.Plans[string(interval)]
	if !ok || priceID == "" {
		return "", fmt.Errorf("%w: %s", internal.ErrUnknownPlan, interval)
	}
	return priceID, nil
}

// IntervalForPrice resolves the billing interval a stored price id belongs to.
func (c Catalog) IntervalForPrice(priceID string) (Interval, bool) {
	for interval, id := range c.pricing.Plans {
		if id == priceID {
			return Interval(interval), true
		}
	}
	return "", false
}
