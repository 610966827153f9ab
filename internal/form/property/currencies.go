package property

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed data/stripe_currencies.json
var stripeCurrenciesJSON []byte

var (
	stripeCurrenciesOnce  sync.Once
	stripeCurrencyCodeSet map[string]struct{}
)

// StripeCurrencyCodes returns the set of supported Stripe currency codes,
// loaded once from the embedded reference dataset and cached for the process
// lifetime.
func StripeCurrencyCodes() map[string]struct{} {
	stripeCurrenciesOnce.Do(func() {
		var currencies []struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(stripeCurrenciesJSON, &currencies); err != nil {
			panic(fmt.Sprintf("parse stripe currencies: %v", err))
		}
		stripeCurrencyCodeSet = make(map[string]struct{}, len(currencies))
		for _, c := range currencies {
			stripeCurrencyCodeSet[c.Code] = struct{}{}
		}
	})
	return stripeCurrencyCodeSet
}
