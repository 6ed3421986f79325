package trading

import (
	"fmt"
	"math"

	"minos/exchange"
)

const (
	defaultMaxLeverage = 50   // assumed ceiling when metadata carries none
	priceTickTolerance = 0.01 // quote-currency units
)

// OrderValidator runs the pre-submission checks. The sequence short-circuits:
// the first failed rule produces the one diagnostic of the call.
type OrderValidator struct {
	market      exchange.MarketData
	normalizer  *PriceNormalizer
	minNotional float64
}

func NewOrderValidator(market exchange.MarketData, normalizer *PriceNormalizer, minNotional float64) *OrderValidator {
	return &OrderValidator{market: market, normalizer: normalizer, minNotional: minNotional}
}

// Validate checks the notional floor, the leverage ceiling and price-tick
// conformance, in that order.
func (v *OrderValidator) Validate(symbol string, size, price float64, leverage int) ValidationOutcome {
	notional := size * price
	if notional < v.minNotional {
		return ValidationOutcome{
			OK:      false,
			Message: fmt.Sprintf("order value $%.2f below minimum $%.2f", notional, v.minNotional),
		}
	}

	maxLeverage, err := v.maxLeverageFor(symbol)
	if err != nil {
		return ValidationOutcome{OK: false, Message: err.Error()}
	}
	if leverage > maxLeverage {
		return ValidationOutcome{
			OK:      false,
			Message: fmt.Sprintf("leverage %dx exceeds maximum %dx", leverage, maxLeverage),
		}
	}

	normalized := v.normalizer.Normalize(symbol, price, RefOracle)
	if math.Abs(normalized-price) > priceTickTolerance {
		return ValidationOutcome{
			OK:      false,
			Message: fmt.Sprintf("price $%v invalid, normalized to $%v", price, normalized),
		}
	}

	return ValidationOutcome{OK: true, Message: "order validation passed"}
}

func (v *OrderValidator) maxLeverageFor(symbol string) (int, error) {
	metas, err := v.market.Metadata()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch metadata for %s: %w", symbol, err)
	}
	for _, meta := range metas {
		if meta.Symbol == symbol {
			if meta.MaxLeverage <= 0 {
				return defaultMaxLeverage, nil
			}
			return meta.MaxLeverage, nil
		}
	}
	return 0, fmt.Errorf("asset %s not found in metadata", symbol)
}
