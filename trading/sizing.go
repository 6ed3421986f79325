package trading

import (
	"fmt"

	"github.com/shopspring/decimal"

	"minos/exchange"
)

// SizeCalculator converts an available balance into a safe order quantity.
// Quantities are always truncated toward zero at the asset's size decimals:
// rounding up could push the order notional above the safe ceiling.
type SizeCalculator struct {
	market exchange.MarketData
}

func NewSizeCalculator(market exchange.MarketData) *SizeCalculator {
	return &SizeCalculator{market: market}
}

// SafeSize computes the largest quantity whose notional does not exceed
// balance × leverage × safetyMargin. A zero quantity means "do not submit";
// the rationale then carries the failure reason.
func (c *SizeCalculator) SafeSize(symbol string, balance, price float64, leverage int, safetyMargin float64) SizingResult {
	meta, err := c.metadataFor(symbol)
	if err != nil {
		return SizingResult{Quantity: 0, Rationale: err.Error()}
	}
	return sizeWithin(symbol, balance, price, leverage, safetyMargin, meta.SzDecimals)
}

// OrderSize bounds a recommendation's target notional by the safe ceiling,
// so the resulting quantity honors both the advised budget and the balance.
func (c *SizeCalculator) OrderSize(symbol string, balance, price float64, leverage int, safetyMargin, targetNotional float64) SizingResult {
	meta, err := c.metadataFor(symbol)
	if err != nil {
		return SizingResult{Quantity: 0, Rationale: err.Error()}
	}

	safe := sizeWithin(symbol, balance, price, leverage, safetyMargin, meta.SzDecimals)
	if safe.Quantity == 0 {
		return safe
	}

	target := sizeWithin(symbol, targetNotional, price, 1, 1.0, meta.SzDecimals)
	if target.Quantity < safe.Quantity {
		return target
	}
	return safe
}

func (c *SizeCalculator) metadataFor(symbol string) (exchange.AssetMetadata, error) {
	metas, err := c.market.Metadata()
	if err != nil {
		return exchange.AssetMetadata{}, fmt.Errorf("failed to fetch metadata for %s: %w", symbol, err)
	}
	for _, meta := range metas {
		if meta.Symbol == symbol {
			return meta, nil
		}
	}
	return exchange.AssetMetadata{}, fmt.Errorf("asset %s not found in metadata", symbol)
}

func sizeWithin(symbol string, balance, price float64, leverage int, safetyMargin float64, szDecimals int) SizingResult {
	if price <= 0 {
		return SizingResult{Quantity: 0, Rationale: fmt.Sprintf("invalid price %v for %s", price, symbol)}
	}
	if balance < 0 {
		return SizingResult{Quantity: 0, Rationale: fmt.Sprintf("malformed balance %v for %s", balance, symbol)}
	}
	if leverage < 1 {
		return SizingResult{Quantity: 0, Rationale: fmt.Sprintf("invalid leverage %d for %s", leverage, symbol)}
	}

	maxNotional := decimal.NewFromFloat(balance).
		Mul(decimal.NewFromInt(int64(leverage))).
		Mul(decimal.NewFromFloat(safetyMargin))
	px := decimal.NewFromFloat(price)

	qty := maxNotional.Div(px).RoundDown(int32(szDecimals))
	notional := qty.Mul(px)

	quantity, _ := qty.Float64()
	return SizingResult{
		Quantity:  quantity,
		Rationale: fmt.Sprintf("Size %s %s ($%s)", qty.StringFixed(int32(szDecimals)), symbol, notional.StringFixed(2)),
	}
}
