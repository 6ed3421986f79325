package trading

import (
	"log"
	"strconv"

	"github.com/shopspring/decimal"

	"minos/exchange"
)

// PriceReference selects which exchange reference price normalization targets.
type PriceReference string

const (
	RefOracle PriceReference = "oracle"
	RefMark   PriceReference = "mark"
)

const (
	fixedPairDecimals = 4 // the designated low-liquidity spot pair trades at 4 decimals
	fallbackDecimals  = 2
	markSigFigs       = 5
)

// PriceNormalizer maps a raw observed price into a price the exchange will
// accept. It never fails: any lookup problem degrades to rounding the raw
// price, since a rough price is preferable to aborting the pipeline.
type PriceNormalizer struct {
	market    exchange.MarketData
	fixedPair string
}

func NewPriceNormalizer(market exchange.MarketData, fixedPair string) *PriceNormalizer {
	return &PriceNormalizer{market: market, fixedPair: fixedPair}
}

// Normalize returns an exchange-acceptable price for the asset. For the
// oracle reference the exchange's own oracle figure replaces the caller's
// estimate, because that is the price the matching engine evaluates orders
// against. For the mark reference the raw price is cut to 5 significant
// figures and 2 decimals.
func (n *PriceNormalizer) Normalize(symbol string, price float64, ref PriceReference) float64 {
	if symbol == n.fixedPair {
		return roundTo(price, fixedPairDecimals)
	}

	ctxs, err := n.market.Contexts()
	if err != nil {
		log.Printf("⚠ Failed to fetch asset contexts for %s: %v", symbol, err)
		return roundTo(price, fallbackDecimals)
	}

	var ctx *exchange.AssetContext
	for i := range ctxs {
		if ctxs[i].Symbol == symbol {
			ctx = &ctxs[i]
			break
		}
	}
	if ctx == nil {
		log.Printf("⚠ Asset %s not found in metadata", symbol)
		return roundTo(price, fallbackDecimals)
	}

	if ref == RefOracle {
		if ctx.OraclePrice <= 0 {
			return roundTo(price, fallbackDecimals)
		}
		return ctx.OraclePrice
	}
	return roundTo(sigFigs(price, markSigFigs), fallbackDecimals)
}

func roundTo(price float64, places int) float64 {
	return decimal.NewFromFloat(price).Round(int32(places)).InexactFloat64()
}

// sigFigs cuts a value to n significant figures.
func sigFigs(v float64, n int) float64 {
	out, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', n, 64), 64)
	if err != nil {
		return v
	}
	return out
}
