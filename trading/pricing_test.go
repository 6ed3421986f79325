package trading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"minos/exchange"
)

func ethContextMarket(oracle, mark float64) *fakeMarket {
	return &fakeMarket{
		ctxs: []exchange.AssetContext{
			{Symbol: "ETH", OraclePrice: oracle, MarkPrice: mark},
		},
	}
}

func TestNormalizeFixedPairUsesFourDecimals(t *testing.T) {
	// The designated pair never needs a context lookup
	n := NewPriceNormalizer(&fakeMarket{ctxErr: errors.New("unreachable")}, "PURR")

	assert.Equal(t, 0.4568, n.Normalize("PURR", 0.4567891, RefOracle))
	assert.Equal(t, 0.4568, n.Normalize("PURR", 0.4567891, RefMark))
}

func TestNormalizeOracleReturnsExchangeOracle(t *testing.T) {
	n := NewPriceNormalizer(ethContextMarket(3001.5, 3002.7), "PURR")

	// The caller's estimate is replaced with the venue's oracle figure
	assert.Equal(t, 3001.5, n.Normalize("ETH", 2990.123, RefOracle))
}

func TestNormalizeMarkCutsSignificantFigures(t *testing.T) {
	n := NewPriceNormalizer(ethContextMarket(3001.5, 3002.7), "PURR")

	assert.Equal(t, 2990.1, n.Normalize("ETH", 2990.1234, RefMark))
	assert.Equal(t, 0.12, n.Normalize("ETH", 0.123456, RefMark))
}

func TestNormalizeUnknownAssetFallsBack(t *testing.T) {
	n := NewPriceNormalizer(ethContextMarket(3001.5, 3002.7), "PURR")

	// Degraded mode: round to 2 decimals, never an error
	assert.Equal(t, 123.46, n.Normalize("DOGE", 123.4567, RefOracle))
}

func TestNormalizeContextFetchErrorFallsBack(t *testing.T) {
	n := NewPriceNormalizer(&fakeMarket{ctxErr: errors.New("boom")}, "PURR")

	assert.Equal(t, 123.46, n.Normalize("ETH", 123.4567, RefOracle))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewPriceNormalizer(ethContextMarket(3001.5, 3002.7), "PURR")

	for _, tc := range []struct {
		symbol string
		price  float64
		ref    PriceReference
	}{
		{"PURR", 0.4567891, RefOracle},
		{"ETH", 2990.1234, RefMark},
		{"ETH", 2990.1234, RefOracle},
		{"DOGE", 123.4567, RefOracle},
	} {
		once := n.Normalize(tc.symbol, tc.price, tc.ref)
		twice := n.Normalize(tc.symbol, once, tc.ref)
		assert.Equal(t, once, twice, "%s %v %s", tc.symbol, tc.price, tc.ref)
	}
}
