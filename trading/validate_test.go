package trading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"minos/exchange"
)

func validatorOver(market *fakeMarket) *OrderValidator {
	return NewOrderValidator(market, NewPriceNormalizer(market, "PURR"), 10.0)
}

func validationMarket() *fakeMarket {
	return &fakeMarket{
		metas: []exchange.AssetMetadata{
			{Symbol: "ETH", SzDecimals: 3, MaxLeverage: 20},
			{Symbol: "KNC", SzDecimals: 1}, // no leverage cap published
		},
		ctxs: []exchange.AssetContext{
			{Symbol: "ETH", OraclePrice: 15.0, MarkPrice: 15.1},
			{Symbol: "KNC", OraclePrice: 2.0, MarkPrice: 2.0},
		},
	}
}

func TestValidateRejectsBelowMinimumNotional(t *testing.T) {
	v := validatorOver(validationMarket())

	outcome := v.Validate("ETH", 0.5, 15.0, 1)

	assert.False(t, outcome.OK)
	assert.Equal(t, "order value $7.50 below minimum $10.00", outcome.Message)
}

func TestValidateAcceptsExactMinimumNotional(t *testing.T) {
	market := validationMarket()
	market.ctxs[0].OraclePrice = 10.0
	v := validatorOver(market)

	outcome := v.Validate("ETH", 1.0, 10.0, 1)

	assert.True(t, outcome.OK, outcome.Message)
}

func TestValidateLeverageCeiling(t *testing.T) {
	v := validatorOver(validationMarket())

	atMax := v.Validate("ETH", 2.0, 15.0, 20)
	assert.True(t, atMax.OK, atMax.Message)

	over := v.Validate("ETH", 2.0, 15.0, 21)
	assert.False(t, over.OK)
	assert.Equal(t, "leverage 21x exceeds maximum 20x", over.Message)
}

func TestValidateDefaultsLeverageCeiling(t *testing.T) {
	v := validatorOver(validationMarket())

	// KNC publishes no ceiling, so 50x applies
	at := v.Validate("KNC", 10.0, 2.0, 50)
	assert.True(t, at.OK, at.Message)

	over := v.Validate("KNC", 10.0, 2.0, 51)
	assert.False(t, over.OK)
	assert.Contains(t, over.Message, "maximum 50x")
}

func TestValidateRejectsPriceOffTick(t *testing.T) {
	v := validatorOver(validationMarket())

	// Oracle is 15.0; a price 0.5 away normalizes to it and fails the
	// tolerance check
	outcome := v.Validate("ETH", 2.0, 15.5, 1)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "15.5")
	assert.Contains(t, outcome.Message, "15")
}

func TestValidateMetadataFetchError(t *testing.T) {
	v := validatorOver(&fakeMarket{metaErr: errors.New("boom")})

	outcome := v.Validate("ETH", 2.0, 15.0, 1)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "boom")
}

func TestValidateShortCircuitsOnFirstFailure(t *testing.T) {
	// Notional and leverage are both wrong; only the notional message
	// surfaces
	v := validatorOver(validationMarket())

	outcome := v.Validate("ETH", 0.1, 15.0, 99)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "below minimum")
	assert.NotContains(t, outcome.Message, "leverage")
}
