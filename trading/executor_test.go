package trading

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minos/exchange"
)

// executorMarket lists ETH at a mid of 10 with the oracle agreeing, so
// normalization is a no-op and numbers stay easy to follow.
func executorMarket() *fakeMarket {
	return &fakeMarket{
		mids: map[string]float64{"ETH": 10.0},
		metas: []exchange.AssetMetadata{
			{Symbol: "ETH", SzDecimals: 3, MaxLeverage: 20},
		},
		ctxs: []exchange.AssetContext{
			{Symbol: "ETH", OraclePrice: 10.0, MarkPrice: 10.0},
		},
	}
}

func fundedAccount() *fakeAccount {
	return &fakeAccount{
		withdrawable: 100.0,
		spot: []exchange.SpotBalance{
			{Symbol: "USDC", Total: 120.0, Held: 20.0},
			{Symbol: "ETH", Total: 3.0},
		},
	}
}

func TestExecuteSpotBuy(t *testing.T) {
	gateway := newFakeGateway()
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{SpotRecommendations: []SpotRecommendation{
		{Asset: "ETH", Action: ActionBuy, SizeUSD: 50},
	}}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 1)
	assert.True(t, executions[0].Success)
	require.NotNil(t, executions[0].OrderID)
	assert.Equal(t, int64(42), *executions[0].OrderID)
	assert.Empty(t, executions[0].Error)

	require.Len(t, gateway.orders, 1)
	order := gateway.orders[0]
	assert.Equal(t, "ETH", order.symbol)
	assert.True(t, order.isBuy)
	assert.Equal(t, 5.0, order.size) // $50 target / $10
	assert.Equal(t, 10.0, order.price)
	assert.Equal(t, exchange.TifIoc, order.tif)
}

func TestExecuteSpotSellBoundedByHoldings(t *testing.T) {
	gateway := newFakeGateway()
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	// 3 ETH held = $30 budget; a $200 target must shrink to it
	advice := &Advice{SpotRecommendations: []SpotRecommendation{
		{Asset: "ETH", Action: ActionSell, SizeUSD: 200},
	}}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 1)
	assert.True(t, executions[0].Success)
	require.Len(t, gateway.orders, 1)
	assert.False(t, gateway.orders[0].isBuy)
	assert.Equal(t, 2.85, gateway.orders[0].size) // 30 × 0.95 / 10
}

func TestExecuteSkipsHold(t *testing.T) {
	gateway := newFakeGateway()
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{SpotRecommendations: []SpotRecommendation{
		{Asset: "ETH", Action: ActionHold, SizeUSD: 50},
	}}

	executions := e.ExecuteAdvice(advice, false)

	assert.Empty(t, executions)
	assert.Empty(t, gateway.orders)
}

func TestExecutePerpSetsLeverageBeforeSubmit(t *testing.T) {
	gateway := newFakeGateway()
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{PerpRecommendations: []PerpRecommendation{
		{Asset: "ETH", Direction: DirectionLong, SizeUSD: 500, Leverage: 2},
	}}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 1)
	assert.True(t, executions[0].Success)
	assert.Equal(t, 2, gateway.leverages["ETH"])

	// $500 target exceeds the 100 × 2 × 0.90 = $180 ceiling
	require.Len(t, gateway.orders, 1)
	assert.Equal(t, 18.0, gateway.orders[0].size)
}

func TestExecutePerpLeverageFailureBlocksSubmission(t *testing.T) {
	gateway := newFakeGateway()
	gateway.leverageErr = errors.New("venue said no")
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{PerpRecommendations: []PerpRecommendation{
		{Asset: "ETH", Direction: DirectionShort, SizeUSD: 100, Leverage: 2},
	}}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 1)
	assert.False(t, executions[0].Success)
	assert.Nil(t, executions[0].OrderID)
	assert.Contains(t, executions[0].Error, "set leverage")
	assert.Empty(t, gateway.orders, "no order may reach the venue")
}

func TestExecuteRejectedOrderRecordsRawResponse(t *testing.T) {
	gateway := newFakeGateway()
	gateway.result = exchange.OrderResult{Status: exchange.OrderRejected, Raw: `{"status":"err","response":"Insufficient margin"}`}
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{SpotRecommendations: []SpotRecommendation{
		{Asset: "ETH", Action: ActionBuy, SizeUSD: 50},
	}}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 1)
	assert.False(t, executions[0].Success)
	assert.Nil(t, executions[0].OrderID)
	assert.Equal(t, gateway.result.Raw, executions[0].Error)
}

func TestExecuteSubmitErrorRecordsErrorText(t *testing.T) {
	gateway := newFakeGateway()
	gateway.submitErr = errors.New("connection reset")
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{SpotRecommendations: []SpotRecommendation{
		{Asset: "ETH", Action: ActionBuy, SizeUSD: 50},
	}}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 1)
	assert.False(t, executions[0].Success)
	assert.Contains(t, executions[0].Error, "connection reset")
}

func TestExecuteBatchContinuesAfterFailure(t *testing.T) {
	market := executorMarket()
	account := fundedAccount()
	account.spot = nil // spot budget is zero, spot order fails
	gateway := newFakeGateway()
	e, slept := newTestExecutor(market, account, gateway)

	advice := &Advice{
		SpotRecommendations: []SpotRecommendation{
			{Asset: "ETH", Action: ActionBuy, SizeUSD: 50},
		},
		PerpRecommendations: []PerpRecommendation{
			{Asset: "ETH", Direction: DirectionLong, SizeUSD: 50, Leverage: 1},
		},
	}

	executions := e.ExecuteAdvice(advice, false)

	require.Len(t, executions, 2)
	assert.False(t, executions[0].Success)
	assert.True(t, executions[1].Success)

	// The inter-order delay separates the two attempts
	require.Len(t, *slept, 1)
	assert.Equal(t, 2*time.Second, (*slept)[0])
}

func TestExecuteTestModeOverridesSize(t *testing.T) {
	gateway := newFakeGateway()
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	advice := &Advice{SpotRecommendations: []SpotRecommendation{
		{Asset: "ETH", Action: ActionBuy, SizeUSD: 5000},
	}}

	executions := e.ExecuteAdvice(advice, true)

	require.Len(t, executions, 1)
	require.Len(t, gateway.orders, 1)
	assert.Equal(t, 1.5, gateway.orders[0].size) // $15 test size / $10
}

func TestVerifyExecution(t *testing.T) {
	gateway := newFakeGateway()
	gateway.statuses[42] = exchange.OrderFilled
	gateway.statuses[43] = exchange.OrderResting
	e, _ := newTestExecutor(executorMarket(), fundedAccount(), gateway)

	filled, resting := int64(42), int64(43)
	now := time.Now()

	assert.True(t, e.VerifyExecution(OrderExecution{Asset: "ETH", Success: true, OrderID: &filled, Timestamp: now}))
	assert.False(t, e.VerifyExecution(OrderExecution{Asset: "ETH", Success: true, OrderID: &resting, Timestamp: now}))
	assert.False(t, e.VerifyExecution(OrderExecution{Asset: "ETH", Success: false, Timestamp: now}))

	gateway.statusErr = errors.New("lookup failed")
	assert.False(t, e.VerifyExecution(OrderExecution{Asset: "ETH", Success: true, OrderID: &filled, Timestamp: now}),
		"a lookup error means not verified, not an exception")
}
