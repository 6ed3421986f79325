package trading

import (
	"errors"
	"time"

	"minos/config"
	"minos/exchange"
)

// fakeMarket scripts the market-data accessor.
type fakeMarket struct {
	mids  map[string]float64
	metas []exchange.AssetMetadata
	ctxs  []exchange.AssetContext

	midErr  error
	metaErr error
	ctxErr  error
}

func (m *fakeMarket) MidPrice(symbol string) (float64, error) {
	if m.midErr != nil {
		return 0, m.midErr
	}
	price, ok := m.mids[symbol]
	if !ok {
		return 0, errors.New("no mid price for " + symbol)
	}
	return price, nil
}

func (m *fakeMarket) Metadata() ([]exchange.AssetMetadata, error) {
	if m.metaErr != nil {
		return nil, m.metaErr
	}
	return m.metas, nil
}

func (m *fakeMarket) Contexts() ([]exchange.AssetContext, error) {
	if m.ctxErr != nil {
		return nil, m.ctxErr
	}
	return m.ctxs, nil
}

// fakeAccount scripts the account-state accessor.
type fakeAccount struct {
	withdrawable float64
	spot         []exchange.SpotBalance
	margin       exchange.MarginSummary
	positions    []exchange.Position
	fills        []exchange.Fill

	balanceErr error

	balanceReads int
}

func (a *fakeAccount) WithdrawableBalance() (float64, error) {
	a.balanceReads++
	if a.balanceErr != nil {
		return 0, a.balanceErr
	}
	return a.withdrawable, nil
}

func (a *fakeAccount) SpotBalances() ([]exchange.SpotBalance, error) {
	a.balanceReads++
	if a.balanceErr != nil {
		return nil, a.balanceErr
	}
	return a.spot, nil
}

func (a *fakeAccount) MarginSummary() (exchange.MarginSummary, error) {
	return a.margin, nil
}

func (a *fakeAccount) Positions() ([]exchange.Position, error) {
	return a.positions, nil
}

func (a *fakeAccount) FillsSince(time.Time) ([]exchange.Fill, error) {
	return a.fills, nil
}

// submittedOrder one order the fake gateway received.
type submittedOrder struct {
	symbol string
	isBuy  bool
	size   float64
	price  float64
	tif    exchange.TimeInForce
}

// fakeGateway records submissions and plays back scripted results.
type fakeGateway struct {
	orders    []submittedOrder
	leverages map[string]int

	result      exchange.OrderResult
	submitErr   error
	leverageErr error

	statuses  map[int64]string
	statusErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		leverages: make(map[string]int),
		statuses:  make(map[int64]string),
		result:    exchange.OrderResult{Status: exchange.OrderFilled, OrderID: 42, Raw: `{"status":"ok"}`},
	}
}

func (g *fakeGateway) SubmitOrder(symbol string, isBuy bool, size, limitPrice float64, tif exchange.TimeInForce) (exchange.OrderResult, error) {
	g.orders = append(g.orders, submittedOrder{symbol: symbol, isBuy: isBuy, size: size, price: limitPrice, tif: tif})
	if g.submitErr != nil {
		return exchange.OrderResult{}, g.submitErr
	}
	return g.result, nil
}

func (g *fakeGateway) SetLeverage(symbol string, leverage int, crossMargin bool) error {
	if g.leverageErr != nil {
		return g.leverageErr
	}
	g.leverages[symbol] = leverage
	return nil
}

func (g *fakeGateway) OrderStatus(orderID int64) (string, error) {
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.statuses[orderID], nil
}

func testLimits() config.TradingLimits {
	return config.TradingLimits{
		MinOrderNotional:  10.0,
		MaxOrderNotional:  1000.0,
		OrderDelaySeconds: 2.0,
		SpotSafetyMargin:  0.95,
		PerpSafetyMargin:  0.90,
		DefaultLeverage:   1,
		TestTradeSize:     15.0,
		SpotFixedPair:     "PURR",
	}
}

// newTestExecutor wires an executor over fakes with sleeping stubbed out.
func newTestExecutor(market *fakeMarket, account *fakeAccount, gateway *fakeGateway) (*Executor, *[]time.Duration) {
	e := NewExecutor(market, account, gateway, testLimits())
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e, &slept
}
