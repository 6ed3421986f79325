package trading

import (
	"fmt"
	"log"
	"time"

	"minos/config"
	"minos/exchange"
)

// spotQuoteAsset funds spot buys; sell proceeds are denominated in it too.
const spotQuoteAsset = "USDC"

// Executor turns advisory recommendations into exchange orders. Orders are
// prepared, validated, submitted and recorded strictly one at a time; the
// account balance is re-read before every order because each submission
// invalidates the previous snapshot.
type Executor struct {
	market  exchange.MarketData
	account exchange.AccountState
	gateway exchange.OrderGateway
	limits  config.TradingLimits

	normalizer *PriceNormalizer
	sizer      *SizeCalculator
	validator  *OrderValidator

	sleep func(time.Duration)
	now   func() time.Time
}

// NewExecutor creates an executor over the given accessors and limits.
func NewExecutor(market exchange.MarketData, account exchange.AccountState, gateway exchange.OrderGateway, limits config.TradingLimits) *Executor {
	normalizer := NewPriceNormalizer(market, limits.SpotFixedPair)
	return &Executor{
		market:     market,
		account:    account,
		gateway:    gateway,
		limits:     limits,
		normalizer: normalizer,
		sizer:      NewSizeCalculator(market),
		validator:  NewOrderValidator(market, normalizer, limits.MinOrderNotional),
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// ExecuteAdvice processes every recommendation in the advice document and
// returns one execution record per processed recommendation, in processing
// order. A failed recommendation never aborts the rest of the batch. In test
// mode every order's target notional is overridden with the configured test
// trade size.
func (e *Executor) ExecuteAdvice(advice *Advice, testMode bool) []OrderExecution {
	var executions []OrderExecution

	for _, rec := range advice.SpotRecommendations {
		if rec.Action == ActionHold {
			continue
		}
		e.pauseBetweenOrders(len(executions))
		executions = append(executions, e.executeSpot(rec, testMode))
	}

	for _, rec := range advice.PerpRecommendations {
		e.pauseBetweenOrders(len(executions))
		executions = append(executions, e.executePerp(rec, testMode))
	}

	return executions
}

func (e *Executor) executeSpot(rec SpotRecommendation, testMode bool) OrderExecution {
	isBuy := rec.Action == ActionBuy
	targetNotional := e.targetNotional(rec.SizeUSD, testMode)

	log.Printf("📈 Spot %s %s, target $%.2f", rec.Action, rec.Asset, targetNotional)

	// Balance snapshot, captured immediately before sizing
	budget, err := e.spotBudget(rec.Asset, isBuy)
	if err != nil {
		return e.failure(rec.Asset, fmt.Sprintf("failed to check balance: %v", err))
	}

	mid, err := e.market.MidPrice(rec.Asset)
	if err != nil {
		return e.failure(rec.Asset, fmt.Sprintf("failed to fetch price: %v", err))
	}
	limitPrice := e.normalizer.Normalize(rec.Asset, mid, RefOracle)

	sizing := e.sizer.OrderSize(rec.Asset, budget, limitPrice, 1, e.limits.SpotSafetyMargin, targetNotional)
	log.Printf("   %s", sizing.Rationale)
	if sizing.Quantity == 0 {
		return e.failure(rec.Asset, sizing.Rationale)
	}

	if outcome := e.validator.Validate(rec.Asset, sizing.Quantity, limitPrice, 1); !outcome.OK {
		return e.failure(rec.Asset, outcome.Message)
	}

	return e.submit(rec.Asset, isBuy, sizing.Quantity, limitPrice)
}

func (e *Executor) executePerp(rec PerpRecommendation, testMode bool) OrderExecution {
	isLong := rec.Direction == DirectionLong
	leverage := rec.Leverage
	if leverage < 1 {
		leverage = e.limits.DefaultLeverage
	}
	targetNotional := e.targetNotional(rec.SizeUSD, testMode)

	log.Printf("📊 Perp %s %s %dx, target $%.2f", rec.Direction, rec.Asset, leverage, targetNotional)

	// Balance snapshot, captured immediately before sizing
	balance, err := e.account.WithdrawableBalance()
	if err != nil {
		return e.failure(rec.Asset, fmt.Sprintf("failed to check balance: %v", err))
	}

	mid, err := e.market.MidPrice(rec.Asset)
	if err != nil {
		return e.failure(rec.Asset, fmt.Sprintf("failed to fetch price: %v", err))
	}
	limitPrice := e.normalizer.Normalize(rec.Asset, mid, RefOracle)

	sizing := e.sizer.OrderSize(rec.Asset, balance, limitPrice, leverage, e.limits.PerpSafetyMargin, targetNotional)
	log.Printf("   %s", sizing.Rationale)
	if sizing.Quantity == 0 {
		return e.failure(rec.Asset, sizing.Rationale)
	}

	if outcome := e.validator.Validate(rec.Asset, sizing.Quantity, limitPrice, leverage); !outcome.OK {
		return e.failure(rec.Asset, outcome.Message)
	}

	// The sizing ceiling assumes the requested leverage is in force on the
	// venue, so a failed leverage update blocks the submission.
	if err := e.gateway.SetLeverage(rec.Asset, leverage, true); err != nil {
		return e.failure(rec.Asset, fmt.Sprintf("set leverage: %v", err))
	}

	return e.submit(rec.Asset, isLong, sizing.Quantity, limitPrice)
}

// submit places an immediate-or-cancel order and records the outcome.
func (e *Executor) submit(asset string, isBuy bool, quantity, limitPrice float64) OrderExecution {
	result, err := e.gateway.SubmitOrder(asset, isBuy, quantity, limitPrice, exchange.TifIoc)
	if err != nil {
		return e.failure(asset, err.Error())
	}
	if result.Status == exchange.OrderRejected {
		return e.failure(asset, result.Raw)
	}

	orderID := result.OrderID
	log.Printf("✓ Order accepted: %s %v @ %v (order %d, %s)", asset, quantity, limitPrice, orderID, result.Status)
	return OrderExecution{
		Asset:     asset,
		Success:   true,
		OrderID:   &orderID,
		Timestamp: e.now(),
	}
}

// VerifyExecution polls order status and reports whether the order filled.
// Verification is advisory: a false result means "not confirmed", not "did
// not happen".
func (e *Executor) VerifyExecution(execution OrderExecution) bool {
	if !execution.Success || execution.OrderID == nil {
		return false
	}
	status, err := e.gateway.OrderStatus(*execution.OrderID)
	if err != nil {
		log.Printf("⚠ Failed to verify order %d: %v", *execution.OrderID, err)
		return false
	}
	return status == exchange.OrderFilled
}

// spotBudget returns the quote-currency budget available on the spot venue.
// Buys spend the quote asset directly; sells are bounded by the holdings of
// the asset being sold, expressed in quote via the current mid.
func (e *Executor) spotBudget(asset string, isBuy bool) (float64, error) {
	balances, err := e.account.SpotBalances()
	if err != nil {
		return 0, err
	}

	funding := asset
	if isBuy {
		funding = spotQuoteAsset
	}
	var available float64
	for _, b := range balances {
		if b.Symbol == funding {
			available = b.Total - b.Held
			break
		}
	}
	if available <= 0 {
		return 0, nil
	}
	if isBuy {
		return available, nil
	}

	mid, err := e.market.MidPrice(asset)
	if err != nil {
		return 0, err
	}
	return available * mid, nil
}

func (e *Executor) targetNotional(sizeUSD float64, testMode bool) float64 {
	if testMode {
		sizeUSD = e.limits.TestTradeSize
	}
	if sizeUSD > e.limits.MaxOrderNotional {
		sizeUSD = e.limits.MaxOrderNotional
	}
	return sizeUSD
}

// pauseBetweenOrders separates consecutive submissions so the venue's rate
// limits are respected and the balance state settles before the next read.
func (e *Executor) pauseBetweenOrders(processed int) {
	if processed == 0 {
		return
	}
	e.sleep(e.limits.OrderDelay())
}

func (e *Executor) failure(asset, message string) OrderExecution {
	log.Printf("❌ %s: %s", asset, message)
	return OrderExecution{
		Asset:     asset,
		Success:   false,
		Error:     message,
		Timestamp: e.now(),
	}
}
