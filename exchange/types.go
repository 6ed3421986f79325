package exchange

import "time"

// AssetMetadata per-asset order constraints, fetched fresh for every order
// preparation since the exchange can change them.
type AssetMetadata struct {
	Symbol      string `json:"symbol"`
	SzDecimals  int    `json:"sz_decimals"`  // decimal places order sizes must round to
	MaxLeverage int    `json:"max_leverage"` // venue leverage ceiling for the asset
}

// AssetContext exchange-published reference prices for one asset
type AssetContext struct {
	Symbol      string  `json:"symbol"`
	OraclePrice float64 `json:"oracle_price"`
	MarkPrice   float64 `json:"mark_price"`
}

// SpotBalance one spot wallet holding
type SpotBalance struct {
	Symbol string  `json:"symbol"`
	Total  float64 `json:"total"`
	Held   float64 `json:"held"` // amount locked in open orders
}

// MarginSummary cross-margin account snapshot
type MarginSummary struct {
	AccountValue    float64 `json:"account_value"`
	TotalMarginUsed float64 `json:"total_margin_used"`
}

// Position one open perpetual position
type Position struct {
	Symbol           string  `json:"symbol"`
	Leverage         float64 `json:"leverage"`
	PositionValue    float64 `json:"position_value"`
	EntryPrice       float64 `json:"entry_price"`
	LiquidationPrice float64 `json:"liquidation_price"` // 0 when the venue reports none
}

// Fill one historical trade fill
type Fill struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Direction string    `json:"direction"` // e.g. "Open Long", "Buy"
	ClosedPnl float64   `json:"closed_pnl"`
	Time      time.Time `json:"time"`
}

// TimeInForce order time-in-force accepted by the venue
type TimeInForce string

const (
	TifIoc TimeInForce = "Ioc" // immediate-or-cancel: fill now or cancel, never rests
	TifGtc TimeInForce = "Gtc" // good-til-cancel: used only by manual test paths
)

// Order submission outcomes
const (
	OrderFilled   = "filled"
	OrderResting  = "resting"
	OrderRejected = "rejected"
)

// OrderResult outcome of a single order submission. Rejections are reported
// here rather than as errors; the error return of SubmitOrder is reserved for
// transport and signing failures.
type OrderResult struct {
	Status  string `json:"status"`   // OrderFilled, OrderResting or OrderRejected
	OrderID int64  `json:"order_id"` // 0 when rejected
	Raw     string `json:"raw"`      // raw exchange response, kept for diagnostics
}

// MarketData read-only access to live prices and per-asset metadata
type MarketData interface {
	MidPrice(symbol string) (float64, error)
	Metadata() ([]AssetMetadata, error)
	Contexts() ([]AssetContext, error)
}

// AccountState read-only access to balances and account history
type AccountState interface {
	WithdrawableBalance() (float64, error)
	SpotBalances() ([]SpotBalance, error)
	MarginSummary() (MarginSummary, error)
	Positions() ([]Position, error)
	FillsSince(since time.Time) ([]Fill, error)
}

// OrderGateway order submission and venue-side leverage control
type OrderGateway interface {
	SubmitOrder(symbol string, isBuy bool, size, limitPrice float64, tif TimeInForce) (OrderResult, error)
	SetLeverage(symbol string, leverage int, crossMargin bool) error
	OrderStatus(orderID int64) (string, error)
}
