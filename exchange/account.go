package exchange

import (
	"fmt"
	"time"
)

// WithdrawableBalance returns the cross-margin withdrawable balance. Callers
// must treat the value as a snapshot that the next order invalidates.
func (c *Client) WithdrawableBalance() (float64, error) {
	state, err := c.info.UserState(c.address)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch user state: %w", err)
	}
	return parseFloat(state.Withdrawable), nil
}

// SpotBalances returns all spot wallet holdings.
func (c *Client) SpotBalances() ([]SpotBalance, error) {
	state, err := c.info.SpotUserState(c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spot state: %w", err)
	}

	out := make([]SpotBalance, 0, len(state.Balances))
	for _, b := range state.Balances {
		out = append(out, SpotBalance{
			Symbol: b.Coin,
			Total:  parseFloat(b.Total),
			Held:   parseFloat(b.Hold),
		})
	}
	return out, nil
}

// MarginSummary returns the cross-margin account summary.
func (c *Client) MarginSummary() (MarginSummary, error) {
	state, err := c.info.UserState(c.address)
	if err != nil {
		return MarginSummary{}, fmt.Errorf("failed to fetch user state: %w", err)
	}
	return MarginSummary{
		AccountValue:    parseFloat(state.MarginSummary.AccountValue),
		TotalMarginUsed: parseFloat(state.MarginSummary.TotalMarginUsed),
	}, nil
}

// Positions returns all open perpetual positions.
func (c *Client) Positions() ([]Position, error) {
	state, err := c.info.UserState(c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user state: %w", err)
	}

	out := make([]Position, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		pos := ap.Position
		out = append(out, Position{
			Symbol:           pos.Coin,
			Leverage:         float64(pos.Leverage.Value),
			PositionValue:    parseFloat(pos.PositionValue),
			EntryPrice:       parseFloat(pos.EntryPx),
			LiquidationPrice: parseFloat(pos.LiquidationPx),
		})
	}
	return out, nil
}

// FillsSince returns the account's trade fills from `since` until now.
func (c *Client) FillsSince(since time.Time) ([]Fill, error) {
	fills, err := c.info.UserFillsByTime(c.address, since.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fills: %w", err)
	}

	out := make([]Fill, 0, len(fills))
	for _, f := range fills {
		out = append(out, Fill{
			Symbol:    f.Coin,
			Price:     parseFloat(f.Px),
			Size:      parseFloat(f.Sz),
			Direction: f.Dir,
			ClosedPnl: parseFloat(f.ClosedPnl),
			Time:      time.UnixMilli(f.Time),
		})
	}
	return out, nil
}
