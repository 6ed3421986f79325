package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/sonirico/go-hyperliquid"
)

// SubmitOrder places a limit order and maps the venue response into an
// OrderResult. A filled status wins over a resting one when extracting the
// order id; under IOC both should never appear, but the venue response format
// allows it.
func (c *Client) SubmitOrder(symbol string, isBuy bool, size, limitPrice float64, tif TimeInForce) (OrderResult, error) {
	req := hyperliquid.CreateOrderRequest{
		Coin:  symbol,
		IsBuy: isBuy,
		Size:  size,
		Price: limitPrice,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: string(tif)},
		},
	}

	status, err := c.exchange.Order(req, nil)
	if err != nil {
		return OrderResult{}, fmt.Errorf("order submission failed: %w", err)
	}

	raw, _ := json.Marshal(status)
	result := OrderResult{Raw: string(raw)}

	switch {
	case status.Filled != nil:
		result.Status = OrderFilled
		result.OrderID = status.Filled.Oid
	case status.Resting != nil:
		result.Status = OrderResting
		result.OrderID = status.Resting.Oid
	default:
		result.Status = OrderRejected
	}
	return result, nil
}

// SetLeverage updates the venue-side leverage for a symbol before an order.
func (c *Client) SetLeverage(symbol string, leverage int, crossMargin bool) error {
	if _, err := c.exchange.UpdateLeverage(leverage, symbol, crossMargin); err != nil {
		return fmt.Errorf("failed to update leverage for %s: %w", symbol, err)
	}
	return nil
}

// OrderStatus queries the status of a previously submitted order by id.
func (c *Client) OrderStatus(orderID int64) (string, error) {
	res, err := c.info.QueryOrderByOid(c.address, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to query order %d: %w", orderID, err)
	}
	if res.Order.Status != "" {
		return res.Order.Status, nil
	}
	return res.Status, nil
}
