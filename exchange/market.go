package exchange

import (
	"fmt"
)

// MidPrice returns the current mid price for a symbol.
func (c *Client) MidPrice(symbol string) (float64, error) {
	mids, err := c.info.AllMids()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch mids: %w", err)
	}
	raw, ok := mids[symbol]
	if !ok {
		return 0, fmt.Errorf("no mid price for %s", symbol)
	}
	price := parseFloat(raw)
	if price <= 0 {
		return 0, fmt.Errorf("invalid mid price %q for %s", raw, symbol)
	}
	return price, nil
}

// Metadata returns order constraints for every listed asset.
func (c *Client) Metadata() ([]AssetMetadata, error) {
	meta, err := c.info.Meta()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}

	out := make([]AssetMetadata, 0, len(meta.Universe))
	for _, asset := range meta.Universe {
		out = append(out, AssetMetadata{
			Symbol:      asset.Name,
			SzDecimals:  asset.SzDecimals,
			MaxLeverage: asset.MaxLeverage,
		})
	}
	return out, nil
}

// Contexts returns oracle and mark prices for every listed asset. The venue
// reports contexts index-aligned with the metadata universe and without coin
// names, so the two lists are joined here to give callers a symbol-keyed view.
func (c *Client) Contexts() ([]AssetContext, error) {
	meta, ctxs, err := c.info.MetaAndAssetCtxs()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset contexts: %w", err)
	}
	if len(ctxs) > len(meta.Universe) {
		ctxs = ctxs[:len(meta.Universe)]
	}

	out := make([]AssetContext, 0, len(ctxs))
	for i, ctx := range ctxs {
		out = append(out, AssetContext{
			Symbol:      meta.Universe[i].Name,
			OraclePrice: parseFloat(ctx.OraclePx),
			MarkPrice:   parseFloat(ctx.MarkPx),
		})
	}
	return out, nil
}
