// Package market assembles a compact market snapshot that frames the
// advisor prompt. Binance futures is used as the data source because
// its public endpoints need no credentials and cover the large caps.
package market

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

// Snapshot summarizes one symbol's recent price action.
type Snapshot struct {
	Symbol      string    `json:"symbol"`
	LastPrice   float64   `json:"last_price"`
	Change1h    float64   `json:"change_1h_pct"`
	Change4h    float64   `json:"change_4h_pct"`
	Change24h   float64   `json:"change_24h_pct"`
	Volume24h   float64   `json:"volume_24h"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

type klineService interface {
	Do(ctx context.Context, opts ...futures.RequestOption) ([]*futures.Kline, error)
}

// Provider fetches snapshots for the advisor's market context section.
type Provider struct {
	client *futures.Client

	// klinesFor is swapped in tests
	klinesFor func(symbol string) klineService
}

func NewProvider() *Provider {
	client := futures.NewClient("", "")
	p := &Provider{client: client}
	p.klinesFor = func(symbol string) klineService {
		return client.NewKlinesService().Symbol(symbol).Interval("1h").Limit(25)
	}
	return p
}

// Snapshot pulls 25 hourly candles and derives 1h/4h/24h changes from
// them. Closes are used so a half-formed current candle does not skew
// the figures.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	klines, err := p.klinesFor(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines for %s: %w", symbol, err)
	}
	if len(klines) < 2 {
		return nil, fmt.Errorf("not enough kline data for %s", symbol)
	}

	closes := make([]float64, 0, len(klines))
	var volume float64
	for _, k := range klines {
		c, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed close price for %s: %w", symbol, err)
		}
		closes = append(closes, c)
		if v, err := strconv.ParseFloat(k.Volume, 64); err == nil {
			volume += v
		}
	}

	last := closes[len(closes)-1]
	return &Snapshot{
		Symbol:      symbol,
		LastPrice:   last,
		Change1h:    percentChange(closeAgo(closes, 1), last),
		Change4h:    percentChange(closeAgo(closes, 4), last),
		Change24h:   percentChange(closeAgo(closes, 24), last),
		Volume24h:   volume,
		RetrievedAt: time.Now(),
	}, nil
}

// Overview fetches snapshots for a set of symbols, skipping any that
// fail so one bad symbol cannot empty the advisor's context.
func (p *Provider) Overview(ctx context.Context, symbols []string) []Snapshot {
	snapshots := make([]Snapshot, 0, len(symbols))
	for _, symbol := range symbols {
		snap, err := p.Snapshot(ctx, symbol)
		if err != nil {
			log.Printf("⚠ Skipping market snapshot for %s: %v", symbol, err)
			continue
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots
}

// FormatContext renders snapshots as a prompt section.
func FormatContext(snapshots []Snapshot) string {
	if len(snapshots) == 0 {
		return "No market data available."
	}
	var sb strings.Builder
	sb.WriteString("Current market conditions:\n")
	for _, s := range snapshots {
		sb.WriteString(fmt.Sprintf("- %s: $%.2f (1h: %+.2f%%, 4h: %+.2f%%, 24h: %+.2f%%)\n",
			s.Symbol, s.LastPrice, s.Change1h, s.Change4h, s.Change24h))
	}
	return sb.String()
}

func closeAgo(closes []float64, hours int) float64 {
	idx := len(closes) - 1 - hours
	if idx < 0 {
		idx = 0
	}
	return closes[idx]
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
