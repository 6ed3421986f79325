// Package profiler derives trader profiles from on-chain account state
// and trade history. The profiles feed the advisor prompt so advice is
// shaped by how the account actually trades.
package profiler

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"minos/exchange"
)

// Trade frequency buckets
const (
	FrequencyHigh   = "high"
	FrequencyMedium = "medium"
	FrequencyLow    = "low"
)

// Risk and experience labels shared by both profilers
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"

	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
)

const spotLookbackDays = 90

var (
	stablecoinTokens = map[string]bool{"USDC": true, "USDT": true, "DAI": true}
	largeCapTokens   = map[string]bool{"BTC": true, "ETH": true}
)

// SpotRiskMetrics portfolio composition figures
type SpotRiskMetrics struct {
	StablecoinRatio        float64 `json:"stablecoin_ratio"`
	LargeCapRatio          float64 `json:"large_cap_ratio"`
	AssetDiversity         int     `json:"asset_diversity"`
	PortfolioConcentration float64 `json:"portfolio_concentration"` // Herfindahl-Hirschman index
}

// SpotTradingPatterns behavior derived from the fill history
type SpotTradingPatterns struct {
	TradeFrequency    string   `json:"trade_frequency"`
	SizeConsistency   float64  `json:"size_consistency"` // stddev / mean of trade values
	TypicalTradeValue float64  `json:"typical_trade_value"`
	PreferredTokens   []string `json:"preferred_tokens"`
}

// SpotProfile complete spot trading profile
type SpotProfile struct {
	Address         string              `json:"address"`
	RiskMetrics     SpotRiskMetrics     `json:"risk_metrics"`
	TradingPatterns SpotTradingPatterns `json:"trading_patterns"`
	TraderType      string              `json:"trader_type"` // hodler, active_trader, swing_trader
	RiskTolerance   string              `json:"risk_tolerance"`
	ExperienceLevel string              `json:"experience_level"`
	LastUpdated     time.Time           `json:"last_updated"`
}

type SpotProfiler struct {
	address string
	account exchange.AccountState
}

func NewSpotProfiler(address string, account exchange.AccountState) *SpotProfiler {
	return &SpotProfiler{address: address, account: account}
}

func (p *SpotProfiler) GenerateProfile() (*SpotProfile, error) {
	balances, err := p.account.SpotBalances()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spot balances: %w", err)
	}
	fills, err := p.account.FillsSince(time.Now().AddDate(0, 0, -spotLookbackDays))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fill history: %w", err)
	}

	metrics, totalValue := analyzeComposition(balances)
	patterns := analyzeSpotBehavior(fills)

	return &SpotProfile{
		Address:         p.address,
		RiskMetrics:     metrics,
		TradingPatterns: patterns,
		TraderType:      spotTraderType(metrics, patterns),
		RiskTolerance:   spotRiskTolerance(metrics, patterns),
		ExperienceLevel: spotExperienceLevel(metrics, patterns, totalValue),
		LastUpdated:     time.Now(),
	}, nil
}

func analyzeComposition(balances []exchange.SpotBalance) (SpotRiskMetrics, float64) {
	var metrics SpotRiskMetrics
	var totalValue, stableValue, largeCapValue float64
	values := make([]float64, 0, len(balances))

	for _, b := range balances {
		values = append(values, b.Total)
		totalValue += b.Total
		if stablecoinTokens[b.Symbol] {
			stableValue += b.Total
		} else if largeCapTokens[b.Symbol] {
			largeCapValue += b.Total
		}
	}

	if totalValue > 0 {
		metrics.StablecoinRatio = stableValue / totalValue
		metrics.LargeCapRatio = largeCapValue / totalValue
		metrics.PortfolioConcentration = herfindahl(values, totalValue)
	}
	metrics.AssetDiversity = len(balances)
	return metrics, totalValue
}

func analyzeSpotBehavior(fills []exchange.Fill) SpotTradingPatterns {
	var patterns SpotTradingPatterns
	if len(fills) == 0 {
		patterns.TradeFrequency = FrequencyLow
		return patterns
	}

	values := make([]float64, 0, len(fills))
	tokenVolumes := make(map[string]float64)
	for _, f := range fills {
		value := f.Size * f.Price
		values = append(values, value)
		tokenVolumes[f.Symbol] += value
	}

	mean, stddev := meanStddev(values)
	patterns.TypicalTradeValue = mean
	if mean > 0 {
		patterns.SizeConsistency = stddev / mean
	}

	tradesPerDay := float64(len(fills)) / spotLookbackDays
	switch {
	case tradesPerDay >= 3:
		patterns.TradeFrequency = FrequencyHigh
	case tradesPerDay >= 0.5:
		patterns.TradeFrequency = FrequencyMedium
	default:
		patterns.TradeFrequency = FrequencyLow
	}

	patterns.PreferredTokens = topByVolume(tokenVolumes, 3)
	return patterns
}

func spotTraderType(metrics SpotRiskMetrics, patterns SpotTradingPatterns) string {
	if patterns.TradeFrequency == FrequencyLow && metrics.StablecoinRatio < 0.3 {
		return "hodler"
	}
	if patterns.TradeFrequency == FrequencyHigh {
		return "active_trader"
	}
	return "swing_trader"
}

func spotRiskTolerance(metrics SpotRiskMetrics, patterns SpotTradingPatterns) string {
	score := (1-metrics.StablecoinRatio)*3 +
		(1-metrics.LargeCapRatio)*2 +
		metrics.PortfolioConcentration*2
	if patterns.TradeFrequency == FrequencyHigh {
		score++
	}

	switch {
	case score > 5:
		return RiskAggressive
	case score > 3:
		return RiskModerate
	default:
		return RiskConservative
	}
}

func spotExperienceLevel(metrics SpotRiskMetrics, patterns SpotTradingPatterns, totalValue float64) string {
	points := 0
	switch {
	case metrics.AssetDiversity >= 5:
		points += 2
	case metrics.AssetDiversity >= 3:
		points++
	}
	switch patterns.TradeFrequency {
	case FrequencyHigh:
		points += 2
	case FrequencyMedium:
		points++
	}
	switch {
	case totalValue > 10000:
		points += 3
	case totalValue > 1000:
		points += 2
	case totalValue > 100:
		points++
	}

	switch {
	case points >= 5:
		return ExperienceAdvanced
	case points >= 3:
		return ExperienceIntermediate
	default:
		return ExperienceBeginner
	}
}

// Summary renders the profile for terminal output and the advisor prompt.
func (p *SpotProfile) Summary() string {
	lines := []string{
		fmt.Sprintf("=== 👤 Spot Trading Profile for %s ===", shortAddress(p.Address)),
		"",
		fmt.Sprintf("Trader Type: %s", titleWords(p.TraderType)),
		fmt.Sprintf("Risk Tolerance: %s", titleWords(p.RiskTolerance)),
		fmt.Sprintf("Experience Level: %s", titleWords(p.ExperienceLevel)),
		"",
		"Portfolio Composition:",
		fmt.Sprintf("- Stablecoin Ratio: %.1f%%", p.RiskMetrics.StablecoinRatio*100),
		fmt.Sprintf("- Large Cap Ratio: %.1f%%", p.RiskMetrics.LargeCapRatio*100),
		fmt.Sprintf("- Number of Assets: %d", p.RiskMetrics.AssetDiversity),
		fmt.Sprintf("- Portfolio Concentration: %.2f", p.RiskMetrics.PortfolioConcentration),
		"",
		"Trading Patterns:",
		fmt.Sprintf("- Trading Frequency: %s", titleWords(p.TradingPatterns.TradeFrequency)),
		fmt.Sprintf("- Trade Size Consistency: %.2f", p.TradingPatterns.SizeConsistency),
		fmt.Sprintf("- Typical Trade Value: $%.2f", p.TradingPatterns.TypicalTradeValue),
		fmt.Sprintf("- Preferred Tokens: %s", joinOrNA(p.TradingPatterns.PreferredTokens)),
	}
	return strings.Join(lines, "\n")
}

func herfindahl(values []float64, total float64) float64 {
	var sum float64
	for _, v := range values {
		share := v / total
		sum += share * share
	}
	return sum
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	// sample standard deviation
	return mean, math.Sqrt(variance / float64(len(values)-1))
}

func topByVolume(volumes map[string]float64, n int) []string {
	type entry struct {
		symbol string
		volume float64
	}
	entries := make([]entry, 0, len(volumes))
	for symbol, volume := range volumes {
		entries = append(entries, entry{symbol, volume})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].volume != entries[j].volume {
			return entries[i].volume > entries[j].volume
		}
		return entries[i].symbol < entries[j].symbol
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	symbols := make([]string, len(entries))
	for i, e := range entries {
		symbols[i] = e.symbol
	}
	return symbols
}

func shortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func titleWords(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}
