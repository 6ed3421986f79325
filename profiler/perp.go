package profiler

import (
	"fmt"
	"math"
	"strings"
	"time"

	"minos/exchange"
)

const perpLookbackDays = 60

// PerpRiskMetrics risk posture derived from open positions and margin
type PerpRiskMetrics struct {
	AvgLeverage           float64 `json:"avg_leverage"`
	MaxLeverage           float64 `json:"max_leverage"`
	MarginUsageRatio      float64 `json:"margin_usage_ratio"`
	PositionConcentration float64 `json:"position_concentration"`
	LiquidationProximity  float64 `json:"liquidation_proximity"` // mean |entry - liq| / entry
}

// PerpTradingPatterns behavior derived from the fill history
type PerpTradingPatterns struct {
	WinRate          float64       `json:"win_rate"`
	ProfitLossRatio  float64       `json:"profit_loss_ratio"`
	AvgHoldingTime   time.Duration `json:"avg_holding_time"`
	TradeFrequency   string        `json:"trade_frequency"`
	PreferredMarkets []string      `json:"preferred_markets"`
	AvgPositionSize  float64       `json:"avg_position_size"`
	SizeConsistency  float64       `json:"size_consistency"`
	DirectionalBias  string        `json:"directional_bias"` // long_biased, short_biased, neutral
}

// PerpProfile complete perpetual trading profile
type PerpProfile struct {
	Address         string              `json:"address"`
	RiskMetrics     PerpRiskMetrics     `json:"risk_metrics"`
	TradingPatterns PerpTradingPatterns `json:"trading_patterns"`
	TraderType      string              `json:"trader_type"` // scalper, day_trader, swing_trader, position_trader
	RiskAppetite    string              `json:"risk_appetite"`
	ExperienceLevel string              `json:"experience_level"`
	LastUpdated     time.Time           `json:"last_updated"`
}

type PerpProfiler struct {
	address string
	account exchange.AccountState
}

func NewPerpProfiler(address string, account exchange.AccountState) *PerpProfiler {
	return &PerpProfiler{address: address, account: account}
}

func (p *PerpProfiler) GenerateProfile() (*PerpProfile, error) {
	margin, err := p.account.MarginSummary()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch margin summary: %w", err)
	}
	positions, err := p.account.Positions()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	fills, err := p.account.FillsSince(time.Now().AddDate(0, 0, -perpLookbackDays))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fill history: %w", err)
	}

	metrics := analyzePerpRisk(margin, positions)
	patterns := analyzePerpBehavior(fills)

	return &PerpProfile{
		Address:         p.address,
		RiskMetrics:     metrics,
		TradingPatterns: patterns,
		TraderType:      perpTraderType(patterns),
		RiskAppetite:    perpRiskAppetite(metrics, patterns),
		ExperienceLevel: perpExperienceLevel(patterns),
		LastUpdated:     time.Now(),
	}, nil
}

func analyzePerpRisk(margin exchange.MarginSummary, positions []exchange.Position) PerpRiskMetrics {
	var metrics PerpRiskMetrics

	var leverageSum float64
	var liqDistances []float64
	positionValues := make([]float64, 0, len(positions))

	for _, pos := range positions {
		leverageSum += pos.Leverage
		if pos.Leverage > metrics.MaxLeverage {
			metrics.MaxLeverage = pos.Leverage
		}
		positionValues = append(positionValues, pos.PositionValue)
		if pos.LiquidationPrice > 0 && pos.EntryPrice > 0 {
			liqDistances = append(liqDistances, math.Abs(pos.EntryPrice-pos.LiquidationPrice)/pos.EntryPrice)
		}
	}

	if len(positions) > 0 {
		metrics.AvgLeverage = leverageSum / float64(len(positions))
	}
	if len(liqDistances) > 0 {
		var sum float64
		for _, d := range liqDistances {
			sum += d
		}
		metrics.LiquidationProximity = sum / float64(len(liqDistances))
	}
	if margin.AccountValue > 0 {
		metrics.MarginUsageRatio = margin.TotalMarginUsed / margin.AccountValue
	}

	var totalPositionValue float64
	for _, v := range positionValues {
		totalPositionValue += v
	}
	if totalPositionValue > 0 {
		metrics.PositionConcentration = herfindahl(positionValues, totalPositionValue)
	}

	return metrics
}

func analyzePerpBehavior(fills []exchange.Fill) PerpTradingPatterns {
	var patterns PerpTradingPatterns
	if len(fills) == 0 {
		patterns.TradeFrequency = FrequencyLow
		patterns.DirectionalBias = "neutral"
		return patterns
	}

	var profits, losses []float64
	sizes := make([]float64, 0, len(fills))
	marketVolumes := make(map[string]float64)
	directionSum := 0
	var intervals []time.Duration
	var lastTime time.Time

	for _, f := range fills {
		if f.ClosedPnl > 0 {
			profits = append(profits, f.ClosedPnl)
		} else if f.ClosedPnl < 0 {
			losses = append(losses, -f.ClosedPnl)
		}

		value := f.Size * f.Price
		sizes = append(sizes, value)
		marketVolumes[f.Symbol] += value

		if strings.Contains(f.Direction, "Long") {
			directionSum++
		} else {
			directionSum--
		}

		if !lastTime.IsZero() {
			intervals = append(intervals, f.Time.Sub(lastTime))
		}
		lastTime = f.Time
	}

	// win rate and P/L ratio count only fills that closed PnL
	settledTrades := len(profits) + len(losses)
	if settledTrades > 0 {
		patterns.WinRate = float64(len(profits)) / float64(settledTrades)
	}
	if len(profits) > 0 && len(losses) > 0 {
		avgProfit, _ := meanStddev(profits)
		avgLoss, _ := meanStddev(losses)
		if avgLoss > 0 {
			patterns.ProfitLossRatio = avgProfit / avgLoss
		}
	}

	if len(intervals) > 0 {
		var total time.Duration
		for _, iv := range intervals {
			total += iv
		}
		patterns.AvgHoldingTime = total / time.Duration(len(intervals))
	}

	tradesPerDay := float64(settledTrades) / perpLookbackDays
	switch {
	case tradesPerDay >= 5:
		patterns.TradeFrequency = FrequencyHigh
	case tradesPerDay >= 1:
		patterns.TradeFrequency = FrequencyMedium
	default:
		patterns.TradeFrequency = FrequencyLow
	}

	patterns.PreferredMarkets = topByVolume(marketVolumes, 3)

	mean, stddev := meanStddev(sizes)
	patterns.AvgPositionSize = mean
	if mean > 0 {
		patterns.SizeConsistency = stddev / mean
	}

	bias := float64(directionSum)
	threshold := float64(settledTrades) * 0.2
	switch {
	case bias > threshold:
		patterns.DirectionalBias = "long_biased"
	case bias < -threshold:
		patterns.DirectionalBias = "short_biased"
	default:
		patterns.DirectionalBias = "neutral"
	}

	return patterns
}

func perpTraderType(patterns PerpTradingPatterns) string {
	holdHours := patterns.AvgHoldingTime.Hours()
	switch {
	case holdHours < 1 && patterns.TradeFrequency == FrequencyHigh:
		return "scalper"
	case holdHours < 24 && (patterns.TradeFrequency == FrequencyHigh || patterns.TradeFrequency == FrequencyMedium):
		return "day_trader"
	case holdHours < 168:
		return "swing_trader"
	default:
		return "position_trader"
	}
}

func perpRiskAppetite(metrics PerpRiskMetrics, patterns PerpTradingPatterns) string {
	score := 0
	switch {
	case metrics.MaxLeverage >= 10:
		score += 3
	case metrics.MaxLeverage >= 5:
		score += 2
	case metrics.MaxLeverage >= 2:
		score++
	}
	switch {
	case metrics.MarginUsageRatio >= 0.7:
		score += 2
	case metrics.MarginUsageRatio >= 0.4:
		score++
	}
	switch {
	case metrics.PositionConcentration >= 0.7:
		score += 2
	case metrics.PositionConcentration >= 0.4:
		score++
	}
	if patterns.TradeFrequency == FrequencyHigh {
		score++
	}

	switch {
	case score >= 6:
		return RiskAggressive
	case score >= 3:
		return RiskModerate
	default:
		return RiskConservative
	}
}

func perpExperienceLevel(patterns PerpTradingPatterns) string {
	points := 0
	switch {
	case patterns.WinRate >= 0.6:
		points += 3
	case patterns.WinRate >= 0.5:
		points += 2
	case patterns.WinRate >= 0.4:
		points++
	}
	switch patterns.TradeFrequency {
	case FrequencyHigh:
		points += 2
	case FrequencyMedium:
		points++
	}
	switch {
	case patterns.ProfitLossRatio >= 2:
		points += 3
	case patterns.ProfitLossRatio >= 1.5:
		points += 2
	case patterns.ProfitLossRatio >= 1:
		points++
	}

	switch {
	case points >= 6:
		return ExperienceAdvanced
	case points >= 3:
		return ExperienceIntermediate
	default:
		return ExperienceBeginner
	}
}

// Summary renders the profile for terminal output and the advisor prompt.
func (p *PerpProfile) Summary() string {
	lines := []string{
		fmt.Sprintf("=== 👤 Perpetual Trading Profile for %s ===", shortAddress(p.Address)),
		"",
		fmt.Sprintf("Trader Type: %s", titleWords(p.TraderType)),
		fmt.Sprintf("Risk Appetite: %s", titleWords(p.RiskAppetite)),
		fmt.Sprintf("Experience Level: %s", titleWords(p.ExperienceLevel)),
		"",
		"Risk Metrics:",
		fmt.Sprintf("- Average Leverage: %.1fx", p.RiskMetrics.AvgLeverage),
		fmt.Sprintf("- Maximum Leverage: %.1fx", p.RiskMetrics.MaxLeverage),
		fmt.Sprintf("- Margin Usage: %.1f%%", p.RiskMetrics.MarginUsageRatio*100),
		fmt.Sprintf("- Position Concentration: %.2f", p.RiskMetrics.PositionConcentration),
		"",
		"Trading Patterns:",
		fmt.Sprintf("- Win Rate: %.1f%%", p.TradingPatterns.WinRate*100),
		fmt.Sprintf("- Profit/Loss Ratio: %.2f", p.TradingPatterns.ProfitLossRatio),
		fmt.Sprintf("- Trading Frequency: %s", titleWords(p.TradingPatterns.TradeFrequency)),
		fmt.Sprintf("- Directional Bias: %s", titleWords(p.TradingPatterns.DirectionalBias)),
		fmt.Sprintf("- Preferred Markets: %s", joinOrNA(p.TradingPatterns.PreferredMarkets)),
		fmt.Sprintf("- Average Position Size: $%.2f", p.TradingPatterns.AvgPositionSize),
		fmt.Sprintf("- Average Holding Time: %.1f hours", p.TradingPatterns.AvgHoldingTime.Hours()),
	}
	return strings.Join(lines, "\n")
}
