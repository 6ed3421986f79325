package profiler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minos/exchange"
)

type fakeAccount struct {
	withdrawable float64
	spot         []exchange.SpotBalance
	margin       exchange.MarginSummary
	positions    []exchange.Position
	fills        []exchange.Fill

	spotErr  error
	fillsErr error
}

func (f *fakeAccount) WithdrawableBalance() (float64, error) { return f.withdrawable, nil }
func (f *fakeAccount) SpotBalances() ([]exchange.SpotBalance, error) {
	return f.spot, f.spotErr
}
func (f *fakeAccount) MarginSummary() (exchange.MarginSummary, error) { return f.margin, nil }
func (f *fakeAccount) Positions() ([]exchange.Position, error)       { return f.positions, nil }
func (f *fakeAccount) FillsSince(since time.Time) ([]exchange.Fill, error) {
	return f.fills, f.fillsErr
}

const testAddress = "0x1234567890abcdef1234567890abcdef12345678"

func TestSpotProfileComposition(t *testing.T) {
	account := &fakeAccount{
		spot: []exchange.SpotBalance{
			{Symbol: "USDC", Total: 50},
			{Symbol: "BTC", Total: 30},
			{Symbol: "DOGE", Total: 20},
		},
		fills: []exchange.Fill{
			{Symbol: "BTC", Size: 1, Price: 100, Time: time.Now().Add(-48 * time.Hour)},
			{Symbol: "DOGE", Size: 10, Price: 5, Time: time.Now().Add(-24 * time.Hour)},
			{Symbol: "BTC", Size: 0.5, Price: 100, Time: time.Now().Add(-1 * time.Hour)},
		},
	}

	profile, err := NewSpotProfiler(testAddress, account).GenerateProfile()
	require.NoError(t, err)

	assert.InDelta(t, 0.5, profile.RiskMetrics.StablecoinRatio, 1e-9)
	assert.InDelta(t, 0.3, profile.RiskMetrics.LargeCapRatio, 1e-9)
	assert.Equal(t, 3, profile.RiskMetrics.AssetDiversity)
	assert.InDelta(t, 0.38, profile.RiskMetrics.PortfolioConcentration, 1e-9)

	// 3 trades over 90 days is low frequency; half the book in
	// stablecoins rules out the hodler label
	assert.Equal(t, FrequencyLow, profile.TradingPatterns.TradeFrequency)
	assert.Equal(t, "swing_trader", profile.TraderType)
	assert.Equal(t, RiskModerate, profile.RiskTolerance)
	assert.Equal(t, ExperienceBeginner, profile.ExperienceLevel)

	// BTC has the highest traded volume
	require.NotEmpty(t, profile.TradingPatterns.PreferredTokens)
	assert.Equal(t, "BTC", profile.TradingPatterns.PreferredTokens[0])
}

func TestSpotProfileHodler(t *testing.T) {
	account := &fakeAccount{
		spot: []exchange.SpotBalance{
			{Symbol: "BTC", Total: 90},
			{Symbol: "USDC", Total: 10},
		},
	}

	profile, err := NewSpotProfiler(testAddress, account).GenerateProfile()
	require.NoError(t, err)

	assert.Equal(t, "hodler", profile.TraderType)
	assert.Equal(t, FrequencyLow, profile.TradingPatterns.TradeFrequency)
}

func TestSpotProfileEmptyAccount(t *testing.T) {
	profile, err := NewSpotProfiler(testAddress, &fakeAccount{}).GenerateProfile()
	require.NoError(t, err)

	assert.Zero(t, profile.RiskMetrics.StablecoinRatio)
	assert.Zero(t, profile.RiskMetrics.PortfolioConcentration)
	assert.Equal(t, FrequencyLow, profile.TradingPatterns.TradeFrequency)
}

func TestSpotProfileFetchError(t *testing.T) {
	_, err := NewSpotProfiler(testAddress, &fakeAccount{spotErr: errors.New("down")}).GenerateProfile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spot balances")
}

func TestPerpProfileRiskMetrics(t *testing.T) {
	base := time.Now().Add(-10 * 24 * time.Hour)
	account := &fakeAccount{
		margin: exchange.MarginSummary{AccountValue: 1000, TotalMarginUsed: 500},
		positions: []exchange.Position{
			{Symbol: "BTC", Leverage: 10, PositionValue: 700, EntryPrice: 100, LiquidationPrice: 90},
			{Symbol: "ETH", Leverage: 2, PositionValue: 300},
		},
		fills: []exchange.Fill{
			{Symbol: "BTC", Size: 1, Price: 100, Direction: "Open Long", ClosedPnl: 10, Time: base},
			{Symbol: "BTC", Size: 1, Price: 110, Direction: "Close Long", ClosedPnl: 20, Time: base.Add(2 * time.Hour)},
			{Symbol: "ETH", Size: 2, Price: 50, Direction: "Open Short", ClosedPnl: -10, Time: base.Add(4 * time.Hour)},
		},
	}

	profile, err := NewPerpProfiler(testAddress, account).GenerateProfile()
	require.NoError(t, err)

	assert.InDelta(t, 6.0, profile.RiskMetrics.AvgLeverage, 1e-9)
	assert.InDelta(t, 10.0, profile.RiskMetrics.MaxLeverage, 1e-9)
	assert.InDelta(t, 0.5, profile.RiskMetrics.MarginUsageRatio, 1e-9)
	assert.InDelta(t, 0.58, profile.RiskMetrics.PositionConcentration, 1e-9)
	assert.InDelta(t, 0.1, profile.RiskMetrics.LiquidationProximity, 1e-9)

	assert.InDelta(t, 2.0/3.0, profile.TradingPatterns.WinRate, 1e-9)
	assert.InDelta(t, 1.5, profile.TradingPatterns.ProfitLossRatio, 1e-9)
	assert.Equal(t, 2*time.Hour, profile.TradingPatterns.AvgHoldingTime)
	assert.Equal(t, "long_biased", profile.TradingPatterns.DirectionalBias)
	assert.Equal(t, FrequencyLow, profile.TradingPatterns.TradeFrequency)

	assert.Equal(t, "swing_trader", profile.TraderType)
	assert.Equal(t, RiskModerate, profile.RiskAppetite)
	assert.Equal(t, ExperienceIntermediate, profile.ExperienceLevel)
}

func TestPerpProfileEmptyAccount(t *testing.T) {
	profile, err := NewPerpProfiler(testAddress, &fakeAccount{}).GenerateProfile()
	require.NoError(t, err)

	assert.Zero(t, profile.RiskMetrics.AvgLeverage)
	assert.Equal(t, "neutral", profile.TradingPatterns.DirectionalBias)
	assert.Equal(t, RiskConservative, profile.RiskAppetite)
	assert.Equal(t, ExperienceBeginner, profile.ExperienceLevel)
}

func TestPerpProfileFetchError(t *testing.T) {
	_, err := NewPerpProfiler(testAddress, &fakeAccount{fillsErr: errors.New("down")}).GenerateProfile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill history")
}

func TestSummariesRenderWithoutData(t *testing.T) {
	spot, err := NewSpotProfiler(testAddress, &fakeAccount{}).GenerateProfile()
	require.NoError(t, err)
	assert.Contains(t, spot.Summary(), "0x1234...5678")
	assert.Contains(t, spot.Summary(), "N/A")

	perp, err := NewPerpProfiler(testAddress, &fakeAccount{}).GenerateProfile()
	require.NoError(t, err)
	assert.Contains(t, perp.Summary(), "Perpetual Trading Profile")
}
