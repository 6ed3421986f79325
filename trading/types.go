package trading

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Spot actions and perp directions accepted at the advice boundary.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"

	DirectionLong  = "long"
	DirectionShort = "short"
)

// SpotRecommendation one advised spot trade. Immutable once parsed.
type SpotRecommendation struct {
	Asset     string   `json:"asset"`
	Action    string   `json:"action"` // "buy", "sell" or "hold"
	SizeUSD   float64  `json:"size_usd"`
	Reasoning []string `json:"reasoning,omitempty"`
}

// PerpRecommendation one advised perpetual trade. Immutable once parsed.
type PerpRecommendation struct {
	Asset     string   `json:"asset"`
	Direction string   `json:"direction"` // "long" or "short"
	SizeUSD   float64  `json:"size_usd"`
	Leverage  int      `json:"leverage,omitempty"`
	Reasoning []string `json:"reasoning,omitempty"`
}

// OverallStrategy free-text strategy summary attached to an advice document
type OverallStrategy struct {
	RiskAssessment    string   `json:"risk_assessment"`
	PortfolioBalance  string   `json:"portfolio_balance"`
	KeyConsiderations []string `json:"key_considerations"`
}

// Advice the full advisory document handed to the executor
type Advice struct {
	SpotRecommendations []SpotRecommendation `json:"spot_recommendations"`
	PerpRecommendations []PerpRecommendation `json:"perp_recommendations"`
	OverallStrategy     *OverallStrategy     `json:"overall_strategy,omitempty"`
}

// ParseAdvice decodes and validates an advice document. Recommendations with
// malformed fields are rejected here, at the boundary, so the executor only
// ever sees well-formed typed values. Perp recommendations without a leverage
// get defaultLeverage.
func ParseAdvice(data []byte, defaultLeverage int) (*Advice, error) {
	var advice Advice
	if err := json.Unmarshal(data, &advice); err != nil {
		return nil, fmt.Errorf("failed to parse advice: %w", err)
	}
	if defaultLeverage < 1 {
		defaultLeverage = 1
	}

	for i, rec := range advice.SpotRecommendations {
		if rec.Asset == "" {
			return nil, fmt.Errorf("spot_recommendations[%d]: asset cannot be empty", i)
		}
		if rec.Action != ActionBuy && rec.Action != ActionSell && rec.Action != ActionHold {
			return nil, fmt.Errorf("spot_recommendations[%d]: invalid action %q", i, rec.Action)
		}
		if rec.SizeUSD < 0 {
			return nil, fmt.Errorf("spot_recommendations[%d]: size_usd must be >= 0, got %v", i, rec.SizeUSD)
		}
	}

	for i, rec := range advice.PerpRecommendations {
		if rec.Asset == "" {
			return nil, fmt.Errorf("perp_recommendations[%d]: asset cannot be empty", i)
		}
		if rec.Direction != DirectionLong && rec.Direction != DirectionShort {
			return nil, fmt.Errorf("perp_recommendations[%d]: invalid direction %q", i, rec.Direction)
		}
		if rec.SizeUSD < 0 {
			return nil, fmt.Errorf("perp_recommendations[%d]: size_usd must be >= 0, got %v", i, rec.SizeUSD)
		}
		if rec.Leverage == 0 {
			advice.PerpRecommendations[i].Leverage = defaultLeverage
		} else if rec.Leverage < 1 {
			return nil, fmt.Errorf("perp_recommendations[%d]: leverage must be >= 1, got %d", i, rec.Leverage)
		}
	}

	return &advice, nil
}

// LoadAdviceFile reads and parses an advice document from disk.
func LoadAdviceFile(path string, defaultLeverage int) (*Advice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advice file: %w", err)
	}
	return ParseAdvice(data, defaultLeverage)
}

// OrderExecution the outcome of processing one recommendation. Created once,
// never mutated; OrderID and Error are mutually exclusive.
type OrderExecution struct {
	Asset     string    `json:"asset"`
	Success   bool      `json:"success"`
	OrderID   *int64    `json:"order_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SizingResult a computed order quantity plus a human-readable rationale.
// A zero quantity means "do not submit"; the rationale then carries the
// reason.
type SizingResult struct {
	Quantity  float64 `json:"quantity"`
	Rationale string  `json:"rationale"`
}

// ValidationOutcome pass/fail of a single validation run. Message cites the
// one rule that failed, never several merged.
type ValidationOutcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
