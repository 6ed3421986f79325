// Package advisor turns trader profiles, user preferences and a market
// snapshot into structured trading advice via an LLM.
package advisor

import (
	"fmt"
	"log"
	"strings"

	"minos/adjuster"
	"minos/market"
	"minos/profiler"
	"minos/trading"
)

const systemPrompt = `You are an expert crypto trading advisor analyzing user profiles and preferences to provide
personalized trading recommendations. Focus on:

1. Risk Management: Align recommendations with user's risk tolerance and preferences
2. Portfolio Balance: Consider both spot and perpetual positions
3. Market Analysis: Use current market conditions and user's trading patterns
4. Clear Reasoning: Provide detailed explanations for each recommendation

Respond with ONLY a JSON object in the following format, no other text:
{
    "spot_recommendations": [
        {
            "asset": "token symbol",
            "action": "buy/sell/hold",
            "size_usd": float,
            "reasoning": ["list of reasons"]
        }
    ],
    "perp_recommendations": [
        {
            "asset": "token symbol",
            "direction": "long/short",
            "size_usd": float,
            "leverage": int,
            "reasoning": ["list of reasons"]
        }
    ],
    "overall_strategy": {
        "risk_assessment": "string",
        "portfolio_balance": "string",
        "key_considerations": ["list of points"]
    }
}`

// ChatClient is the LLM surface the advisor needs.
type ChatClient interface {
	Chat(systemPrompt, userPrompt string) (string, error)
}

// Request bundles everything that shapes one round of advice.
type Request struct {
	SpotProfile     *profiler.SpotProfile
	PerpProfile     *profiler.PerpProfile
	SpotPreferences *adjuster.UserPreferences
	PerpPreferences *adjuster.UserPreferences
	MarketSnapshots []market.Snapshot
}

type Advisor struct {
	client          ChatClient
	defaultLeverage int
}

func New(client ChatClient, defaultLeverage int) *Advisor {
	return &Advisor{client: client, defaultLeverage: defaultLeverage}
}

// Advise asks the LLM for recommendations and parses the reply into a
// validated advice document.
func (a *Advisor) Advise(req Request) (*trading.Advice, error) {
	reply, err := a.client.Chat(systemPrompt, buildUserPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("failed to generate advice: %w", err)
	}

	payload, err := extractJSON(reply)
	if err != nil {
		log.Printf("❌ LLM reply carried no JSON document: %.200s", reply)
		return nil, err
	}

	advice, err := trading.ParseAdvice([]byte(payload), a.defaultLeverage)
	if err != nil {
		return nil, fmt.Errorf("failed to parse advice: %w", err)
	}
	return advice, nil
}

func buildUserPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("Please analyze these user profiles and preferences to provide trading recommendations:\n\n")

	if req.SpotProfile != nil {
		sb.WriteString("Spot Trading Profile:\n")
		sb.WriteString(fmt.Sprintf("- Trader Type: %s\n", req.SpotProfile.TraderType))
		sb.WriteString(fmt.Sprintf("- Risk Tolerance: %s\n", req.SpotProfile.RiskTolerance))
		sb.WriteString(fmt.Sprintf("- Experience Level: %s\n", req.SpotProfile.ExperienceLevel))
		sb.WriteString(fmt.Sprintf("- Asset Diversity: %d\n", req.SpotProfile.RiskMetrics.AssetDiversity))
		sb.WriteString(fmt.Sprintf("- Portfolio Concentration: %.2f\n\n", req.SpotProfile.RiskMetrics.PortfolioConcentration))
	}
	if req.SpotPreferences != nil {
		sb.WriteString("Spot Preferences:\n")
		writePreferences(&sb, req.SpotPreferences)
	}
	if req.PerpProfile != nil {
		sb.WriteString("Perpetual Trading Profile:\n")
		sb.WriteString(fmt.Sprintf("- Trader Type: %s\n", req.PerpProfile.TraderType))
		sb.WriteString(fmt.Sprintf("- Risk Appetite: %s\n", req.PerpProfile.RiskAppetite))
		sb.WriteString(fmt.Sprintf("- Experience Level: %s\n", req.PerpProfile.ExperienceLevel))
		sb.WriteString(fmt.Sprintf("- Average Leverage: %.1f\n", req.PerpProfile.RiskMetrics.AvgLeverage))
		sb.WriteString(fmt.Sprintf("- Win Rate: %.2f\n\n", req.PerpProfile.TradingPatterns.WinRate))
	}
	if req.PerpPreferences != nil {
		sb.WriteString("Perpetual Preferences:\n")
		writePreferences(&sb, req.PerpPreferences)
	}

	sb.WriteString(market.FormatContext(req.MarketSnapshots))
	sb.WriteString("\nPlease provide comprehensive trading recommendations considering both spot and perpetual markets,\n")
	sb.WriteString("ensuring alignment with the user's risk tolerance and preferences.")
	return sb.String()
}

func writePreferences(sb *strings.Builder, prefs *adjuster.UserPreferences) {
	sb.WriteString(fmt.Sprintf("- Risk Tolerance: %s\n", prefs.RiskTolerance))
	sb.WriteString(fmt.Sprintf("- Trading Style: %s\n", prefs.TradingStyle))
	sb.WriteString(fmt.Sprintf("- Preferred Markets: %s\n", strings.Join(prefs.PreferredMarkets, ", ")))
	sb.WriteString(fmt.Sprintf("- Time Horizon: %s\n", prefs.TimeHorizon))
	sb.WriteString(fmt.Sprintf("- Max Drawdown: %.1f%%\n", prefs.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("- Target Return: %.1f%%\n", prefs.TargetReturn))
	if prefs.CustomNotes != "" {
		sb.WriteString(fmt.Sprintf("- Notes: %s\n", prefs.CustomNotes))
	}
	sb.WriteString("\n")
}

// extractJSON pulls the first top-level JSON object out of a reply that
// may wrap it in prose or a markdown fence.
func extractJSON(reply string) (string, error) {
	start := strings.Index(reply, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object in reply")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(reply); i++ {
		c := reply[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return reply[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in reply")
}
