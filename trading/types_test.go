package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdviceValidDocument(t *testing.T) {
	data := []byte(`{
		"spot_recommendations": [
			{"asset": "ETH", "action": "buy", "size_usd": 50, "reasoning": ["momentum"]},
			{"asset": "PURR", "action": "hold", "size_usd": 0}
		],
		"perp_recommendations": [
			{"asset": "BTC", "direction": "long", "size_usd": 100, "leverage": 3},
			{"asset": "SOL", "direction": "short", "size_usd": 40}
		],
		"overall_strategy": {
			"risk_assessment": "moderate",
			"portfolio_balance": "60/40 spot/perp",
			"key_considerations": ["funding rates"]
		}
	}`)

	advice, err := ParseAdvice(data, 2)
	require.NoError(t, err)

	require.Len(t, advice.SpotRecommendations, 2)
	assert.Equal(t, []string{"momentum"}, advice.SpotRecommendations[0].Reasoning)

	require.Len(t, advice.PerpRecommendations, 2)
	assert.Equal(t, 3, advice.PerpRecommendations[0].Leverage)
	assert.Equal(t, 2, advice.PerpRecommendations[1].Leverage, "missing leverage takes the configured default")

	require.NotNil(t, advice.OverallStrategy)
	assert.Equal(t, "moderate", advice.OverallStrategy.RiskAssessment)
}

func TestParseAdviceRejectsMalformedRecommendations(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"unknown spot action",
			`{"spot_recommendations": [{"asset": "ETH", "action": "yolo", "size_usd": 10}]}`,
			"invalid action",
		},
		{
			"empty spot asset",
			`{"spot_recommendations": [{"asset": "", "action": "buy", "size_usd": 10}]}`,
			"asset cannot be empty",
		},
		{
			"negative spot size",
			`{"spot_recommendations": [{"asset": "ETH", "action": "buy", "size_usd": -1}]}`,
			"size_usd",
		},
		{
			"unknown perp direction",
			`{"perp_recommendations": [{"asset": "BTC", "direction": "up", "size_usd": 10}]}`,
			"invalid direction",
		},
		{
			"negative perp leverage",
			`{"perp_recommendations": [{"asset": "BTC", "direction": "long", "size_usd": 10, "leverage": -2}]}`,
			"leverage",
		},
		{
			"not json",
			`nonsense`,
			"failed to parse",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAdvice([]byte(tc.body), 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseAdviceEmptyDocument(t *testing.T) {
	advice, err := ParseAdvice([]byte(`{}`), 1)
	require.NoError(t, err)
	assert.Empty(t, advice.SpotRecommendations)
	assert.Empty(t, advice.PerpRecommendations)
}
