package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TradingLimits bounds every order the executor is allowed to produce.
type TradingLimits struct {
	MinOrderNotional  float64 `json:"min_order_notional"`  // exchange floor in USDC
	MaxOrderNotional  float64 `json:"max_order_notional"`  // hard cap per order in USDC
	OrderDelaySeconds float64 `json:"order_delay_seconds"` // pause between consecutive submissions
	SpotSafetyMargin  float64 `json:"spot_safety_margin"`  // fraction of spot balance usable per order
	PerpSafetyMargin  float64 `json:"perp_safety_margin"`  // fraction of withdrawable margin usable per order
	DefaultLeverage   int     `json:"default_leverage"`    // leverage used when a perp recommendation omits one
	TestTradeSize     float64 `json:"test_trade_size"`     // USDC size override in test mode
	SpotFixedPair     string  `json:"spot_fixed_pair"`     // low-liquidity pair priced at fixed 4 decimals
}

// Config main configuration
type Config struct {
	// Hyperliquid account
	AccountAddress string `json:"account_address"` // main account (queries)
	SecretKey      string `json:"secret_key"`      // API wallet private key (signing)
	Testnet        bool   `json:"testnet"`

	// LLM advisor (OpenAI-compatible endpoint)
	OpenAIAPIKey  string `json:"openai_api_key,omitempty"` // falls back to OPENAI_API_KEY
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
	OpenAIModel   string `json:"openai_model,omitempty"`

	APIServerPort int    `json:"api_server_port"`
	LogDir        string `json:"log_dir,omitempty"`

	Trading TradingLimits `json:"trading"`
}

// LoadConfig loads configuration from file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.OpenAIAPIKey == "" {
		config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates configuration validity and fills in defaults
func (c *Config) Validate() error {
	if c.AccountAddress == "" {
		return fmt.Errorf("account_address must be configured")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key must be configured")
	}

	if c.APIServerPort <= 0 {
		c.APIServerPort = 8080
	}
	if c.LogDir == "" {
		c.LogDir = "execution_logs"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o"
	}

	t := &c.Trading
	if t.MinOrderNotional <= 0 {
		t.MinOrderNotional = 10.0 // Hyperliquid minimum order value
	}
	if t.MaxOrderNotional <= 0 {
		t.MaxOrderNotional = 1000.0
	}
	if t.MaxOrderNotional < t.MinOrderNotional {
		return fmt.Errorf("max_order_notional (%.2f) below min_order_notional (%.2f)",
			t.MaxOrderNotional, t.MinOrderNotional)
	}
	if t.OrderDelaySeconds <= 0 {
		t.OrderDelaySeconds = 2.0
	}
	if t.SpotSafetyMargin <= 0 || t.SpotSafetyMargin > 1 {
		if t.SpotSafetyMargin != 0 {
			return fmt.Errorf("spot_safety_margin must be in (0, 1], got %v", t.SpotSafetyMargin)
		}
		t.SpotSafetyMargin = 0.95
	}
	if t.PerpSafetyMargin <= 0 || t.PerpSafetyMargin > 1 {
		if t.PerpSafetyMargin != 0 {
			return fmt.Errorf("perp_safety_margin must be in (0, 1], got %v", t.PerpSafetyMargin)
		}
		t.PerpSafetyMargin = 0.90
	}
	if t.DefaultLeverage <= 0 {
		t.DefaultLeverage = 1
	}
	if t.TestTradeSize <= 0 {
		t.TestTradeSize = 15.0
	}
	if t.SpotFixedPair == "" {
		t.SpotFixedPair = "PURR"
	}

	return nil
}

// OrderDelay gets the pause between consecutive order submissions
func (t *TradingLimits) OrderDelay() time.Duration {
	return time.Duration(t.OrderDelaySeconds * float64(time.Second))
}
