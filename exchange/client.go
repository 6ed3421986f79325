package exchange

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sonirico/go-hyperliquid"

	"minos/config"
)

// Client wraps the Hyperliquid SDK behind the MarketData, AccountState and
// OrderGateway interfaces. Queries go against the main account address while
// orders are signed with the configured API wallet, mirroring the venue's
// agent-wallet model.
type Client struct {
	address  string
	info     *hyperliquid.Info
	exchange *hyperliquid.Exchange
}

// Setup connects to Hyperliquid and verifies the account is reachable before
// any trading happens.
func Setup(cfg *config.Config) (*Client, error) {
	baseURL := hyperliquid.MainnetAPIURL
	if cfg.Testnet {
		baseURL = hyperliquid.TestnetAPIURL
	}

	secret := strings.TrimSpace(cfg.SecretKey)
	if !strings.HasPrefix(secret, "0x") {
		secret = "0x" + secret
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(secret, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid API wallet key: %w", err)
	}
	apiWallet := crypto.PubkeyToAddress(key.PublicKey).Hex()

	// The API wallet signs orders for the main account; queries always use
	// the main account address.
	address := cfg.AccountAddress
	log.Printf("Main account address: %s", address)
	log.Printf("API wallet address: %s", apiWallet)

	info := hyperliquid.NewInfo(baseURL, true)
	ex, err := hyperliquid.NewExchange(secret, baseURL, address)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange client: %w", err)
	}

	client := &Client{address: address, info: info, exchange: ex}

	// Verify account access with a read-only query
	state, err := info.UserState(address)
	if err != nil {
		return nil, fmt.Errorf("failed to verify account access: %w", err)
	}
	accountValue := parseFloat(state.MarginSummary.AccountValue)
	log.Printf("✓ Connected to Hyperliquid, account value: $%.2f", accountValue)

	return client, nil
}

// Address returns the main account address queries run against.
func (c *Client) Address() string {
	return c.address
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
