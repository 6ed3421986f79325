package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"minos/adjuster"
	"minos/advisor"
	"minos/api"
	"minos/config"
	"minos/exchange"
	"minos/llm"
	"minos/logger"
	"minos/market"
	"minos/profiler"
	"minos/trading"
)

// Binance symbols framing the advisor's market context
var contextSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

func main() {
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║        🤖 LLM-Advised Hyperliquid Trading Assistant        ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()

	configFile := flag.String("config", "config.json", "path to configuration file")
	adviceFile := flag.String("advice", "", "execute a saved advice JSON file instead of generating one")
	execute := flag.Bool("execute", false, "submit orders for the generated advice")
	liveSize := flag.Bool("live-size", false, "use full recommended sizes instead of the test size")
	serve := flag.Bool("serve", false, "keep the status API running after the run")
	flag.Parse()

	// Load .env if present
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Printf("ℹ️  No .env file found, continuing with OS environment variables")
		} else {
			log.Printf("⚠ Failed to load .env file: %v", err)
		}
	}

	log.Printf("📋 Loading configuration file: %s", *configFile)
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	client, err := exchange.Setup(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to exchange: %v", err)
	}
	log.Printf("✓ Connected to exchange as %s", client.Address())

	history := logger.NewExecutionLogger(cfg.LogDir)
	defer history.Close()

	apiServer := api.NewServer(client, client, history, client.Address(), cfg.APIServerPort)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("❌ API server error: %v", err)
		}
	}()

	advice := loadOrGenerateAdvice(cfg, client, *adviceFile)
	printAdvice(advice)

	executor := trading.NewExecutor(client, client, client, cfg.Trading)

	if !*execute {
		log.Printf("ℹ️  Dry run complete. Re-run with -execute to submit orders.")
		if *serve {
			select {}
		}
		return
	}

	testMode := !*liveSize
	if testMode {
		log.Printf("🧪 Test mode: every order is capped at $%.2f (pass -live-size for full sizes)", cfg.Trading.TestTradeSize)
	} else {
		log.Printf("⚠ LIVE sizes enabled, orders will use full recommended notionals")
	}

	executions := executor.ExecuteAdvice(advice, testMode)

	verified := make(map[int]bool, len(executions))
	for i, exec := range executions {
		verified[i] = executor.VerifyExecution(exec)
	}

	if _, err := history.LogRun(advice, executions, verified); err != nil {
		log.Printf("⚠ Failed to persist run: %v", err)
	}

	reportExecutions(executions, verified)

	if *serve {
		select {}
	}
}

func loadOrGenerateAdvice(cfg *config.Config, client *exchange.Client, adviceFile string) *trading.Advice {
	if adviceFile != "" {
		log.Printf("📂 Loading advice from %s", adviceFile)
		advice, err := trading.LoadAdviceFile(adviceFile, cfg.Trading.DefaultLeverage)
		if err != nil {
			log.Fatalf("❌ Failed to load advice file: %v", err)
		}
		return advice
	}

	log.Printf("🔍 Analyzing trading profiles...")
	spotProfile, err := profiler.NewSpotProfiler(client.Address(), client).GenerateProfile()
	if err != nil {
		log.Fatalf("❌ Failed to build spot profile: %v", err)
	}
	perpProfile, err := profiler.NewPerpProfiler(client.Address(), client).GenerateProfile()
	if err != nil {
		log.Fatalf("❌ Failed to build perp profile: %v", err)
	}

	fmt.Println()
	fmt.Println(spotProfile.Summary())
	fmt.Println()
	fmt.Println(perpProfile.Summary())
	fmt.Println()

	spotPrefs := adjuster.AdjustSpotProfile(spotProfile, os.Stdin, os.Stdout)
	perpPrefs := adjuster.AdjustPerpProfile(perpProfile, os.Stdin, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	snapshots := market.NewProvider().Overview(ctx, contextSymbols)

	log.Printf("🧠 Requesting trading advice from %s...", cfg.OpenAIModel)
	chat := llm.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	advice, err := advisor.New(chat, cfg.Trading.DefaultLeverage).Advise(advisor.Request{
		SpotProfile:     spotProfile,
		PerpProfile:     perpProfile,
		SpotPreferences: spotPrefs,
		PerpPreferences: perpPrefs,
		MarketSnapshots: snapshots,
	})
	if err != nil {
		log.Fatalf("❌ Failed to generate advice: %v", err)
	}
	return advice
}

func printAdvice(advice *trading.Advice) {
	fmt.Println()
	fmt.Println("📈 Trading Recommendations:")
	for _, rec := range advice.SpotRecommendations {
		fmt.Printf("  • [spot] %s %s $%.2f\n", rec.Action, rec.Asset, rec.SizeUSD)
		for _, reason := range rec.Reasoning {
			fmt.Printf("      - %s\n", reason)
		}
	}
	for _, rec := range advice.PerpRecommendations {
		fmt.Printf("  • [perp] %s %s $%.2f @ %dx\n", rec.Direction, rec.Asset, rec.SizeUSD, rec.Leverage)
		for _, reason := range rec.Reasoning {
			fmt.Printf("      - %s\n", reason)
		}
	}
	if advice.OverallStrategy != nil {
		fmt.Printf("  Strategy: %s\n", advice.OverallStrategy.RiskAssessment)
	}
	if len(advice.SpotRecommendations)+len(advice.PerpRecommendations) == 0 {
		fmt.Println("  (no actionable recommendations)")
	}
	fmt.Println()
}

func reportExecutions(executions []trading.OrderExecution, verified map[int]bool) {
	fmt.Println()
	fmt.Println("📊 Execution Report:")
	fmt.Println(strings.Repeat("=", 60))

	succeeded := 0
	for i, exec := range executions {
		status := "❌ FAILED"
		if exec.Success {
			succeeded++
			if verified[i] {
				status = "✓ FILLED"
			} else {
				status = "⚠ UNVERIFIED"
			}
		}
		line := fmt.Sprintf("%s  %s", status, exec.Asset)
		if exec.OrderID != nil {
			line += fmt.Sprintf(" (order %d)", *exec.OrderID)
		}
		if exec.Error != "" {
			line += fmt.Sprintf(": %s", exec.Error)
		}
		fmt.Println(line)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Executed %d/%d orders\n", succeeded, len(executions))
}
