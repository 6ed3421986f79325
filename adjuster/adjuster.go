// Package adjuster collects user trading preferences interactively,
// seeded by the detected trader profiles. Input and output streams are
// injected so the prompts are testable.
package adjuster

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"minos/profiler"
)

// UserPreferences the user's stated intent, layered on top of the
// detected profile when building the advisor prompt.
type UserPreferences struct {
	RiskTolerance    string   `json:"risk_tolerance"`
	TradingStyle     string   `json:"trading_style"`
	PreferredMarkets []string `json:"preferred_markets"`
	TimeHorizon      string   `json:"time_horizon"`
	MaxDrawdown      float64  `json:"max_drawdown"`   // percent
	TargetReturn     float64  `json:"target_return"`  // percent, annualized
	CustomNotes      string   `json:"custom_notes"`
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) readLine() string {
	if p.in.Scan() {
		return strings.TrimSpace(p.in.Text())
	}
	return ""
}

// choose presents numbered options and loops until a valid key or the
// default is taken.
func (p *prompter) choose(prompt string, options map[string]string, def string) string {
	fmt.Fprintf(p.out, "\n%s\n", prompt)
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.out, "%s. %s\n", k, options[k])
	}

	for {
		if def != "" {
			fmt.Fprintf(p.out, "Select an option [%s]: ", def)
		} else {
			fmt.Fprint(p.out, "Select an option: ")
		}
		choice := p.readLine()
		if choice == "" && def != "" {
			return def
		}
		if _, ok := options[choice]; ok {
			return choice
		}
		fmt.Fprintln(p.out, "Invalid choice. Please try again.")
	}
}

func (p *prompter) readFloat(prompt string, min, max, def float64) float64 {
	for {
		fmt.Fprintf(p.out, "%s [%g]: ", prompt, def)
		raw := p.readLine()
		if raw == "" {
			return def
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a valid number")
			continue
		}
		if value < min || value > max {
			fmt.Fprintf(p.out, "Please enter a value between %g and %g\n", min, max)
			continue
		}
		return value
	}
}

func (p *prompter) readText(prompt string) string {
	fmt.Fprintf(p.out, "%s: ", prompt)
	return p.readLine()
}

// firstWord extracts the label from an option description like
// "Conservative (smaller positions)".
func firstWord(option string) string {
	fields := strings.Fields(option)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func parseMarkets(raw string) []string {
	markets := []string{}
	for _, m := range strings.Split(strings.ToUpper(raw), ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			markets = append(markets, m)
		}
	}
	return markets
}

// AdjustSpotProfile walks the user through spot preference questions,
// defaulting each answer to what the profiler detected.
func AdjustSpotProfile(profile *profiler.SpotProfile, in io.Reader, out io.Writer) *UserPreferences {
	p := newPrompter(in, out)

	fmt.Fprintln(out, "\n=== 📈 Spot Trading Profile Adjustment ===")
	fmt.Fprintln(out, "Let's customize your spot trading preferences.")

	riskOptions := map[string]string{
		"1": "Conservative (smaller positions, focus on established tokens)",
		"2": "Moderate (balanced approach)",
		"3": "Aggressive (larger positions, willing to trade newer tokens)",
	}
	detectedRisk := "3"
	switch profile.RiskTolerance {
	case profiler.RiskConservative:
		detectedRisk = "1"
	case profiler.RiskModerate:
		detectedRisk = "2"
	}
	risk := p.choose(
		fmt.Sprintf("Current Risk Profile: %s\nDesired Risk Tolerance?", profile.RiskTolerance),
		riskOptions, detectedRisk)

	styleOptions := map[string]string{
		"1": "Value (long-term holding, fundamental analysis)",
		"2": "Swing (medium-term, technical + fundamental)",
		"3": "Active (short-term, technical analysis)",
	}
	detectedStyle := "3"
	switch profile.TraderType {
	case "hodler":
		detectedStyle = "1"
	case "swing_trader":
		detectedStyle = "2"
	}
	style := p.choose(
		fmt.Sprintf("Current Trading Style: %s\nDesired Trading Style?", profile.TraderType),
		styleOptions, detectedStyle)

	fmt.Fprintln(out, "\nPreferred Markets (enter comma-separated symbols, e.g., 'BTC,ETH,USDT')")
	markets := parseMarkets(p.readText("Enter preferred markets"))
	if len(markets) == 0 {
		markets = profile.TradingPatterns.PreferredTokens
	}

	horizonOptions := map[string]string{
		"1": "Short-term (days to weeks)",
		"2": "Medium-term (weeks to months)",
		"3": "Long-term (months to years)",
	}
	horizon := p.choose("Preferred Time Horizon?", horizonOptions, "2")

	maxDrawdown := p.readFloat("Maximum acceptable drawdown (%)", 1, 100, 20)
	targetReturn := p.readFloat("Target annual return (%)", 1, 1000, 50)
	notes := p.readText("Any additional notes or preferences for your trading strategy?")

	return &UserPreferences{
		RiskTolerance:    firstWord(riskOptions[risk]),
		TradingStyle:     firstWord(styleOptions[style]),
		PreferredMarkets: markets,
		TimeHorizon:      firstWord(horizonOptions[horizon]),
		MaxDrawdown:      maxDrawdown,
		TargetReturn:     targetReturn,
		CustomNotes:      notes,
	}
}

// AdjustPerpProfile walks the user through perpetual preference
// questions, defaulting each answer to what the profiler detected.
func AdjustPerpProfile(profile *profiler.PerpProfile, in io.Reader, out io.Writer) *UserPreferences {
	p := newPrompter(in, out)

	fmt.Fprintln(out, "\n=== 📊 Perpetual Trading Profile Adjustment ===")
	fmt.Fprintln(out, "Let's customize your perpetual trading preferences.")

	riskOptions := map[string]string{
		"1": "Conservative (low leverage, tight stops)",
		"2": "Moderate (medium leverage, standard stops)",
		"3": "Aggressive (high leverage, wider stops)",
	}
	detectedRisk := "3"
	switch profile.RiskAppetite {
	case profiler.RiskConservative:
		detectedRisk = "1"
	case profiler.RiskModerate:
		detectedRisk = "2"
	}
	risk := p.choose(
		fmt.Sprintf("Current Risk Profile: %s\nDesired Risk Tolerance?", profile.RiskAppetite),
		riskOptions, detectedRisk)

	styleOptions := map[string]string{
		"1": "Scalping (very short-term, frequent trades)",
		"2": "Day (intraday positions)",
		"3": "Swing (multi-day positions)",
		"4": "Position (longer-term trends)",
	}
	detectedStyle := "4"
	switch profile.TraderType {
	case "scalper":
		detectedStyle = "1"
	case "day_trader":
		detectedStyle = "2"
	case "swing_trader":
		detectedStyle = "3"
	}
	style := p.choose(
		fmt.Sprintf("Current Trading Style: %s\nDesired Trading Style?", profile.TraderType),
		styleOptions, detectedStyle)

	fmt.Fprintln(out, "\nPreferred Markets (enter comma-separated symbols, e.g., 'BTC,ETH,SOL')")
	markets := parseMarkets(p.readText("Enter preferred markets"))
	if len(markets) == 0 {
		markets = profile.TradingPatterns.PreferredMarkets
	}

	horizonOptions := map[string]string{
		"1": "Ultra-short (minutes to hours)",
		"2": "Intraday (hours to day)",
		"3": "Multi-day (days to weeks)",
	}
	horizon := p.choose("Preferred Time Horizon?", horizonOptions, "2")

	maxDrawdown := p.readFloat("Maximum acceptable drawdown (%)", 1, 100, 15)
	targetReturn := p.readFloat("Target annual return (%)", 1, 1000, 100)
	notes := p.readText("Any additional notes or preferences for your trading strategy?")

	return &UserPreferences{
		RiskTolerance:    firstWord(riskOptions[risk]),
		TradingStyle:     firstWord(styleOptions[style]),
		PreferredMarkets: markets,
		TimeHorizon:      firstWord(horizonOptions[horizon]),
		MaxDrawdown:      maxDrawdown,
		TargetReturn:     targetReturn,
		CustomNotes:      notes,
	}
}

// Summary renders preferences for terminal output and the advisor prompt.
func (u *UserPreferences) Summary() string {
	markets := "N/A"
	if len(u.PreferredMarkets) > 0 {
		markets = strings.Join(u.PreferredMarkets, ", ")
	}
	lines := []string{
		fmt.Sprintf("Risk Tolerance: %s", u.RiskTolerance),
		fmt.Sprintf("Trading Style: %s", u.TradingStyle),
		fmt.Sprintf("Preferred Markets: %s", markets),
		fmt.Sprintf("Time Horizon: %s", u.TimeHorizon),
		fmt.Sprintf("Max Drawdown: %.1f%%", u.MaxDrawdown),
		fmt.Sprintf("Target Return: %.1f%%", u.TargetReturn),
	}
	if u.CustomNotes != "" {
		lines = append(lines, fmt.Sprintf("Notes: %s", u.CustomNotes))
	}
	return strings.Join(lines, "\n")
}
