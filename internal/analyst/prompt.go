package analyst

import (
	"fmt"
	"strconv"
	"strings"

	"optionflow/internal/locale"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
)

// DefaultMaxWords caps commentary length when none is configured.
const DefaultMaxWords = 150

// BuildPrompt returns the system and user messages for a commentary request.
// The persona is localized; the figures are always formatted the same way.
func BuildPrompt(p models.OptionParameters, r models.PricingResult, tr *locale.Translator, maxWords int) (string, string) {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	var b strings.Builder
	b.WriteString("Parameters:\n")
	fmt.Fprintf(&b, "- Underlying Price: $%s\n", strconv.FormatFloat(p.Spot, 'f', -1, 64))
	fmt.Fprintf(&b, "- Strike Price: $%s\n", strconv.FormatFloat(p.Strike, 'f', -1, 64))
	fmt.Fprintf(&b, "- Time to Expiration: %.1f days\n", p.TimeToExpiry*pricing.DaysPerYear)
	fmt.Fprintf(&b, "- Volatility (IV): %.1f%%\n", p.Volatility*100)
	fmt.Fprintf(&b, "- Risk Free Rate: %.1f%%\n", p.RiskFreeRate*100)
	call := r.CallGreeks()
	b.WriteString("\nCalculated Greeks:\n")
	fmt.Fprintf(&b, "- Call Delta: %.2f\n", call.Delta)
	fmt.Fprintf(&b, "- Call Theta (Daily Decay): %.3f\n", call.Theta)
	fmt.Fprintf(&b, "- Gamma: %.4f\n", call.Gamma)
	b.WriteString("\nTask:\n")
	b.WriteString("1. Is this option In-the-money (ITM), At-the-money (ATM), or Out-of-the-money (OTM)?\n")
	b.WriteString("2. Explain the \"Theta Burn\". How much value will this option lose per day if the stock price stays flat? Is this high or low risk right now?\n")
	b.WriteString("3. Briefly mention the Vega risk (sensitivity to volatility changes).\n")
	fmt.Fprintf(&b, "\nKeep it under %d words. Format with Markdown. Use bullet points.\n", maxWords)

	return tr.T(locale.PromptContext), b.String()
}
