package debate

import (
	"fmt"
	"strings"

	"shelfscan_backend/internal/scans/domain"
)

const systemPromptTemplate = `You are an advisor for Indian kirana (neighborhood grocery) stores.
Your perspective in this panel: %s.
Focus: %s
Return ONLY a JSON object, no other text:
{
  "recommendation": "the concrete advice for the store owner, 2-4 sentences, actionable today",
  "reasoning": "why, from your perspective",
  "confidence": 85
}
confidence is an integer 0-100 expressing how sure you are this is the right advice.`

func systemPrompt(a Archetype) string {
	return fmt.Sprintf(systemPromptTemplate, a.Perspective, strings.TrimSpace(a.Focus))
}

func userPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s (PIN %s), preferred language %s.\n", in.StoreName, in.Pincode, in.Language)
	fmt.Fprintf(&b, "Shelf health score: %d/100.\n", in.HealthScore)
	b.WriteString("Detected products:\n")
	for _, p := range in.Products {
		fmt.Fprintf(&b, "- %s (%s): %s, %d facings\n", p.Name, p.Category, p.StockLevel, p.FacingCount)
	}
	if critical := criticalNames(in.Products); len(critical) > 0 {
		fmt.Fprintf(&b, "Out of stock right now: %s.\n", strings.Join(critical, ", "))
	}
	b.WriteString("Give your recommendation as the JSON object described in your instructions.")
	return b.String()
}

func criticalNames(products []domain.DetectedProduct) []string {
	var names []string
	for _, p := range products {
		if p.StockLevel == domain.StockOutOfStock {
			names = append(names, p.Name)
		}
	}
	return names
}
