package vision

import (
	"strings"

	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/ai/llmjson"
)

type productPayload struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	StockLevel  string  `json:"stock_level"`
	FacingCount int     `json:"facing_count"`
	Confidence  float64 `json:"confidence"`
}

type visionPayload struct {
	Products          []productPayload `json:"products"`
	ShelfObservations string           `json:"shelf_observations"`
}

// parseExtraction decodes raw model output into detected products.
// Entries without a name are dropped; numeric fields are clamped to
// sane ranges rather than rejected.
func parseExtraction(raw string) ([]domain.DetectedProduct, error) {
	var payload visionPayload
	if err := llmjson.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	products := make([]domain.DetectedProduct, 0, len(payload.Products))
	for _, p := range payload.Products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}

		facing := p.FacingCount
		if facing < 0 {
			facing = 0
		}
		confidence := p.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}

		products = append(products, domain.DetectedProduct{
			Name:        name,
			Category:    normalizeCategory(p.Category),
			StockLevel:  domain.ParseStockLevel(p.StockLevel),
			FacingCount: facing,
			Confidence:  confidence,
		})
	}
	return products, nil
}

var knownCategories = map[string]bool{
	"biscuits":      true,
	"snacks":        true,
	"beverages":     true,
	"staples":       true,
	"dairy":         true,
	"personal_care": true,
	"household":     true,
	"instant_food":  true,
	"confectionery": true,
	"other":         true,
}

func normalizeCategory(raw string) string {
	category := strings.ToLower(strings.TrimSpace(raw))
	category = strings.ReplaceAll(category, " ", "_")
	if knownCategories[category] {
		return category
	}
	return "other"
}
