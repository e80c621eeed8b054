package vision

import (
	"testing"

	"shelfscan_backend/internal/scans/domain"
)

func TestParseExtraction(t *testing.T) {
	raw := "```json\n" + `{
		"products": [
			{"name": "Parle-G", "category": "Biscuits", "stock_level": "low", "facing_count": 2, "confidence": 0.93},
			{"name": "", "category": "snacks", "stock_level": "adequate", "facing_count": 4, "confidence": 0.8},
			{"name": "Tata Salt", "category": "cooking essentials", "stock_level": "empty", "facing_count": -3, "confidence": 1.4}
		],
		"shelf_observations": "sparse top shelf"
	}` + "\n```"

	products, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products (nameless dropped), got %d", len(products))
	}

	first := products[0]
	if first.Name != "Parle-G" || first.Category != "biscuits" {
		t.Fatalf("unexpected first product: %+v", first)
	}
	if first.StockLevel != domain.StockLow {
		t.Fatalf("expected low stock, got %s", first.StockLevel)
	}

	second := products[1]
	if second.Category != "other" {
		t.Fatalf("unknown category should fold to other, got %s", second.Category)
	}
	if second.StockLevel != domain.StockOutOfStock {
		t.Fatalf("empty should fold to out_of_stock, got %s", second.StockLevel)
	}
	if second.FacingCount != 0 {
		t.Fatalf("negative facing count should clamp to 0, got %d", second.FacingCount)
	}
	if second.Confidence != 1 {
		t.Fatalf("confidence should clamp to 1, got %f", second.Confidence)
	}
}

func TestParseExtractionEmptyShelf(t *testing.T) {
	products, err := parseExtraction(`{"products": []}`)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected no products, got %d", len(products))
	}
}

func TestParseExtractionGarbage(t *testing.T) {
	if _, err := parseExtraction("the shelf looks fine to me"); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Personal Care", "personal_care"},
		{"  beverages ", "beverages"},
		{"frozen", "other"},
		{"", "other"},
	}
	for _, tc := range cases {
		if got := normalizeCategory(tc.in); got != tc.want {
			t.Fatalf("normalizeCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
