package service

import (
	"testing"

	"github.com/google/uuid"

	"shelfscan_backend/internal/catalog/repository"
)

func sampleCatalog() []repository.Product {
	return []repository.Product{
		{ID: uuid.New(), CanonicalName: "Parle-G Biscuits", Category: "biscuits", Aliases: []string{"parle g", "parleg"}},
		{ID: uuid.New(), CanonicalName: "Tata Salt", Category: "staples"},
		{ID: uuid.New(), CanonicalName: "Maggi Noodles", Category: "instant_food", Aliases: []string{"maggi 2 minute noodles"}},
	}
}

func TestBestMatchExactName(t *testing.T) {
	match := BestMatch(sampleCatalog(), "Tata Salt")
	if !match.Matched {
		t.Fatal("expected a catalog match")
	}
	if match.CanonicalName != "Tata Salt" || match.Category != "staples" {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestBestMatchFuzzySpelling(t *testing.T) {
	match := BestMatch(sampleCatalog(), "parle-g biscuit")
	if !match.Matched {
		t.Fatal("expected fuzzy match for misspelled name")
	}
	if match.CanonicalName != "Parle-G Biscuits" {
		t.Fatalf("matched wrong product: %+v", match)
	}
}

func TestBestMatchViaAlias(t *testing.T) {
	match := BestMatch(sampleCatalog(), "maggi 2 minute noodles")
	if !match.Matched || match.CanonicalName != "Maggi Noodles" {
		t.Fatalf("alias should map to canonical entry, got %+v", match)
	}
}

func TestBestMatchBelowThresholdKeepsRawName(t *testing.T) {
	match := BestMatch(sampleCatalog(), "Amul Butter 500g")
	if match.Matched {
		t.Fatalf("unrelated name should not match, got %+v", match)
	}
	if match.CanonicalName != "Amul Butter 500g" || match.Category != "uncategorized" {
		t.Fatalf("raw name should be preserved, got %+v", match)
	}
}
