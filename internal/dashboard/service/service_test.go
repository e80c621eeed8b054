package service

import (
	"testing"

	"shelfscan_backend/internal/dashboard/repository"
)

func shelf(name, level string, facings int) repository.ShelfProduct {
	return repository.ShelfProduct{Name: name, Category: "snacks", StockLevel: level, FacingCount: facings}
}

func TestBuildStatsCountsByStockLevel(t *testing.T) {
	store := repository.StoreSummary{TotalScans: 12, ShelfHealthScore: 74}
	products := []repository.ShelfProduct{
		shelf("Parle-G", "out_of_stock", 0),
		shelf("Maggi", "low", 1),
		shelf("Tata Salt", "adequate", 4),
		shelf("Amul Butter", "overstocked", 9),
		shelf("Maggi", "low", 1), // duplicate product name
	}

	stats := BuildStats(store, products, 27.6)

	if stats.TotalScans != 12 || stats.ShelfHealthScore != 74 {
		t.Fatalf("store numbers not carried: %+v", stats)
	}
	if stats.CriticalItems != 1 || stats.LowStockItems != 2 || stats.OKItems != 1 || stats.OverstockedItems != 1 {
		t.Fatalf("stock counts wrong: %+v", stats)
	}
	if stats.TotalProductsTracked != 4 {
		t.Fatalf("products tracked = %d, want 4", stats.TotalProductsTracked)
	}
	if stats.AvgPipelineSeconds != 28 {
		t.Fatalf("avg pipeline seconds = %d, want 28", stats.AvgPipelineSeconds)
	}
}

func TestBuildAlertsClassifiesAndDedupes(t *testing.T) {
	products := []repository.ShelfProduct{
		shelf("Parle-G", "out_of_stock", 0),
		shelf("Parle-G", "out_of_stock", 0),
		shelf("Maggi", "low", 1),
		shelf("Tata Salt", "adequate", 1),
		shelf("Amul Butter", "adequate", 5),
	}

	alerts := BuildAlerts(products)

	if len(alerts) != 3 {
		t.Fatalf("got %d alerts, want 3: %+v", len(alerts), alerts)
	}
	if alerts[0].Type != AlertTypeCritical || alerts[0].Product != "Parle-G" {
		t.Fatalf("first alert = %+v, want critical Parle-G", alerts[0])
	}
	if alerts[1].Type != AlertTypeWarning || alerts[1].Product != "Maggi" {
		t.Fatalf("second alert = %+v, want warning Maggi", alerts[1])
	}
	if alerts[2].Type != AlertTypeInfo || alerts[2].Product != "Tata Salt" {
		t.Fatalf("third alert = %+v, want sparse-facing Tata Salt", alerts[2])
	}
}

func TestBuildAlertsCapped(t *testing.T) {
	var products []repository.ShelfProduct
	for _, name := range []string{
		"a", "b", "c", "d", "e", "f", "g", "h", "i", "j",
		"k", "l", "m", "n", "o", "p", "q", "r",
	} {
		products = append(products, shelf(name, "out_of_stock", 0))
	}

	if got := len(BuildAlerts(products)); got != maxAlerts {
		t.Fatalf("got %d alerts, want cap %d", got, maxAlerts)
	}
}
