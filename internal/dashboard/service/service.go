// Package service assembles the store dashboard from the read repositories.
package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"shelfscan_backend/internal/dashboard/repository"
	neighborhoodrepo "shelfscan_backend/internal/neighborhood/repository"
	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/logger"
)

const (
	maxAlerts         = 15
	neighborhoodWeeks = 10
	recentScanLimit   = 10
)

// minHealthyFacings mirrors the shelf-health scoring threshold.
const minHealthyFacings = 2

// AlertTypeCritical and friends classify dashboard alerts by urgency.
const (
	AlertTypeCritical = "critical"
	AlertTypeWarning  = "warning"
	AlertTypeInfo     = "info"
)

// Alert is an actionable shelf issue surfaced on the dashboard.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Product string `json:"product"`
}

// Stats is the dashboard's headline number block.
type Stats struct {
	TotalScans           int `json:"totalScans"`
	ShelfHealthScore     int `json:"shelfHealthScore"`
	CriticalItems        int `json:"criticalItems"`
	LowStockItems        int `json:"lowStockItems"`
	OKItems              int `json:"okItems"`
	OverstockedItems     int `json:"overstockedItems"`
	AvgPipelineSeconds   int `json:"avgPipelineSeconds"`
	TotalProductsTracked int `json:"totalProductsTracked"`
}

// Dashboard is the full store dashboard payload.
type Dashboard struct {
	Store        repository.StoreSummary       `json:"store"`
	Stats        Stats                         `json:"stats"`
	RecentScans  []domain.Scan                 `json:"recentScans"`
	CurrentShelf []repository.ShelfProduct     `json:"currentShelf"`
	Alerts       []Alert                       `json:"alerts"`
	VoiceNotes   []repository.VoiceNoteSummary `json:"voiceNotes"`
	Neighborhood []neighborhoodrepo.Demand     `json:"neighborhood"`
	Competitors  []repository.Competitor       `json:"competitors"`
	ScanChart    []repository.WeeklyCount      `json:"scanChart"`
}

// ScanReader lists a store's recent scans.
type ScanReader interface {
	ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]domain.Scan, error)
}

// NeighborhoodReader lists the demand rollups for a pincode.
type NeighborhoodReader interface {
	ListByPincode(ctx context.Context, pincode string, weeks int) ([]neighborhoodrepo.Demand, error)
}

// Service builds the dashboard.
type Service struct {
	repo         *repository.Repo
	scans        ScanReader
	neighborhood NeighborhoodReader
	log          *logger.Logger
}

// New creates the dashboard service.
func New(repo *repository.Repo, scans ScanReader, neighborhood NeighborhoodReader, log *logger.Logger) *Service {
	return &Service{repo: repo, scans: scans, neighborhood: neighborhood, log: log}
}

// Build assembles the dashboard for a store. The store row is required;
// the surrounding panels degrade to empty slices on partial failures.
func (s *Service) Build(ctx context.Context, storeID uuid.UUID) (Dashboard, error) {
	store, err := s.repo.StoreSummary(ctx, storeID)
	if err != nil {
		return Dashboard{}, err
	}

	products, err := s.repo.CurrentProducts(ctx, storeID, 50)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard products: %w", err)
	}

	recentScans, err := s.scans.ListByStore(ctx, storeID, recentScanLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard scans: %w", err)
	}

	avgSeconds, err := s.repo.AvgPipelineSeconds(ctx, storeID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard stats: %w", err)
	}

	// The side panels are informational; a failure there should not take
	// the whole dashboard down.
	voiceNotes, err := s.repo.RecentVoiceNotes(ctx, storeID, 10)
	if err != nil {
		s.log.Error("dashboard voice notes failed", "error", err.Error())
		voiceNotes = nil
	}
	neighborhood, err := s.neighborhood.ListByPincode(ctx, store.Pincode, neighborhoodWeeks)
	if err != nil {
		s.log.Error("dashboard neighborhood failed", "error", err.Error())
		neighborhood = nil
	}
	competitors, err := s.repo.Competitors(ctx, store.Pincode, storeID)
	if err != nil {
		s.log.Error("dashboard competitors failed", "error", err.Error())
		competitors = nil
	}
	chart, err := s.repo.WeeklyScanCounts(ctx, storeID, 8)
	if err != nil {
		s.log.Error("dashboard scan chart failed", "error", err.Error())
		chart = nil
	}

	return Dashboard{
		Store:        store,
		Stats:        BuildStats(store, products, avgSeconds),
		RecentScans:  recentScans,
		CurrentShelf: products,
		Alerts:       BuildAlerts(products),
		VoiceNotes:   voiceNotes,
		Neighborhood: neighborhood,
		Competitors:  competitors,
		ScanChart:    chart,
	}, nil
}

// BuildStats derives the headline numbers from the store row and the
// current shelf state.
func BuildStats(store repository.StoreSummary, products []repository.ShelfProduct, avgSeconds float64) Stats {
	stats := Stats{
		TotalScans:         store.TotalScans,
		ShelfHealthScore:   store.ShelfHealthScore,
		AvgPipelineSeconds: int(math.Round(avgSeconds)),
	}

	tracked := make(map[string]struct{}, len(products))
	for _, p := range products {
		tracked[p.Name] = struct{}{}
		switch domain.StockLevel(p.StockLevel) {
		case domain.StockOutOfStock:
			stats.CriticalItems++
		case domain.StockLow:
			stats.LowStockItems++
		case domain.StockOverstocked:
			stats.OverstockedItems++
		default:
			stats.OKItems++
		}
	}
	stats.TotalProductsTracked = len(tracked)
	return stats
}

// BuildAlerts turns the current shelf state into a capped, deduplicated
// alert list: stockouts first as critical, then low stock, then sparse
// facings.
func BuildAlerts(products []repository.ShelfProduct) []Alert {
	alerts := make([]Alert, 0, maxAlerts)
	seen := make(map[string]struct{}, len(products))

	for _, p := range products {
		if len(alerts) >= maxAlerts {
			break
		}
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}

		switch domain.StockLevel(p.StockLevel) {
		case domain.StockOutOfStock:
			alerts = append(alerts, Alert{
				Type:    AlertTypeCritical,
				Message: fmt.Sprintf("%s is out of stock", p.Name),
				Product: p.Name,
			})
		case domain.StockLow:
			alerts = append(alerts, Alert{
				Type:    AlertTypeWarning,
				Message: fmt.Sprintf("%s is running low (%d facings left)", p.Name, p.FacingCount),
				Product: p.Name,
			})
		default:
			if p.FacingCount < minHealthyFacings {
				alerts = append(alerts, Alert{
					Type:    AlertTypeInfo,
					Message: fmt.Sprintf("%s has sparse shelf facing", p.Name),
					Product: p.Name,
				})
			}
		}
	}
	return alerts
}
