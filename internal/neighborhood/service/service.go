// Package service folds completed scans into the weekly demand rollups. It
// subscribes to scan completion events and can also be driven directly by
// the backfill tooling.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfscan_backend/internal/events"
	neighborhood "shelfscan_backend/internal/neighborhood/domain"
	"shelfscan_backend/internal/neighborhood/repository"
	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/logger"
)

// DemandStore is the persistence slice the aggregator needs.
type DemandStore interface {
	Apply(ctx context.Context, params repository.ApplyParams) (bool, error)
	ListByPincode(ctx context.Context, pincode string, weeks int) ([]repository.Demand, error)
}

// ProductReader loads a scan's detected products.
type ProductReader interface {
	ListProducts(ctx context.Context, scanID uuid.UUID) ([]domain.DetectedProduct, error)
}

// Service runs the aggregation.
type Service struct {
	repo     DemandStore
	products ProductReader
	bus      events.Bus
	log      *logger.Logger
}

// New creates the aggregation service.
func New(repo DemandStore, products ProductReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, products: products, bus: bus, log: log}
}

// Subscribe registers the service on the event bus for scan completions.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.ScanCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		completed, ok := event.(events.ScanCompleted)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		return s.Aggregate(ctx, AggregateParams{
			ScanID:      completed.ScanID,
			StoreID:     completed.StoreID,
			Pincode:     completed.Pincode,
			HealthScore: completed.HealthScore,
			CompletedAt: completed.OccurredAt(),
		})
	}))
}

// AggregateParams identifies one completed scan to fold in.
type AggregateParams struct {
	ScanID      uuid.UUID
	StoreID     uuid.UUID
	Pincode     string
	HealthScore int
	CompletedAt time.Time
}

// Aggregate folds one completed scan into its (pincode, week) rollup. Safe to
// call more than once per scan; repeats are no-ops.
func (s *Service) Aggregate(ctx context.Context, params AggregateParams) error {
	products, err := s.products.ListProducts(ctx, params.ScanID)
	if err != nil {
		return fmt.Errorf("load products for aggregation: %w", err)
	}

	categories := make([]string, 0, len(products))
	var stockouts []string
	for _, p := range products {
		categories = append(categories, p.Category)
		if p.StockLevel == domain.StockOutOfStock {
			stockouts = append(stockouts, p.Name)
		}
	}

	weekStart := neighborhood.WeekStart(params.CompletedAt)
	applied, err := s.repo.Apply(ctx, repository.ApplyParams{
		ScanID:      params.ScanID,
		StoreID:     params.StoreID,
		Pincode:     params.Pincode,
		WeekStart:   weekStart,
		Categories:  categories,
		Stockouts:   stockouts,
		HealthScore: params.HealthScore,
	})
	if err != nil {
		return err
	}
	if !applied {
		s.log.Info("scan already aggregated, skipping", "scan_id", params.ScanID.String())
		return nil
	}

	s.bus.Publish(ctx, events.NeighborhoodUpdated{
		BaseEvent: events.NewBaseEvent(),
		Pincode:   params.Pincode,
		WeekStart: weekStart.Format("2006-01-02"),
		ScanID:    params.ScanID,
	})
	return nil
}

// Demand returns the recent weekly rollups for a pincode.
func (s *Service) Demand(ctx context.Context, pincode string, weeks int) ([]repository.Demand, error) {
	return s.repo.ListByPincode(ctx, pincode, weeks)
}
