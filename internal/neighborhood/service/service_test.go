package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"shelfscan_backend/internal/events"
	"shelfscan_backend/internal/neighborhood/repository"
	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/logger"
)

type fakeDemandStore struct {
	applied   bool
	lastApply repository.ApplyParams
	calls     int
}

func (f *fakeDemandStore) Apply(_ context.Context, params repository.ApplyParams) (bool, error) {
	f.calls++
	f.lastApply = params
	return f.applied, nil
}

func (f *fakeDemandStore) ListByPincode(context.Context, string, int) ([]repository.Demand, error) {
	return nil, nil
}

type fakeProductReader struct {
	products []domain.DetectedProduct
}

func (f *fakeProductReader) ListProducts(context.Context, uuid.UUID) ([]domain.DetectedProduct, error) {
	return f.products, nil
}

func newTestService(store *fakeDemandStore, products []domain.DetectedProduct, bus events.Bus) *Service {
	return New(store, &fakeProductReader{products: products}, bus, logger.New("development"))
}

func TestAggregateDerivesCategoriesAndStockouts(t *testing.T) {
	store := &fakeDemandStore{applied: true}
	products := []domain.DetectedProduct{
		{Name: "Parle-G", Category: "snacks", StockLevel: domain.StockAdequate},
		{Name: "Tata Salt", Category: "staples", StockLevel: domain.StockOutOfStock},
		{Name: "Maggi", Category: "snacks", StockLevel: domain.StockLow},
	}
	svc := newTestService(store, products, events.NewInMemoryBus(logger.New("development")))

	completedAt := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC) // Wednesday
	err := svc.Aggregate(context.Background(), AggregateParams{
		ScanID:      uuid.New(),
		StoreID:     uuid.New(),
		Pincode:     "110001",
		HealthScore: 72,
		CompletedAt: completedAt,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	got := store.lastApply
	if len(got.Categories) != 3 {
		t.Fatalf("categories = %v, want 3 entries", got.Categories)
	}
	if len(got.Stockouts) != 1 || got.Stockouts[0] != "Tata Salt" {
		t.Fatalf("stockouts = %v, want [Tata Salt]", got.Stockouts)
	}
	wantWeek := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !got.WeekStart.Equal(wantWeek) {
		t.Fatalf("week start = %v, want %v", got.WeekStart, wantWeek)
	}
	if got.HealthScore != 72 {
		t.Fatalf("health score = %d, want 72", got.HealthScore)
	}
}

func TestAggregatePublishesUpdateEvent(t *testing.T) {
	store := &fakeDemandStore{applied: true}
	bus := events.NewInMemoryBus(logger.New("development"))

	received := make(chan events.NeighborhoodUpdated, 1)
	bus.Subscribe(events.NeighborhoodUpdated{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		received <- e.(events.NeighborhoodUpdated)
		return nil
	}))

	svc := newTestService(store, []domain.DetectedProduct{{Name: "Maggi", Category: "snacks", StockLevel: domain.StockAdequate}}, bus)
	if err := svc.Aggregate(context.Background(), AggregateParams{
		ScanID:      uuid.New(),
		StoreID:     uuid.New(),
		Pincode:     "110001",
		HealthScore: 80,
		CompletedAt: time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	select {
	case evt := <-received:
		if evt.Pincode != "110001" {
			t.Fatalf("event pincode = %q, want 110001", evt.Pincode)
		}
		if evt.WeekStart != "2026-08-24" {
			t.Fatalf("event week start = %q, want 2026-08-24", evt.WeekStart)
		}
	case <-time.After(time.Second):
		t.Fatal("no neighborhood update event published")
	}
}

func TestAggregateAlreadyAppliedIsQuiet(t *testing.T) {
	store := &fakeDemandStore{applied: false}
	bus := events.NewInMemoryBus(logger.New("development"))

	published := make(chan struct{}, 1)
	bus.Subscribe(events.NeighborhoodUpdated{}.EventName(), events.HandlerFunc(func(context.Context, events.Event) error {
		published <- struct{}{}
		return nil
	}))

	svc := newTestService(store, []domain.DetectedProduct{{Name: "Maggi", Category: "snacks"}}, bus)
	if err := svc.Aggregate(context.Background(), AggregateParams{
		ScanID:      uuid.New(),
		StoreID:     uuid.New(),
		Pincode:     "110001",
		CompletedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	select {
	case <-published:
		t.Fatal("update event published for an already-aggregated scan")
	case <-time.After(50 * time.Millisecond):
	}
}
