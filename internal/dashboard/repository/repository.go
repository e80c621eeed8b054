// Package repository implements the dashboard read queries. The dashboard is
// a read model over tables owned by other modules; nothing here writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfscan_backend/platform/apperr"
)

// StoreSummary is the dashboard's view of the store row.
type StoreSummary struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Pincode          string     `json:"pincode"`
	Language         string     `json:"language"`
	TotalScans       int        `json:"totalScans"`
	ShelfHealthScore int        `json:"shelfHealthScore"`
	LastScanAt       *time.Time `json:"lastScanAt,omitempty"`
}

// ShelfProduct is one row of the current shelf state.
type ShelfProduct struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	StockLevel  string    `json:"stockLevel"`
	FacingCount int       `json:"facingCount"`
	Confidence  float64   `json:"confidence"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// Competitor is another store in the same pincode.
type Competitor struct {
	Name             string     `json:"name"`
	TotalScans       int        `json:"totalScans"`
	ShelfHealthScore int        `json:"shelfHealthScore"`
	LastScanAt       *time.Time `json:"lastScanAt,omitempty"`
}

// WeeklyCount is one bar of the scan activity chart.
type WeeklyCount struct {
	Week  string `json:"week"` // ISO date of the Monday
	Scans int    `json:"scans"`
}

// VoiceNoteSummary is a delivered advice note listed on the dashboard.
type VoiceNoteSummary struct {
	ID              uuid.UUID `json:"id"`
	ScanID          uuid.UUID `json:"scanId"`
	DurationSeconds int       `json:"durationSeconds"`
	Language        string    `json:"language"`
	Transcript      string    `json:"transcript"`
	DeliveryStatus  string    `json:"deliveryStatus"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Repo implements the dashboard read queries.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new dashboard repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// StoreSummary loads the dashboard header for a store.
func (r *Repo) StoreSummary(ctx context.Context, storeID uuid.UUID) (StoreSummary, error) {
	query := `
		SELECT id, name, phone, pincode, language, total_scans, shelf_health_score, last_scan_at
		FROM stores
		WHERE id = $1`

	var s StoreSummary
	err := r.pool.QueryRow(ctx, query, storeID).Scan(
		&s.ID, &s.Name, &s.Phone, &s.Pincode, &s.Language,
		&s.TotalScans, &s.ShelfHealthScore, &s.LastScanAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoreSummary{}, apperr.NotFound("store not found")
		}
		return StoreSummary{}, fmt.Errorf("load store summary: %w", err)
	}
	return s, nil
}

// CurrentProducts returns the most recently detected products for a store.
func (r *Repo) CurrentProducts(ctx context.Context, storeID uuid.UUID, limit int) ([]ShelfProduct, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT name, category, stock_level, facing_count, confidence, created_at
		FROM detected_products
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list current products: %w", err)
	}
	defer rows.Close()

	var products []ShelfProduct
	for rows.Next() {
		var p ShelfProduct
		if err := rows.Scan(&p.Name, &p.Category, &p.StockLevel, &p.FacingCount, &p.Confidence, &p.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan shelf product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Competitors returns the other stores in the same pincode.
func (r *Repo) Competitors(ctx context.Context, pincode string, excludeID uuid.UUID) ([]Competitor, error) {
	query := `
		SELECT name, total_scans, shelf_health_score, last_scan_at
		FROM stores
		WHERE pincode = $1 AND id <> $2
		ORDER BY shelf_health_score DESC`

	rows, err := r.pool.Query(ctx, query, pincode, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var competitors []Competitor
	for rows.Next() {
		var c Competitor
		if err := rows.Scan(&c.Name, &c.TotalScans, &c.ShelfHealthScore, &c.LastScanAt); err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}

// WeeklyScanCounts returns scan counts bucketed by ISO week, oldest first.
func (r *Repo) WeeklyScanCounts(ctx context.Context, storeID uuid.UUID, weeks int) ([]WeeklyCount, error) {
	if weeks <= 0 || weeks > 52 {
		weeks = 8
	}

	query := `
		SELECT date_trunc('week', created_at)::date AS week, count(*)
		FROM scans
		WHERE store_id = $1 AND created_at >= now() - make_interval(weeks => $2)
		GROUP BY week
		ORDER BY week ASC`

	rows, err := r.pool.Query(ctx, query, storeID, weeks)
	if err != nil {
		return nil, fmt.Errorf("weekly scan counts: %w", err)
	}
	defer rows.Close()

	var counts []WeeklyCount
	for rows.Next() {
		var week time.Time
		var n int
		if err := rows.Scan(&week, &n); err != nil {
			return nil, fmt.Errorf("scan weekly count: %w", err)
		}
		counts = append(counts, WeeklyCount{Week: week.Format("2006-01-02"), Scans: n})
	}
	return counts, rows.Err()
}

// AvgPipelineSeconds returns the mean time from intake to completion.
func (r *Repo) AvgPipelineSeconds(ctx context.Context, storeID uuid.UUID) (float64, error) {
	query := `
		SELECT coalesce(avg(extract(epoch FROM completed_at - created_at)), 0)
		FROM scans
		WHERE store_id = $1 AND status = 'completed' AND completed_at IS NOT NULL`

	var avg float64
	if err := r.pool.QueryRow(ctx, query, storeID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("avg pipeline seconds: %w", err)
	}
	return avg, nil
}

// RecentVoiceNotes returns the latest advice notes for a store.
func (r *Repo) RecentVoiceNotes(ctx context.Context, storeID uuid.UUID, limit int) ([]VoiceNoteSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	query := `
		SELECT id, scan_id, duration_seconds, language, transcript, delivery_status, created_at
		FROM voice_notes
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list voice notes: %w", err)
	}
	defer rows.Close()

	var notes []VoiceNoteSummary
	for rows.Next() {
		var n VoiceNoteSummary
		if err := rows.Scan(&n.ID, &n.ScanID, &n.DurationSeconds, &n.Language, &n.Transcript, &n.DeliveryStatus, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan voice note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
