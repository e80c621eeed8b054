// Package repository persists the weekly demand rollups. The accumulate step
// runs as a single transaction per scan: a processed-scan marker makes it
// idempotent, and a row lock on the (pincode, week) rollup prevents lost
// updates when two stores in the same pincode complete scans concurrently.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	neighborhood "shelfscan_backend/internal/neighborhood/domain"
)

// Demand is one (pincode, week) rollup row.
type Demand struct {
	ID                 uuid.UUID                 `json:"id"`
	Pincode            string                    `json:"pincode"`
	WeekStart          time.Time                 `json:"weekStart"`
	TotalStoresScanned int                       `json:"totalStoresScanned"`
	TopCategories      []neighborhood.RankedItem `json:"topCategories"`
	StockoutProducts   []neighborhood.RankedItem `json:"stockoutProducts"`
	Signals            neighborhood.Signals      `json:"demandSignals"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

// ApplyParams carries one completed scan's contribution to its window.
type ApplyParams struct {
	ScanID      uuid.UUID
	StoreID     uuid.UUID
	Pincode     string
	WeekStart   time.Time
	Categories  []string
	Stockouts   []string
	HealthScore int
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Apply folds one completed scan into its (pincode, week) rollup. Returns
// false without touching the rollup when the scan was already applied, so
// retries and replayed events never double-count.
func (r *Repo) Apply(ctx context.Context, params ApplyParams) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin apply: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		INSERT INTO neighborhood_processed_scans (scan_id, store_id, pincode, week_start)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scan_id) DO NOTHING`,
		params.ScanID, params.StoreID, params.Pincode, params.WeekStart,
	)
	if err != nil {
		return false, fmt.Errorf("mark scan processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// A store scanning twice in the same week contributes products but is
	// counted once.
	var firstScanThisWeek bool
	err = tx.QueryRow(ctx, `
		SELECT NOT EXISTS (
			SELECT 1 FROM neighborhood_processed_scans
			WHERE store_id = $1 AND pincode = $2 AND week_start = $3 AND scan_id <> $4
		)`,
		params.StoreID, params.Pincode, params.WeekStart, params.ScanID,
	).Scan(&firstScanThisWeek)
	if err != nil {
		return false, fmt.Errorf("check store dedup: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO neighborhood_demand (pincode, week_start, total_stores_scanned, top_categories, stockout_products, demand_signals)
		VALUES ($1, $2, 0, '[]', '[]', '{}')
		ON CONFLICT (pincode, week_start) DO NOTHING`,
		params.Pincode, params.WeekStart,
	)
	if err != nil {
		return false, fmt.Errorf("ensure rollup row: %w", err)
	}

	var (
		id             uuid.UUID
		totalStores    int
		categoriesJSON []byte
		stockoutsJSON  []byte
		signalsJSON    []byte
	)
	err = tx.QueryRow(ctx, `
		SELECT id, total_stores_scanned, top_categories, stockout_products, demand_signals
		FROM neighborhood_demand
		WHERE pincode = $1 AND week_start = $2
		FOR UPDATE`,
		params.Pincode, params.WeekStart,
	).Scan(&id, &totalStores, &categoriesJSON, &stockoutsJSON, &signalsJSON)
	if err != nil {
		return false, fmt.Errorf("lock rollup row: %w", err)
	}

	var categories, stockouts []neighborhood.RankedItem
	var signals neighborhood.Signals
	if err := json.Unmarshal(categoriesJSON, &categories); err != nil {
		return false, fmt.Errorf("decode categories: %w", err)
	}
	if err := json.Unmarshal(stockoutsJSON, &stockouts); err != nil {
		return false, fmt.Errorf("decode stockouts: %w", err)
	}
	if len(signalsJSON) > 0 && string(signalsJSON) != "{}" {
		if err := json.Unmarshal(signalsJSON, &signals); err != nil {
			return false, fmt.Errorf("decode signals: %w", err)
		}
	}

	if firstScanThisWeek {
		totalStores++
	}
	categories = neighborhood.MergeFrequency(categories, params.Categories, neighborhood.TopCategoriesK)
	stockouts = neighborhood.MergeFrequency(stockouts, params.Stockouts, neighborhood.StockoutProductsK)
	signals = neighborhood.MergeSignals(signals, params.HealthScore, len(params.Stockouts))

	newCategories, err := json.Marshal(categories)
	if err != nil {
		return false, fmt.Errorf("encode categories: %w", err)
	}
	newStockouts, err := json.Marshal(stockouts)
	if err != nil {
		return false, fmt.Errorf("encode stockouts: %w", err)
	}
	newSignals, err := json.Marshal(signals)
	if err != nil {
		return false, fmt.Errorf("encode signals: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE neighborhood_demand
		SET total_stores_scanned = $2, top_categories = $3, stockout_products = $4, demand_signals = $5, updated_at = now()
		WHERE id = $1`,
		id, totalStores, newCategories, newStockouts, newSignals,
	)
	if err != nil {
		return false, fmt.Errorf("update rollup: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit apply: %w", err)
	}
	return true, nil
}

// ListByPincode returns the most recent weekly rollups for a pincode.
func (r *Repo) ListByPincode(ctx context.Context, pincode string, weeks int) ([]Demand, error) {
	if weeks <= 0 || weeks > 52 {
		weeks = 8
	}

	query := `
		SELECT id, pincode, week_start, total_stores_scanned, top_categories, stockout_products, demand_signals, updated_at
		FROM neighborhood_demand
		WHERE pincode = $1
		ORDER BY week_start DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, pincode, weeks)
	if err != nil {
		return nil, fmt.Errorf("list rollups: %w", err)
	}
	defer rows.Close()

	var demands []Demand
	for rows.Next() {
		var (
			d              Demand
			categoriesJSON []byte
			stockoutsJSON  []byte
			signalsJSON    []byte
		)
		if err := rows.Scan(&d.ID, &d.Pincode, &d.WeekStart, &d.TotalStoresScanned, &categoriesJSON, &stockoutsJSON, &signalsJSON, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rollup: %w", err)
		}
		if err := json.Unmarshal(categoriesJSON, &d.TopCategories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		if err := json.Unmarshal(stockoutsJSON, &d.StockoutProducts); err != nil {
			return nil, fmt.Errorf("decode stockouts: %w", err)
		}
		if len(signalsJSON) > 0 && string(signalsJSON) != "{}" {
			if err := json.Unmarshal(signalsJSON, &d.Signals); err != nil {
				return nil, fmt.Errorf("decode signals: %w", err)
			}
		}
		demands = append(demands, d)
	}
	return demands, rows.Err()
}
