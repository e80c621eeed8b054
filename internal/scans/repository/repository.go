// Package repository persists scans, their detected products, and debate
// rounds. Terminal transitions are guarded in SQL so a scan can only leave
// `processing` once; anything arriving after that is discarded by the guard.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/apperr"
)

// Round is one persisted debate round, in insertion order.
type Round struct {
	ID             uuid.UUID `json:"id"`
	ScanID         uuid.UUID `json:"scanId"`
	Agent          string    `json:"agent"`
	Perspective    string    `json:"perspective"`
	Model          string    `json:"model"`
	Recommendation string    `json:"recommendation"`
	Reasoning      string    `json:"reasoning"`
	Confidence     int       `json:"confidence"`
	Selected       bool      `json:"selected"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const scanColumns = `id, store_id, status, source, photo_key, captured_at, health_score,
	products_detected, critical_items, final_recommendation, error_code, error_message,
	created_at, completed_at`

func scanRow(row pgx.Row) (domain.Scan, error) {
	var s domain.Scan
	err := row.Scan(
		&s.ID, &s.StoreID, &s.Status, &s.Source, &s.PhotoKey, &s.CapturedAt, &s.HealthScore,
		&s.ProductCount, &s.CriticalItems, &s.FinalRecommendation, &s.ErrorCode, &s.ErrorMessage,
		&s.CreatedAt, &s.CompletedAt,
	)
	return s, err
}

// Create inserts a new scan in `processing`.
func (r *Repo) Create(ctx context.Context, storeID uuid.UUID, source, photoKey string, capturedAt *time.Time) (domain.Scan, error) {
	query := `
		INSERT INTO scans (store_id, status, source, photo_key, captured_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + scanColumns

	scan, err := scanRow(r.pool.QueryRow(ctx, query, storeID, domain.StatusProcessing, source, photoKey, capturedAt))
	if err != nil {
		return domain.Scan{}, fmt.Errorf("create scan: %w", err)
	}
	return scan, nil
}

// GetByID returns one scan.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = $1`

	scan, err := scanRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Scan{}, apperr.NotFound("scan not found")
		}
		return domain.Scan{}, fmt.Errorf("get scan: %w", err)
	}
	return scan, nil
}

// ListByStore returns a store's scans, newest first.
func (r *Repo) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]domain.Scan, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + scanColumns + ` FROM scans WHERE store_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var scans []domain.Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// ReplaceProducts swaps a scan's detected products in one transaction.
// Re-running extraction for the same scan replaces rows instead of
// appending, so a retried pipeline never duplicates detections.
func (r *Repo) ReplaceProducts(ctx context.Context, scanID, storeID uuid.UUID, products []domain.DetectedProduct) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace products: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM detected_products WHERE scan_id = $1`, scanID); err != nil {
		return fmt.Errorf("clear detected products: %w", err)
	}

	for _, p := range products {
		_, err := tx.Exec(ctx, `
			INSERT INTO detected_products (scan_id, store_id, name, category, stock_level, facing_count, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			scanID, storeID, p.Name, p.Category, p.StockLevel, p.FacingCount, p.Confidence,
		)
		if err != nil {
			return fmt.Errorf("insert detected product: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE scans SET products_detected = $2, critical_items = $3 WHERE id = $1`,
		scanID, len(products), domain.CriticalCount(products),
	)
	if err != nil {
		return fmt.Errorf("update scan counts: %w", err)
	}

	return tx.Commit(ctx)
}

// ListProducts returns a scan's detected products.
func (r *Repo) ListProducts(ctx context.Context, scanID uuid.UUID) ([]domain.DetectedProduct, error) {
	query := `
		SELECT id, scan_id, name, category, stock_level, facing_count, confidence
		FROM detected_products
		WHERE scan_id = $1
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("list detected products: %w", err)
	}
	defer rows.Close()

	var products []domain.DetectedProduct
	for rows.Next() {
		var p domain.DetectedProduct
		if err := rows.Scan(&p.ID, &p.ScanID, &p.Name, &p.Category, &p.StockLevel, &p.FacingCount, &p.Confidence); err != nil {
			return nil, fmt.Errorf("scan detected product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Complete moves a scan from processing to completed, stores the debate
// rounds, and bumps the store's counters, all in one transaction. When the
// scan is already terminal the update matches no row and the late result is
// discarded with a conflict error.
func (r *Repo) Complete(ctx context.Context, scanID, storeID uuid.UUID, healthScore int, finalRecommendation string, rounds []Round) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete scan: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE scans
		SET status = $2, health_score = $3, final_recommendation = $4, completed_at = now()
		WHERE id = $1 AND status = $5`,
		scanID, domain.StatusCompleted, healthScore, finalRecommendation, domain.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("scan is already terminal")
	}

	for i, round := range rounds {
		_, err := tx.Exec(ctx, `
			INSERT INTO debate_rounds (scan_id, agent, perspective, model, recommendation, reasoning, confidence, selected, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			scanID, round.Agent, round.Perspective, round.Model, round.Recommendation,
			round.Reasoning, round.Confidence, round.Selected, i,
		)
		if err != nil {
			return fmt.Errorf("insert debate round: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE stores
		SET total_scans = total_scans + 1, shelf_health_score = $2, last_scan_at = now(), updated_at = now()
		WHERE id = $1`,
		storeID, healthScore,
	)
	if err != nil {
		return fmt.Errorf("update store counters: %w", err)
	}

	return tx.Commit(ctx)
}

// Fail moves a scan from processing to failed with a cause. Store counters
// are untouched on this path. Already-terminal scans return a conflict.
func (r *Repo) Fail(ctx context.Context, scanID uuid.UUID, errorCode, errorMessage string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scans
		SET status = $2, error_code = $3, error_message = $4, completed_at = now()
		WHERE id = $1 AND status = $5`,
		scanID, domain.StatusFailed, errorCode, errorMessage, domain.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("fail scan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("scan is already terminal")
	}
	return nil
}

// ListRounds returns a scan's debate rounds in insertion order.
func (r *Repo) ListRounds(ctx context.Context, scanID uuid.UUID) ([]Round, error) {
	query := `
		SELECT id, scan_id, agent, perspective, model, recommendation, reasoning, confidence, selected, position, created_at
		FROM debate_rounds
		WHERE scan_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("list debate rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var round Round
		if err := rows.Scan(
			&round.ID, &round.ScanID, &round.Agent, &round.Perspective, &round.Model,
			&round.Recommendation, &round.Reasoning, &round.Confidence, &round.Selected,
			&round.Position, &round.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan debate round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}
