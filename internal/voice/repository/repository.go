// Package repository persists voice notes.
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

// Delivery statuses for a voice note.
const (
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// VoiceNote is one synthesized recommendation for a scan.
type VoiceNote struct {
	ID              uuid.UUID `json:"id"`
	ScanID          uuid.UUID `json:"scanId"`
	StoreID         uuid.UUID `json:"storeId"`
	AudioKey        string    `json:"audioKey"`
	DurationSeconds int       `json:"durationSeconds"`
	Language        string    `json:"language"`
	Transcript      string    `json:"transcript"`
	Channel         string    `json:"channel"`
	DeliveryStatus  string    `json:"deliveryStatus"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create stores a voice note record and returns it with its id.
func (r *Repo) Create(ctx context.Context, note VoiceNote) (VoiceNote, error) {
	query := `
		INSERT INTO voice_notes (scan_id, store_id, audio_key, duration_seconds, language, transcript, channel, delivery_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		note.ScanID, note.StoreID, note.AudioKey, note.DurationSeconds,
		note.Language, note.Transcript, note.Channel, note.DeliveryStatus,
	).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return VoiceNote{}, fmt.Errorf("create voice note: %w", err)
	}
	return note, nil
}

// GetByScanID returns the voice note for a scan.
func (r *Repo) GetByScanID(ctx context.Context, scanID uuid.UUID) (VoiceNote, error) {
	query := `
		SELECT id, scan_id, store_id, audio_key, duration_seconds, language, transcript, channel, delivery_status, created_at
		FROM voice_notes
		WHERE scan_id = $1`

	var note VoiceNote
	err := r.pool.QueryRow(ctx, query, scanID).Scan(
		&note.ID, &note.ScanID, &note.StoreID, &note.AudioKey, &note.DurationSeconds,
		&note.Language, &note.Transcript, &note.Channel, &note.DeliveryStatus, &note.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VoiceNote{}, apperr.NotFound("voice note not found")
		}
		return VoiceNote{}, fmt.Errorf("get voice note: %w", err)
	}
	return note, nil
}

// UpdateDeliveryStatus records the outcome of a delivery attempt.
func (r *Repo) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE voice_notes SET delivery_status = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("update voice note status: %w", err)
	}
	return nil
}

// ListUndelivered returns failed or stuck voice notes for redelivery.
func (r *Repo) ListUndelivered(ctx context.Context, olderThan time.Duration, limit int) ([]VoiceNote, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, scan_id, store_id, audio_key, duration_seconds, language, transcript, channel, delivery_status, created_at
		FROM voice_notes
		WHERE delivery_status IN ($1, $2) AND created_at < $3
		ORDER BY created_at ASC
		LIMIT $4`

	rows, err := r.pool.Query(ctx, query, StatusQueued, StatusFailed, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("list undelivered voice notes: %w", err)
	}
	defer rows.Close()

	var notes []VoiceNote
	for rows.Next() {
		var note VoiceNote
		if err := rows.Scan(
			&note.ID, &note.ScanID, &note.StoreID, &note.AudioKey, &note.DurationSeconds,
			&note.Language, &note.Transcript, &note.Channel, &note.DeliveryStatus, &note.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan voice note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
