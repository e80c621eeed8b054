// Package repository persists the WhatsApp message log. Every inbound and
// outbound exchange is recorded with direction, content type, and delivery
// status so redelivery can be retried and conversations audited.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message types.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeAudio = "audio"
)

// Delivery statuses.
const (
	StatusReceived = "received"
	StatusQueued   = "queued"
	StatusSent     = "sent"
	StatusFailed   = "failed"
)

// Message is one logged WhatsApp exchange.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	StoreID     *uuid.UUID `json:"storeId,omitempty"`
	Phone       string     `json:"phone"`
	Direction   string     `json:"direction"`
	MessageType string     `json:"messageType"`
	Content     string     `json:"content"`
	MediaURL    string     `json:"mediaUrl,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Log records one exchange and returns its id.
func (r *Repo) Log(ctx context.Context, msg Message) (uuid.UUID, error) {
	query := `
		INSERT INTO whatsapp_messages (store_id, phone, direction, message_type, content, media_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		msg.StoreID, msg.Phone, msg.Direction, msg.MessageType, msg.Content, msg.MediaURL, msg.Status,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("log whatsapp message: %w", err)
	}
	return id, nil
}

// UpdateStatus moves a logged message to a new delivery status.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE whatsapp_messages SET status = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("update whatsapp message status: %w", err)
	}
	return nil
}

// ListByStore returns the most recent exchanges for a store, newest first.
func (r *Repo) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, store_id, phone, direction, message_type, content, media_url, status, created_at
		FROM whatsapp_messages
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list whatsapp messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.StoreID, &m.Phone, &m.Direction, &m.MessageType, &m.Content, &m.MediaURL, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan whatsapp message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
