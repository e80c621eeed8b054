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

const storeNotFoundMessage = "store not found"

// Store is a registered kirana store.
type Store struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Pincode          string     `json:"pincode"`
	Language         string     `json:"language"`
	TotalScans       int        `json:"totalScans"`
	ShelfHealthScore int        `json:"shelfHealthScore"`
	LastScanAt       *time.Time `json:"lastScanAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// CreateStoreParams holds the fields needed to register a store.
type CreateStoreParams struct {
	Name     string
	Phone    string
	Pincode  string
	Language string
}

// Repo implements the stores repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new stores repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create registers a new store. The phone number is unique; re-registering
// an existing number returns a conflict.
func (r *Repo) Create(ctx context.Context, params CreateStoreParams) (Store, error) {
	query := `
		INSERT INTO stores (name, phone, pincode, language)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone) DO NOTHING
		RETURNING id, name, phone, pincode, language, total_scans, shelf_health_score, last_scan_at, created_at, updated_at`

	var store Store
	err := r.pool.QueryRow(ctx, query, params.Name, params.Phone, params.Pincode, params.Language).Scan(
		&store.ID, &store.Name, &store.Phone, &store.Pincode, &store.Language,
		&store.TotalScans, &store.ShelfHealthScore, &store.LastScanAt, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, apperr.Conflict("a store with this phone number already exists")
		}
		return Store{}, fmt.Errorf("create store: %w", err)
	}
	return store, nil
}

// GetByID retrieves a store by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Store, error) {
	query := `
		SELECT id, name, phone, pincode, language, total_scans, shelf_health_score, last_scan_at, created_at, updated_at
		FROM stores
		WHERE id = $1`

	var store Store
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&store.ID, &store.Name, &store.Phone, &store.Pincode, &store.Language,
		&store.TotalScans, &store.ShelfHealthScore, &store.LastScanAt, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, apperr.NotFound(storeNotFoundMessage)
		}
		return Store{}, fmt.Errorf("get store by id: %w", err)
	}
	return store, nil
}

// GetByPhone retrieves a store by its normalized phone number.
func (r *Repo) GetByPhone(ctx context.Context, phone string) (Store, error) {
	query := `
		SELECT id, name, phone, pincode, language, total_scans, shelf_health_score, last_scan_at, created_at, updated_at
		FROM stores
		WHERE phone = $1`

	var store Store
	err := r.pool.QueryRow(ctx, query, phone).Scan(
		&store.ID, &store.Name, &store.Phone, &store.Pincode, &store.Language,
		&store.TotalScans, &store.ShelfHealthScore, &store.LastScanAt, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, apperr.NotFound(storeNotFoundMessage)
		}
		return Store{}, fmt.Errorf("get store by phone: %w", err)
	}
	return store, nil
}
