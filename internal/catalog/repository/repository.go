package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfscan_backend/platform/apperr"
)

const productNotFoundMessage = "product not found"

// Product is a canonical catalog entry that detected shelf products are
// normalized against.
type Product struct {
	ID            uuid.UUID `json:"id"`
	CanonicalName string    `json:"canonicalName"`
	Category      string    `json:"category"`
	Aliases       []string  `json:"aliases,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateProductParams holds the fields for adding a catalog entry.
type CreateProductParams struct {
	CanonicalName string
	Category      string
	Aliases       []string
}

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create adds a catalog product.
func (r *Repo) Create(ctx context.Context, params CreateProductParams) (Product, error) {
	query := `
		INSERT INTO product_catalog (canonical_name, category, aliases)
		VALUES ($1, $2, $3)
		ON CONFLICT (canonical_name) DO UPDATE SET category = EXCLUDED.category, aliases = EXCLUDED.aliases
		RETURNING id, canonical_name, category, aliases, created_at`

	var product Product
	err := r.pool.QueryRow(ctx, query, params.CanonicalName, params.Category, params.Aliases).Scan(
		&product.ID, &product.CanonicalName, &product.Category, &product.Aliases, &product.CreatedAt,
	)
	if err != nil {
		return Product{}, fmt.Errorf("create catalog product: %w", err)
	}
	return product, nil
}

// GetByID retrieves a catalog product.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	query := `
		SELECT id, canonical_name, category, aliases, created_at
		FROM product_catalog
		WHERE id = $1`

	var product Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&product.ID, &product.CanonicalName, &product.Category, &product.Aliases, &product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get catalog product: %w", err)
	}
	return product, nil
}

// List returns catalog products, optionally filtered by a name substring.
func (r *Repo) List(ctx context.Context, search string, limit int) ([]Product, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	whereClauses := []string{"true"}
	args := []interface{}{}
	argIdx := 1

	if search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("canonical_name ILIKE $%d", argIdx))
		args = append(args, "%"+search+"%")
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT id, canonical_name, category, aliases, created_at
		FROM product_catalog
		WHERE %s
		ORDER BY canonical_name
		LIMIT $%d`, strings.Join(whereClauses, " AND "), argIdx)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.CanonicalName, &product.Category, &product.Aliases, &product.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// ListAll returns the full catalog for in-memory fuzzy matching.
func (r *Repo) ListAll(ctx context.Context) ([]Product, error) {
	return r.List(ctx, "", 500)
}
