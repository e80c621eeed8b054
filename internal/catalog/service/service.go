package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xrash/smetrics"

	"shelfscan_backend/internal/catalog/repository"
	"shelfscan_backend/platform/logger"
)

// matchThreshold is the minimum Jaro-Winkler similarity for a detected
// product name to be normalized onto a catalog entry.
const matchThreshold = 0.88

// cacheTTL bounds how stale the in-memory catalog snapshot may get.
const cacheTTL = 5 * time.Minute

// Match is the result of normalizing a raw product name.
type Match struct {
	ProductID     *uuid.UUID `json:"productId,omitempty"`
	CanonicalName string     `json:"canonicalName"`
	Category      string     `json:"category"`
	Similarity    float64    `json:"similarity"`
	Matched       bool       `json:"matched"`
}

// Service normalizes detected product names against the catalog with
// fuzzy matching. The catalog is small (hundreds of SKUs), so matching
// runs against an in-memory snapshot.
type Service struct {
	repo *repository.Repo
	log  *logger.Logger

	mu        sync.RWMutex
	snapshot  []repository.Product
	fetchedAt time.Time
}

// New creates the catalog service.
func New(repo *repository.Repo, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns catalog products for the API.
func (s *Service) List(ctx context.Context, search string, limit int) ([]repository.Product, error) {
	return s.repo.List(ctx, search, limit)
}

// Normalize maps a raw detected name onto the closest catalog entry. When no
// entry clears the similarity threshold the raw name is kept with an
// "uncategorized" category so downstream aggregation still counts it.
func (s *Service) Normalize(ctx context.Context, rawName string) Match {
	cleaned := strings.TrimSpace(rawName)
	if cleaned == "" {
		return Match{CanonicalName: "", Category: "uncategorized"}
	}

	products, err := s.catalogSnapshot(ctx)
	if err != nil {
		s.log.DatabaseError("catalog snapshot", err)
		return Match{CanonicalName: cleaned, Category: "uncategorized"}
	}

	return BestMatch(products, cleaned)
}

// BestMatch finds the catalog entry closest to rawName. Exposed for the
// matcher itself to be testable without a database.
func BestMatch(products []repository.Product, rawName string) Match {
	cleaned := strings.TrimSpace(rawName)
	best := Match{CanonicalName: cleaned, Category: "uncategorized"}

	for i := range products {
		product := &products[i]
		score := nameSimilarity(cleaned, product.CanonicalName)
		for _, alias := range product.Aliases {
			if aliasScore := nameSimilarity(cleaned, alias); aliasScore > score {
				score = aliasScore
			}
		}
		if score > best.Similarity {
			id := product.ID
			best = Match{
				ProductID:     &id,
				CanonicalName: product.CanonicalName,
				Category:      product.Category,
				Similarity:    score,
				Matched:       true,
			}
		}
	}

	if best.Similarity < matchThreshold {
		return Match{CanonicalName: cleaned, Category: "uncategorized", Similarity: best.Similarity}
	}
	return best
}

func (s *Service) catalogSnapshot(ctx context.Context) ([]repository.Product, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Since(s.fetchedAt) < cacheTTL {
		snapshot := s.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = products
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return products, nil
}

func nameSimilarity(a, b string) float64 {
	return smetrics.JaroWinkler(strings.ToLower(a), strings.ToLower(b), 0.7, 4)
}
