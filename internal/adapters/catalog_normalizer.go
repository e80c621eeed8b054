package adapters

import (
	"context"

	catservice "shelfscan_backend/internal/catalog/service"
	"shelfscan_backend/internal/vision"
)

// CatalogNormalizer adapts the catalog matcher for the vision extractor.
// Vision only needs the canonical name and category, not the full Match.
type CatalogNormalizer struct {
	catalog *catservice.Service
}

// NewCatalogNormalizer creates the normalizer adapter.
func NewCatalogNormalizer(catalog *catservice.Service) *CatalogNormalizer {
	return &CatalogNormalizer{catalog: catalog}
}

// NormalizeProductName maps a raw detected name onto the catalog.
func (a *CatalogNormalizer) NormalizeProductName(ctx context.Context, raw string) (string, string, bool) {
	match := a.catalog.Normalize(ctx, raw)
	return match.CanonicalName, match.Category, match.Matched
}

// Compile-time check that CatalogNormalizer implements vision.Normalizer.
var _ vision.Normalizer = (*CatalogNormalizer)(nil)
