// Package vision is the extraction adapter: it turns a shelf photo into
// normalized detected products and a shelf health score.
package vision

import (
	"context"
	"time"

	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
)

// ImageModel is the slice of the Gemini client the adapter needs.
type ImageModel interface {
	GenerateVision(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

// Normalizer maps raw product names onto catalog entries.
type Normalizer interface {
	NormalizeProductName(ctx context.Context, raw string) (canonical, category string, matched bool)
}

// Adapter runs vision extraction against the configured model.
type Adapter struct {
	model      ImageModel
	normalizer Normalizer
	timeout    time.Duration
	log        *logger.Logger
}

// NewAdapter creates the extraction adapter. normalizer may be nil, in which
// case raw model names are kept as-is.
func NewAdapter(model ImageModel, normalizer Normalizer, timeout time.Duration, log *logger.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Adapter{model: model, normalizer: normalizer, timeout: timeout, log: log}
}

// Extract analyzes a shelf photo. Failures carry stable error codes:
// inference_error when the model call or parsing fails, and
// no_products_detected when the photo contains no recognizable shelf.
func (a *Adapter) Extract(ctx context.Context, mimeType string, image []byte) (domain.VisionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.model.GenerateVision(ctx, extractionPrompt, mimeType, image)
	if err != nil {
		return domain.VisionResult{}, apperr.Wrap(apperr.KindUnavailable, "vision model call failed", err).
			WithCode(domain.ErrCodeInferenceError)
	}

	products, err := parseExtraction(raw)
	if err != nil {
		a.log.Warn("vision output was not parseable", "error", err.Error())
		return domain.VisionResult{}, apperr.Wrap(apperr.KindUnavailable, "vision output was not parseable", err).
			WithCode(domain.ErrCodeInferenceError)
	}

	if len(products) == 0 {
		return domain.VisionResult{}, apperr.New(apperr.KindValidation, "no products detected on the shelf").
			WithCode(domain.ErrCodeNoProductsDetected)
	}

	if a.normalizer != nil {
		for i := range products {
			canonical, category, matched := a.normalizer.NormalizeProductName(ctx, products[i].Name)
			if matched {
				products[i].Name = canonical
				products[i].Category = category
			}
		}
	}

	return domain.VisionResult{
		Products:    products,
		HealthScore: domain.HealthScore(products),
	}, nil
}
