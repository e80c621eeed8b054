// Package whatsapp provides the WhatsApp gateway bounded context: outbound
// client, inbound webhook, and the message log.
package whatsapp

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/internal/whatsapp/handler"
	"shelfscan_backend/internal/whatsapp/repository"
	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/logger"
)

// Module is the WhatsApp bounded context module implementing http.Module.
type Module struct {
	client  *Client
	handler *handler.Handler
	repo    *repository.Repo
}

// NewModule creates and initializes the WhatsApp module. The webhook's store
// lookup and scan enqueueing are injected as ports so this module stays
// decoupled from the scans pipeline.
func NewModule(pool *pgxpool.Pool, cfg config.WhatsAppConfig, stores handler.StoreDirectory, ingestor handler.ScanIngestor, log *logger.Logger) *Module {
	client := NewClient(cfg, log)
	repo := repository.New(pool)
	h := handler.New(stores, ingestor, repo, log)

	return &Module{
		client:  client,
		handler: h,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "whatsapp"
}

// Client returns the outbound gateway client (nil when not configured).
func (m *Module) Client() *Client {
	return m.client
}

// Repository returns the message log repository.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts the webhook on the root engine; the gateway posts
// there directly, outside the /api/v1 surface.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/webhook/whatsapp", ctx.IntakeRateLimiter.RateLimit(), m.handler.Webhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
