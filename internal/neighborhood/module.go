// Package neighborhood provides the weekly demand aggregation bounded context.
package neighborhood

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfscan_backend/internal/events"
	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/internal/neighborhood/handler"
	"shelfscan_backend/internal/neighborhood/repository"
	"shelfscan_backend/internal/neighborhood/service"
	"shelfscan_backend/platform/logger"
)

// Module is the neighborhood bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates the neighborhood module and subscribes it to scan
// completion events on the bus.
func NewModule(pool *pgxpool.Pool, products service.ProductReader, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, products, bus, log)
	svc.Subscribe(bus)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "neighborhood"
}

// Service returns the aggregation service for the backfill tooling.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for read-model consumers.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts neighborhood routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/neighborhood/:pincode", m.handler.Demand)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
