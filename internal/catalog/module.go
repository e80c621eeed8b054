// Package catalog provides the product catalog bounded context module.
package catalog

import (
	"shelfscan_backend/internal/catalog/handler"
	"shelfscan_backend/internal/catalog/repository"
	"shelfscan_backend/internal/catalog/service"
	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/catalog/products", m.handler.ListProducts)
	ctx.V1.GET("/catalog/match", m.handler.MatchProduct)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
