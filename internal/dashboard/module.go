// Package dashboard provides the store dashboard read-model module.
package dashboard

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"shelfscan_backend/internal/dashboard/handler"
	"shelfscan_backend/internal/dashboard/repository"
	"shelfscan_backend/internal/dashboard/service"
	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/platform/logger"
)

// Module is the dashboard read-model module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the dashboard module. Scans and neighborhood rollups are
// read through the owning modules' repositories.
func NewModule(pool *pgxpool.Pool, scans service.ScanReader, neighborhood service.NeighborhoodReader, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, scans, neighborhood, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes mounts dashboard routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/stores/:id/dashboard", m.handler.Get)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
