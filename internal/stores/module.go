// Package stores provides the store registry bounded context module.
package stores

import (
	"shelfscan_backend/internal/events"
	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/internal/stores/handler"
	"shelfscan_backend/internal/stores/repository"
	"shelfscan_backend/internal/stores/service"
	"shelfscan_backend/platform/logger"
	"shelfscan_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the stores bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the stores module.
func NewModule(pool *pgxpool.Pool, whatsappNumber string, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, whatsappNumber, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "stores"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts store routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/stores", m.handler.Register)
	ctx.V1.GET("/stores/:id", m.handler.GetByID)
	ctx.V1.GET("/stores/by-number/:number", m.handler.GetByPhone)
	ctx.V1.GET("/onboarding/qr", m.handler.OnboardingQR)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
