// Package scans provides the scan pipeline bounded context module.
package scans

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/internal/scans/handler"
	"shelfscan_backend/internal/scans/repository"
	"shelfscan_backend/internal/scans/service"
)

// Module is the scans bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the scans module. The pipeline's
// collaborators (extractor, debate engine, deliverer, scheduler) are wired in
// the composition root and passed through Deps.
func NewModule(pool *pgxpool.Pool, deps service.Deps, voiceBucket string, maxUpload int64) *Module {
	repo := repository.New(pool)
	deps.Repo = repo
	svc := service.New(deps)
	h := handler.New(svc, voiceBucket, maxUpload)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scans"
}

// Service returns the pipeline service for the worker and webhook wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for read-model consumers.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts scan routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/scans", ctx.IntakeRateLimiter.RateLimit(), m.handler.Intake)
	ctx.V1.GET("/scans/:id", m.handler.GetByID)
	ctx.V1.GET("/scans/:id/voice", m.handler.VoiceNote)
	ctx.V1.GET("/stores/:id/scans", m.handler.ListByStore)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
