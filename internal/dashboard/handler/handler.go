package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfscan_backend/internal/dashboard/service"
	"shelfscan_backend/platform/httpkit"
)

const msgInvalidID = "invalid store id"

// Handler serves the store dashboard.
type Handler struct {
	svc *service.Service
}

// New creates a new dashboard handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Get returns the full dashboard payload for a store.
// GET /api/v1/stores/:id/dashboard
func (h *Handler) Get(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	dashboard, err := h.svc.Build(c.Request.Context(), storeID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusOK, dashboard)
}
