package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shelfscan_backend/internal/catalog/service"
	"shelfscan_backend/platform/httpkit"
)

// Handler handles HTTP requests for the product catalog.
type Handler struct {
	svc *service.Service
}

// New creates a new catalog handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ListProducts lists catalog entries.
// GET /api/v1/catalog/products
func (h *Handler) ListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	products, err := h.svc.List(c.Request.Context(), c.Query("search"), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"products": products})
}

// MatchProduct normalizes a raw product name against the catalog.
// GET /api/v1/catalog/match?q=parle+g
func (h *Handler) MatchProduct(c *gin.Context) {
	raw := c.Query("q")
	if raw == "" {
		httpkit.Error(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	httpkit.OK(c, h.svc.Normalize(c.Request.Context(), raw))
}
