package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfscan_backend/internal/stores/service"
	"shelfscan_backend/internal/stores/transport"
	"shelfscan_backend/platform/httpkit"
	"shelfscan_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid store id"
)

// Handler handles HTTP requests for stores.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new stores handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Register registers a new store.
// POST /api/v1/stores
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	store, err := h.svc.Register(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, store)
}

// GetByID retrieves a store by ID.
// GET /api/v1/stores/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	store, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, store)
}

// GetByPhone retrieves a store by its WhatsApp number.
// GET /api/v1/stores/by-number/:number
func (h *Handler) GetByPhone(c *gin.Context) {
	store, err := h.svc.GetByPhone(c.Request.Context(), c.Param("number"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, store)
}

// OnboardingQR serves the WhatsApp onboarding QR code as PNG.
// GET /api/v1/onboarding/qr
func (h *Handler) OnboardingQR(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "512"))

	png, err := h.svc.OnboardingQR(size)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
