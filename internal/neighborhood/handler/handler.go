package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shelfscan_backend/internal/neighborhood/service"
	"shelfscan_backend/platform/httpkit"
	"shelfscan_backend/platform/validator"
)

const msgInvalidPincode = "invalid pincode"

// Handler serves the neighborhood demand read API.
type Handler struct {
	svc *service.Service
}

// New creates a new neighborhood handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Demand returns the recent weekly demand rollups for a pincode.
// GET /api/v1/neighborhood/:pincode?weeks=N
func (h *Handler) Demand(c *gin.Context) {
	pincode := c.Param("pincode")
	if !validator.IsPincode(pincode) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidPincode, nil)
		return
	}

	weeks, _ := strconv.Atoi(c.DefaultQuery("weeks", "8"))

	rollups, err := h.svc.Demand(c.Request.Context(), pincode, weeks)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusOK, gin.H{"pincode": pincode, "weeks": rollups})
}
