// Package handler exposes the scans API: photo intake, scan detail, history,
// and voice note links.
package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfscan_backend/internal/scans/service"
	"shelfscan_backend/internal/scans/transport"
	"shelfscan_backend/platform/httpkit"
)

const (
	msgInvalidScanID  = "invalid scan id"
	msgInvalidStoreID = "invalid store id"
	msgMissingPhoto   = "photo file is required"
	msgPhotoTooLarge  = "photo exceeds the size limit"
)

// Handler handles HTTP requests for scans.
type Handler struct {
	svc         *service.Service
	voiceBucket string
	maxUpload   int64
}

// New creates a new scans handler.
func New(svc *service.Service, voiceBucket string, maxUpload int64) *Handler {
	return &Handler{svc: svc, voiceBucket: voiceBucket, maxUpload: maxUpload}
}

// Intake accepts a multipart shelf photo upload and starts the pipeline.
// POST /api/v1/scans
func (h *Handler) Intake(c *gin.Context) {
	storeID, err := uuid.Parse(c.PostForm("storeId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStoreID, nil)
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingPhoto, nil)
		return
	}
	if fileHeader.Size > h.maxUpload {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, msgPhotoTooLarge, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingPhoto, nil)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	image, err := io.ReadAll(io.LimitReader(file, h.maxUpload))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingPhoto, nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	scan, err := h.svc.Intake(c.Request.Context(), storeID, image, contentType, service.SourceAPI)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, transport.IntakeResponse{
		ScanID:  scan.ID,
		Status:  scan.Status,
		Message: "scan accepted, processing in background",
	})
}

// GetByID returns a scan with products, debate rounds, and voice note.
// GET /api/v1/scans/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidScanID, nil)
		return
	}

	detail, err := h.svc.GetDetail(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, detail)
}

// ListByStore returns a store's scan history.
// GET /api/v1/stores/:id/scans
func (h *Handler) ListByStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStoreID, nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	scans, err := h.svc.ListByStore(c.Request.Context(), storeID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"scans": scans})
}

// VoiceNote returns a presigned link to the scan's voice note audio.
// GET /api/v1/scans/:id/voice
func (h *Handler) VoiceNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidScanID, nil)
		return
	}

	url, err := h.svc.VoiceNoteURL(c.Request.Context(), id, h.voiceBucket)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.VoiceNoteResponse{URL: url})
}
