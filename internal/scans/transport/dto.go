// Package transport defines request and response DTOs for the scans API.
package transport

import (
	"github.com/google/uuid"

	"shelfscan_backend/internal/scans/domain"
)

// IntakeResponse acknowledges an accepted scan. The pipeline runs in the
// background; poll GET /scans/:id for the result.
type IntakeResponse struct {
	ScanID  uuid.UUID     `json:"scanId"`
	Status  domain.Status `json:"status"`
	Message string        `json:"message"`
}

// VoiceNoteResponse carries a presigned link to the synthesized audio.
type VoiceNoteResponse struct {
	URL string `json:"url"`
}
