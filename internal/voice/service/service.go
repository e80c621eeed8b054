// Package service orchestrates voice delivery: synthesize the final
// recommendation, store the audio, and send it over WhatsApp. Voice is an
// enhancement; when synthesis fails the text still goes out and the scan is
// not failed.
package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"shelfscan_backend/internal/adapters/storage"
	"shelfscan_backend/internal/voice"
	"shelfscan_backend/internal/voice/repository"
	"shelfscan_backend/platform/logger"
)

// Messenger is the outbound slice of the WhatsApp client.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendMedia(ctx context.Context, to, caption, mediaURL string) error
}

// NoteStore persists voice notes.
type NoteStore interface {
	Create(ctx context.Context, note repository.VoiceNote) (repository.VoiceNote, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status string) error
}

// OutboundLogger records outbound exchanges on the message log.
type OutboundLogger interface {
	LogOutbound(ctx context.Context, storeID uuid.UUID, phoneNumber, messageType, content, mediaURL, status string)
}

// Request carries everything needed to deliver one recommendation.
type Request struct {
	ScanID         uuid.UUID
	StoreID        uuid.UUID
	Phone          string
	Language       string
	Recommendation string
	Caption        string
}

// Delivery reports what actually reached the retailer.
type Delivery struct {
	VoiceDelivered bool
	TextDelivered  bool
	Note           *repository.VoiceNote
}

// Orchestrator runs the synthesize-store-deliver sequence.
type Orchestrator struct {
	synth     voice.Synthesizer
	storage   storage.StorageService
	bucket    string
	messenger Messenger
	notes     NoteStore
	outbound  OutboundLogger
	log       *logger.Logger
}

// New creates the orchestrator. synth may be nil, which forces text-only
// delivery.
func New(synth voice.Synthesizer, store storage.StorageService, bucket string, messenger Messenger, notes NoteStore, outbound OutboundLogger, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		synth:     synth,
		storage:   store,
		bucket:    bucket,
		messenger: messenger,
		notes:     notes,
		outbound:  outbound,
		log:       log,
	}
}

// Deliver sends the recommendation to the store, preferring a voice note and
// falling back to text. It returns an error only when nothing could be
// delivered at all.
func (o *Orchestrator) Deliver(ctx context.Context, req Request) (Delivery, error) {
	scanID := req.ScanID.String()

	if o.synth != nil {
		delivery, err := o.deliverVoice(ctx, req)
		if err == nil {
			return delivery, nil
		}
		o.log.PipelineStage(scanID, "voice", false, err.Error())
	}

	if err := o.messenger.SendText(ctx, req.Phone, req.Recommendation); err != nil {
		o.outbound.LogOutbound(ctx, req.StoreID, req.Phone, "text", req.Recommendation, "", "failed")
		return Delivery{}, fmt.Errorf("text fallback delivery failed: %w", err)
	}

	o.outbound.LogOutbound(ctx, req.StoreID, req.Phone, "text", req.Recommendation, "", "sent")
	o.log.PipelineStage(scanID, "text_delivery", true, "")
	return Delivery{TextDelivered: true}, nil
}

func (o *Orchestrator) deliverVoice(ctx context.Context, req Request) (Delivery, error) {
	audio, err := o.synth.Synthesize(ctx, req.Recommendation)
	if err != nil {
		return Delivery{}, fmt.Errorf("synthesis: %w", err)
	}

	fileName := req.ScanID.String() + ".mp3"
	audioKey, err := o.storage.UploadFile(ctx, o.bucket, req.StoreID.String(), fileName, "audio/mpeg", bytes.NewReader(audio), int64(len(audio)))
	if err != nil {
		return Delivery{}, fmt.Errorf("store audio: %w", err)
	}

	note, err := o.notes.Create(ctx, repository.VoiceNote{
		ScanID:          req.ScanID,
		StoreID:         req.StoreID,
		AudioKey:        audioKey,
		DurationSeconds: voice.EstimateDuration(req.Recommendation),
		Language:        req.Language,
		Transcript:      req.Recommendation,
		Channel:         "whatsapp",
		DeliveryStatus:  repository.StatusQueued,
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("record voice note: %w", err)
	}

	presigned, err := o.storage.GenerateDownloadURL(ctx, o.bucket, audioKey)
	if err != nil {
		o.markFailed(ctx, note.ID)
		return Delivery{}, fmt.Errorf("presign audio: %w", err)
	}

	if err := o.messenger.SendMedia(ctx, req.Phone, req.Caption, presigned.URL); err != nil {
		o.markFailed(ctx, note.ID)
		o.outbound.LogOutbound(ctx, req.StoreID, req.Phone, "audio", req.Caption, presigned.URL, "failed")
		return Delivery{}, fmt.Errorf("send voice note: %w", err)
	}

	if err := o.notes.UpdateDeliveryStatus(ctx, note.ID, repository.StatusSent); err != nil {
		o.log.DatabaseError("voice note status", err)
	}
	note.DeliveryStatus = repository.StatusSent

	o.outbound.LogOutbound(ctx, req.StoreID, req.Phone, "audio", req.Caption, presigned.URL, "sent")
	o.log.PipelineStage(req.ScanID.String(), "voice", true, "")
	return Delivery{VoiceDelivered: true, Note: &note}, nil
}

func (o *Orchestrator) markFailed(ctx context.Context, noteID uuid.UUID) {
	if err := o.notes.UpdateDeliveryStatus(ctx, noteID, repository.StatusFailed); err != nil {
		o.log.DatabaseError("voice note status", err)
	}
}
