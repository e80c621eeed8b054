// Package service orchestrates the scan pipeline: intake, extraction, debate,
// delivery, and the terminal transition. Stages run strictly in order for one
// scan; different scans run fully in parallel on the worker.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shelfscan_backend/internal/adapters/storage"
	"shelfscan_backend/internal/debate"
	"shelfscan_backend/internal/events"
	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/internal/scans/repository"
	storesrepo "shelfscan_backend/internal/stores/repository"
	voicerepo "shelfscan_backend/internal/voice/repository"
	voiceservice "shelfscan_backend/internal/voice/service"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/imagemeta"
	"shelfscan_backend/platform/logger"
)

// Scan sources.
const (
	SourceAPI      = "api"
	SourceWhatsApp = "whatsapp"
)

const failureNotice = "ShelfScan AI aapki photo process nahi kar paya. Please shelf ki clear photo dobara bhejiye."

// ScanStore is the persistence slice the pipeline needs.
type ScanStore interface {
	Create(ctx context.Context, storeID uuid.UUID, source, photoKey string, capturedAt *time.Time) (domain.Scan, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Scan, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]domain.Scan, error)
	ReplaceProducts(ctx context.Context, scanID, storeID uuid.UUID, products []domain.DetectedProduct) error
	ListProducts(ctx context.Context, scanID uuid.UUID) ([]domain.DetectedProduct, error)
	Complete(ctx context.Context, scanID, storeID uuid.UUID, healthScore int, finalRecommendation string, rounds []repository.Round) error
	Fail(ctx context.Context, scanID uuid.UUID, errorCode, errorMessage string) error
	ListRounds(ctx context.Context, scanID uuid.UUID) ([]repository.Round, error)
}

// StoreReader resolves store profiles for debate context and delivery.
type StoreReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (storesrepo.Store, error)
}

// Extractor runs vision extraction over a shelf photo.
type Extractor interface {
	Extract(ctx context.Context, mimeType string, image []byte) (domain.VisionResult, error)
}

// DebateEngine reconciles agent evaluations into one recommendation.
type DebateEngine interface {
	Run(ctx context.Context, in debate.Input) (debate.Outcome, error)
}

// AdviceDeliverer hands the final recommendation to the retailer.
type AdviceDeliverer interface {
	Deliver(ctx context.Context, req voiceservice.Request) (voiceservice.Delivery, error)
}

// VoiceNotes reads voice notes for the scan detail view.
type VoiceNotes interface {
	GetByScanID(ctx context.Context, scanID uuid.UUID) (voicerepo.VoiceNote, error)
}

// Notifier sends plain text to a store, used for failure notices.
type Notifier interface {
	SendText(ctx context.Context, to, body string) error
}

// TaskEnqueuer schedules background pipeline runs.
type TaskEnqueuer interface {
	EnqueueProcessScan(ctx context.Context, scanID uuid.UUID) error
}

// MediaDownloader fetches inbound WhatsApp media.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// Service runs the scan pipeline.
type Service struct {
	repo          ScanStore
	stores        StoreReader
	storage       storage.StorageService
	photoBucket   string
	extractor     Extractor
	engine        DebateEngine
	deliverer     AdviceDeliverer
	voiceNotes    VoiceNotes
	notifier      Notifier
	media         MediaDownloader
	tasks         TaskEnqueuer
	bus           events.Bus
	voiceRequired bool
	log           *logger.Logger
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Repo          ScanStore
	Stores        StoreReader
	Storage       storage.StorageService
	PhotoBucket   string
	Extractor     Extractor
	Engine        DebateEngine
	Deliverer     AdviceDeliverer
	VoiceNotes    VoiceNotes
	Notifier      Notifier
	Media         MediaDownloader
	Tasks         TaskEnqueuer
	Bus           events.Bus
	VoiceRequired bool
	Log           *logger.Logger
}

// New creates the pipeline service.
func New(d Deps) *Service {
	return &Service{
		repo:          d.Repo,
		stores:        d.Stores,
		storage:       d.Storage,
		photoBucket:   d.PhotoBucket,
		extractor:     d.Extractor,
		engine:        d.Engine,
		deliverer:     d.Deliverer,
		voiceNotes:    d.VoiceNotes,
		notifier:      d.Notifier,
		media:         d.Media,
		tasks:         d.Tasks,
		bus:           d.Bus,
		voiceRequired: d.VoiceRequired,
		log:           d.Log,
	}
}

// Intake stores an uploaded shelf photo, creates the scan in `processing`,
// and enqueues the pipeline run. Returns immediately; the caller gets 202.
func (s *Service) Intake(ctx context.Context, storeID uuid.UUID, image []byte, contentType, source string) (domain.Scan, error) {
	if len(image) == 0 {
		return domain.Scan{}, apperr.Validation("image is empty")
	}
	if !storage.IsImageContentType(contentType) {
		return domain.Scan{}, apperr.Validation("file must be a jpeg, png, or webp image")
	}
	if err := s.storage.ValidateFileSize(int64(len(image))); err != nil {
		return domain.Scan{}, apperr.Validation(err.Error())
	}

	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		return domain.Scan{}, err
	}

	var capturedAt *time.Time
	if taken, ok := imagemeta.CaptureTime(image); ok {
		capturedAt = &taken
	}

	fileName := uuid.NewString() + extensionFor(contentType)
	photoKey, err := s.storage.UploadFile(ctx, s.photoBucket, storeID.String(), fileName, contentType, bytes.NewReader(image), int64(len(image)))
	if err != nil {
		return domain.Scan{}, fmt.Errorf("store shelf photo: %w", err)
	}

	scan, err := s.repo.Create(ctx, storeID, source, photoKey, capturedAt)
	if err != nil {
		return domain.Scan{}, err
	}

	s.bus.Publish(ctx, events.ScanReceived{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    scan.ID,
		StoreID:   storeID,
		Source:    source,
	})

	if err := s.tasks.EnqueueProcessScan(ctx, scan.ID); err != nil {
		// The scan exists but will not progress; surface this to the caller.
		return domain.Scan{}, fmt.Errorf("enqueue scan: %w", err)
	}

	s.log.PipelineStage(scan.ID.String(), "intake", true, "")
	return scan, nil
}

// IngestFromWhatsApp downloads an inbound photo from the gateway and feeds it
// into the regular intake path.
func (s *Service) IngestFromWhatsApp(ctx context.Context, storeID uuid.UUID, mediaURL, mediaType string) (domain.Scan, error) {
	image, contentType, err := s.media.DownloadMedia(ctx, mediaURL)
	if err != nil {
		return domain.Scan{}, fmt.Errorf("download whatsapp media: %w", err)
	}
	if mediaType != "" {
		contentType = mediaType
	}
	return s.Intake(ctx, storeID, image, contentType, SourceWhatsApp)
}

// Process runs the pipeline for one scan: extraction, debate, delivery, and
// the terminal transition. Domain failures (bad photo, dead debate) land the
// scan in `failed` and return nil so the task is not retried; infrastructure
// errors return non-nil so the worker retries with the scan still in
// `processing`.
func (s *Service) Process(ctx context.Context, scanID uuid.UUID) error {
	scan, err := s.repo.GetByID(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.Status.Terminal() {
		s.log.PipelineStage(scanID.String(), "process", true, "already terminal, skipping")
		return nil
	}

	store, err := s.stores.GetByID(ctx, scan.StoreID)
	if err != nil {
		return err
	}

	image, contentType, err := s.loadPhoto(ctx, scan.PhotoKey)
	if err != nil {
		return err
	}

	vision, err := s.extractor.Extract(ctx, contentType, image)
	if err != nil {
		return s.failScan(ctx, scan, store.Phone, err)
	}
	s.log.PipelineStage(scanID.String(), "extraction", true, "")

	if err := s.repo.ReplaceProducts(ctx, scan.ID, scan.StoreID, vision.Products); err != nil {
		return err
	}

	outcome, err := s.engine.Run(ctx, debate.Input{
		ScanID:      scan.ID.String(),
		StoreName:   store.Name,
		Pincode:     store.Pincode,
		Language:    store.Language,
		HealthScore: vision.HealthScore,
		Products:    vision.Products,
	})
	if err != nil {
		return s.failScan(ctx, scan, store.Phone, err)
	}
	s.log.PipelineStage(scanID.String(), "debate", true, "")

	delivery, deliveryErr := s.deliverer.Deliver(ctx, voiceservice.Request{
		ScanID:         scan.ID,
		StoreID:        scan.StoreID,
		Phone:          store.Phone,
		Language:       store.Language,
		Recommendation: outcome.FinalRecommendation,
		Caption:        deliveryCaption(vision),
	})
	if deliveryErr != nil && s.voiceRequired {
		wrapped := apperr.Wrap(apperr.KindUnavailable, "recommendation could not be delivered", deliveryErr).
			WithCode(domain.ErrCodeDeliveryError)
		return s.failScan(ctx, scan, store.Phone, wrapped)
	}

	rounds := make([]repository.Round, 0, len(outcome.Rounds))
	for _, r := range outcome.Rounds {
		rounds = append(rounds, repository.Round{
			ScanID:         scan.ID,
			Agent:          r.Agent,
			Perspective:    r.Perspective,
			Model:          r.Model,
			Recommendation: r.Recommendation,
			Reasoning:      r.Reasoning,
			Confidence:     r.Confidence,
			Selected:       r.Selected,
		})
	}

	if err := s.repo.Complete(ctx, scan.ID, scan.StoreID, vision.HealthScore, outcome.FinalRecommendation, rounds); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			// A concurrent or retried run finished first. Discard this result.
			s.log.PipelineStage(scanID.String(), "complete", false, "late result discarded")
			return nil
		}
		return err
	}
	s.log.PipelineStage(scanID.String(), "complete", true, "")

	s.bus.Publish(ctx, events.ScanCompleted{
		BaseEvent:    events.NewBaseEvent(),
		ScanID:       scan.ID,
		StoreID:      scan.StoreID,
		Pincode:      store.Pincode,
		HealthScore:  vision.HealthScore,
		ProductCount: len(vision.Products),
	})

	if deliveryErr != nil {
		s.bus.Publish(ctx, events.AdviceDeliveryFailed{
			BaseEvent: events.NewBaseEvent(),
			ScanID:    scan.ID,
			StoreID:   scan.StoreID,
			Reason:    deliveryErr.Error(),
		})
	} else {
		channel := "text"
		if delivery.VoiceDelivered {
			channel = "voice"
		}
		s.bus.Publish(ctx, events.AdviceDelivered{
			BaseEvent: events.NewBaseEvent(),
			ScanID:    scan.ID,
			StoreID:   scan.StoreID,
			Channel:   channel,
		})
	}

	return nil
}

// failScan records a terminal failure and tells the retailer to retry.
// Late failures against an already-terminal scan are discarded.
func (s *Service) failScan(ctx context.Context, scan domain.Scan, phone string, cause error) error {
	code := apperr.GetCode(cause)
	if code == "" {
		code = domain.ErrCodeInferenceError
	}

	if err := s.repo.Fail(ctx, scan.ID, code, cause.Error()); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			s.log.PipelineStage(scan.ID.String(), "fail", false, "late failure discarded")
			return nil
		}
		return err
	}
	s.log.PipelineStage(scan.ID.String(), "fail", true, code)

	s.bus.Publish(ctx, events.ScanFailed{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    scan.ID,
		StoreID:   scan.StoreID,
		ErrorCode: code,
	})

	if s.notifier != nil {
		if err := s.notifier.SendText(ctx, phone, failureNotice); err != nil {
			s.log.Error("failed to send failure notice", "error", err.Error(), "scan_id", scan.ID.String())
		}
	}
	return nil
}

// Detail is the full scan read model.
type Detail struct {
	Scan      domain.Scan              `json:"scan"`
	Products  []domain.DetectedProduct `json:"products"`
	Rounds    []repository.Round       `json:"debateRounds"`
	VoiceNote *voicerepo.VoiceNote     `json:"voiceNote,omitempty"`
}

// GetDetail returns a scan with its products, debate rounds, and voice note.
func (s *Service) GetDetail(ctx context.Context, scanID uuid.UUID) (Detail, error) {
	scan, err := s.repo.GetByID(ctx, scanID)
	if err != nil {
		return Detail{}, err
	}

	products, err := s.repo.ListProducts(ctx, scanID)
	if err != nil {
		return Detail{}, err
	}

	rounds, err := s.repo.ListRounds(ctx, scanID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Scan: scan, Products: products, Rounds: rounds}
	if note, err := s.voiceNotes.GetByScanID(ctx, scanID); err == nil {
		detail.VoiceNote = &note
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return Detail{}, err
	}
	return detail, nil
}

// ListByStore returns a store's scan history.
func (s *Service) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]domain.Scan, error) {
	return s.repo.ListByStore(ctx, storeID, limit)
}

// VoiceNoteURL returns a presigned link to a scan's voice note audio.
func (s *Service) VoiceNoteURL(ctx context.Context, scanID uuid.UUID, voiceBucket string) (string, error) {
	note, err := s.voiceNotes.GetByScanID(ctx, scanID)
	if err != nil {
		return "", err
	}
	presigned, err := s.storage.GenerateDownloadURL(ctx, voiceBucket, note.AudioKey)
	if err != nil {
		return "", fmt.Errorf("presign voice note: %w", err)
	}
	return presigned.URL, nil
}

func (s *Service) loadPhoto(ctx context.Context, photoKey string) ([]byte, string, error) {
	reader, err := s.storage.DownloadFile(ctx, s.photoBucket, photoKey)
	if err != nil {
		return nil, "", fmt.Errorf("load shelf photo: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	image, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read shelf photo: %w", err)
	}
	return image, http.DetectContentType(image), nil
}

func deliveryCaption(vision domain.VisionResult) string {
	critical := domain.CriticalCount(vision.Products)
	return fmt.Sprintf("Shelf health %d/100. %d products dekhe, %d bilkul khatam.", vision.HealthScore, len(vision.Products), critical)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
