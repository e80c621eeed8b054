package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shelfscan_backend/internal/adapters/storage"
	voicerepo "shelfscan_backend/internal/voice/repository"
	"shelfscan_backend/platform/logger"
)

const (
	defaultRedeliveryInterval = 5 * time.Minute
	defaultRedeliveryAge      = 10 * time.Minute
	redeliveryBatchSize       = 20
)

// UndeliveredNotes is the voice repository slice the sweeper needs.
type UndeliveredNotes interface {
	ListUndelivered(ctx context.Context, olderThan time.Duration, limit int) ([]voicerepo.VoiceNote, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status string) error
}

// StorePhones resolves a store's WhatsApp number.
type StorePhones interface {
	PhoneByID(ctx context.Context, storeID uuid.UUID) (string, error)
}

// MediaSender hands a voice note link to the messaging gateway.
type MediaSender interface {
	SendMedia(ctx context.Context, to, caption, mediaURL string) error
}

// VoiceRedelivery periodically retries voice notes that were synthesized and
// stored but never reached the store. Delivery retries are independent of the
// scan, which is already terminal by the time a note exists.
type VoiceRedelivery struct {
	notes    UndeliveredNotes
	phones   StorePhones
	storage  storage.StorageService
	sender   MediaSender
	bucket   string
	interval time.Duration
	age      time.Duration
	log      *logger.Logger
}

func NewVoiceRedelivery(notes UndeliveredNotes, phones StorePhones, store storage.StorageService, sender MediaSender, bucket string, interval time.Duration, log *logger.Logger) *VoiceRedelivery {
	if interval <= 0 {
		interval = defaultRedeliveryInterval
	}

	return &VoiceRedelivery{
		notes:    notes,
		phones:   phones,
		storage:  store,
		sender:   sender,
		bucket:   bucket,
		interval: interval,
		age:      defaultRedeliveryAge,
		log:      log,
	}
}

func (v *VoiceRedelivery) Run(ctx context.Context) {
	if v == nil || v.notes == nil || v.sender == nil {
		return
	}

	v.sweep(ctx)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.sweep(ctx)
		}
	}
}

func (v *VoiceRedelivery) sweep(ctx context.Context) {
	notes, err := v.notes.ListUndelivered(ctx, v.age, redeliveryBatchSize)
	if err != nil {
		v.log.Error("voice redelivery list failed", "error", err.Error())
		return
	}

	for _, note := range notes {
		if err := v.redeliver(ctx, note); err != nil {
			v.log.Error("voice redelivery failed",
				"voice_note_id", note.ID.String(), "scan_id", note.ScanID.String(), "error", err.Error())
			continue
		}
		v.log.Info("voice note redelivered",
			"voice_note_id", note.ID.String(), "store_id", note.StoreID.String())
	}
}

func (v *VoiceRedelivery) redeliver(ctx context.Context, note voicerepo.VoiceNote) error {
	phone, err := v.phones.PhoneByID(ctx, note.StoreID)
	if err != nil {
		return err
	}

	presigned, err := v.storage.GenerateDownloadURL(ctx, v.bucket, note.AudioKey)
	if err != nil {
		return err
	}

	if err := v.sender.SendMedia(ctx, phone, note.Transcript, presigned.URL); err != nil {
		return err
	}

	return v.notes.UpdateDeliveryStatus(ctx, note.ID, voicerepo.StatusSent)
}
