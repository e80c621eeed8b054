package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"shelfscan_backend/internal/adapters/storage"
	voicerepo "shelfscan_backend/internal/voice/repository"
	"shelfscan_backend/platform/logger"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetWorkerConcurrency() int { return 1 }

func TestProcessScanPayloadRoundTrip(t *testing.T) {
	scanID := uuid.New()

	task, err := NewProcessScanTask(ProcessScanPayload{ScanID: scanID.String()})
	if err != nil {
		t.Fatalf("NewProcessScanTask() error = %v", err)
	}
	if task.Type() != TaskProcessScan {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskProcessScan)
	}

	payload, err := ParseProcessScanPayload(task)
	if err != nil {
		t.Fatalf("ParseProcessScanPayload() error = %v", err)
	}
	if payload.ScanID != scanID.String() {
		t.Fatalf("scan id = %q, want %q", payload.ScanID, scanID.String())
	}
}

func TestClientEnqueuesPipelineTasks(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.EnqueueProcessScan(ctx, uuid.New()); err != nil {
		t.Fatalf("EnqueueProcessScan() error = %v", err)
	}
	if err := client.EnqueueIngest(ctx, uuid.New(), "+919876543210", "https://api.twilio.com/media/abc", "image/jpeg"); err != nil {
		t.Fatalf("EnqueueIngest() error = %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending tasks = %d, want 2", len(pending))
	}

	types := map[string]bool{}
	for _, task := range pending {
		types[task.Type] = true
	}
	if !types[TaskProcessScan] || !types[TaskIngestMedia] {
		t.Fatalf("pending task types = %v, want both pipeline tasks", types)
	}
}

type stubNotes struct {
	notes   []voicerepo.VoiceNote
	updated map[uuid.UUID]string
}

func (s *stubNotes) ListUndelivered(context.Context, time.Duration, int) ([]voicerepo.VoiceNote, error) {
	return s.notes, nil
}

func (s *stubNotes) UpdateDeliveryStatus(_ context.Context, id uuid.UUID, status string) error {
	if s.updated == nil {
		s.updated = map[uuid.UUID]string{}
	}
	s.updated[id] = status
	return nil
}

type stubPhones struct{}

func (stubPhones) PhoneByID(context.Context, uuid.UUID) (string, error) {
	return "+919876543210", nil
}

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) SendMedia(_ context.Context, _, _, mediaURL string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, mediaURL)
	return nil
}

type stubSignedStorage struct {
	storage.StorageService
}

func (stubSignedStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.local/" + bucket + "/" + fileKey}, nil
}

func TestVoiceRedeliverySweep(t *testing.T) {
	note := voicerepo.VoiceNote{
		ID:       uuid.New(),
		ScanID:   uuid.New(),
		StoreID:  uuid.New(),
		AudioKey: "store/scan.mp3",
	}
	notes := &stubNotes{notes: []voicerepo.VoiceNote{note}}
	sender := &stubSender{}

	sweeper := NewVoiceRedelivery(notes, stubPhones{}, stubSignedStorage{}, sender, "voice-notes", time.Minute, logger.New("development"))
	sweeper.sweep(context.Background())

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d media messages, want 1", len(sender.sent))
	}
	if notes.updated[note.ID] != voicerepo.StatusSent {
		t.Fatalf("note status = %q, want %q", notes.updated[note.ID], voicerepo.StatusSent)
	}
}
