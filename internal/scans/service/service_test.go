package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	storageadapter "shelfscan_backend/internal/adapters/storage"
	"shelfscan_backend/internal/debate"
	"shelfscan_backend/internal/events"
	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/internal/scans/repository"
	storesrepo "shelfscan_backend/internal/stores/repository"
	voicerepo "shelfscan_backend/internal/voice/repository"
	voiceservice "shelfscan_backend/internal/voice/service"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
)

type fakeScanStore struct {
	scan      domain.Scan
	products  []domain.DetectedProduct
	completed bool
	failed    bool
	failCode  string
	rounds    []repository.Round
	terminal  bool
}

func (f *fakeScanStore) Create(ctx context.Context, storeID uuid.UUID, source, photoKey string, capturedAt *time.Time) (domain.Scan, error) {
	f.scan = domain.Scan{ID: uuid.New(), StoreID: storeID, Status: domain.StatusProcessing, Source: source, PhotoKey: photoKey}
	return f.scan, nil
}

func (f *fakeScanStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Scan, error) {
	return f.scan, nil
}

func (f *fakeScanStore) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]domain.Scan, error) {
	return []domain.Scan{f.scan}, nil
}

func (f *fakeScanStore) ReplaceProducts(ctx context.Context, scanID, storeID uuid.UUID, products []domain.DetectedProduct) error {
	f.products = products
	return nil
}

func (f *fakeScanStore) ListProducts(ctx context.Context, scanID uuid.UUID) ([]domain.DetectedProduct, error) {
	return f.products, nil
}

func (f *fakeScanStore) Complete(ctx context.Context, scanID, storeID uuid.UUID, healthScore int, finalRecommendation string, rounds []repository.Round) error {
	if f.terminal {
		return apperr.Conflict("scan is already terminal")
	}
	f.completed = true
	f.rounds = rounds
	return nil
}

func (f *fakeScanStore) Fail(ctx context.Context, scanID uuid.UUID, errorCode, errorMessage string) error {
	if f.terminal {
		return apperr.Conflict("scan is already terminal")
	}
	f.failed = true
	f.failCode = errorCode
	return nil
}

func (f *fakeScanStore) ListRounds(ctx context.Context, scanID uuid.UUID) ([]repository.Round, error) {
	return f.rounds, nil
}

type fakeStores struct{}

func (f *fakeStores) GetByID(ctx context.Context, id uuid.UUID) (storesrepo.Store, error) {
	return storesrepo.Store{ID: id, Name: "Sharma Kirana", Phone: "+919876543210", Pincode: "110001", Language: "hi"}, nil
}

type fakeStorage struct{}

func (f *fakeStorage) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storageadapter.PresignedURL, error) {
	return &storageadapter.PresignedURL{URL: "https://media.example/" + fileKey}, nil
}

func (f *fakeStorage) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("\xff\xd8\xffjpegdata")), nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, bucket, fileKey string) error { return nil }

func (f *fakeStorage) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	return folder + "/" + fileName, nil
}

func (f *fakeStorage) EnsureBucketExists(ctx context.Context, bucket string) error { return nil }
func (f *fakeStorage) ValidateContentType(contentType string) error                { return nil }
func (f *fakeStorage) ValidateFileSize(sizeBytes int64) error                      { return nil }
func (f *fakeStorage) GetMaxFileSize() int64                                       { return 16 << 20 }

type fakeExtractor struct {
	result domain.VisionResult
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, mimeType string, image []byte) (domain.VisionResult, error) {
	return f.result, f.err
}

type fakeEngine struct {
	outcome debate.Outcome
	err     error
}

func (f *fakeEngine) Run(ctx context.Context, in debate.Input) (debate.Outcome, error) {
	return f.outcome, f.err
}

type fakeDeliverer struct {
	delivery voiceservice.Delivery
	err      error
	calls    int
}

func (f *fakeDeliverer) Deliver(ctx context.Context, req voiceservice.Request) (voiceservice.Delivery, error) {
	f.calls++
	return f.delivery, f.err
}

type fakeVoiceNotes struct{}

func (f *fakeVoiceNotes) GetByScanID(ctx context.Context, scanID uuid.UUID) (voicerepo.VoiceNote, error) {
	return voicerepo.VoiceNote{}, apperr.NotFound("voice note not found")
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) SendText(ctx context.Context, to, body string) error {
	f.sent = append(f.sent, body)
	return nil
}

type fakeTasks struct {
	enqueued []uuid.UUID
}

func (f *fakeTasks) EnqueueProcessScan(ctx context.Context, scanID uuid.UUID) error {
	f.enqueued = append(f.enqueued, scanID)
	return nil
}

func healthyVision() domain.VisionResult {
	products := []domain.DetectedProduct{
		{Name: "Parle-G", Category: "biscuits", StockLevel: domain.StockOutOfStock, FacingCount: 0, Confidence: 0.9},
		{Name: "Tata Salt", Category: "staples", StockLevel: domain.StockAdequate, FacingCount: 4, Confidence: 0.95},
	}
	return domain.VisionResult{Products: products, HealthScore: domain.HealthScore(products)}
}

func newPipeline(store *fakeScanStore, extractor *fakeExtractor, engine *fakeEngine, deliverer *fakeDeliverer, voiceRequired bool) (*Service, *fakeNotifier, *fakeTasks) {
	notifier := &fakeNotifier{}
	tasks := &fakeTasks{}
	svc := New(Deps{
		Repo:          store,
		Stores:        &fakeStores{},
		Storage:       &fakeStorage{},
		PhotoBucket:   "shelf-photos",
		Extractor:     extractor,
		Engine:        engine,
		Deliverer:     deliverer,
		VoiceNotes:    &fakeVoiceNotes{},
		Notifier:      notifier,
		Tasks:         tasks,
		Bus:           events.NewInMemoryBus(logger.New("development")),
		VoiceRequired: voiceRequired,
		Log:           logger.New("development"),
	})
	return svc, notifier, tasks
}

func processingScan() domain.Scan {
	return domain.Scan{ID: uuid.New(), StoreID: uuid.New(), Status: domain.StatusProcessing, PhotoKey: "store/photo.jpg"}
}

func TestProcessHappyPath(t *testing.T) {
	store := &fakeScanStore{scan: processingScan()}
	engine := &fakeEngine{outcome: debate.Outcome{
		Rounds: []debate.Round{
			{Agent: "stock_planner", Recommendation: "order biscuits", Confidence: 88, Selected: true},
			{Agent: "margin_critic", Recommendation: "order fewer", Confidence: 70},
		},
		FinalRecommendation: "order biscuits",
		SelectedAgent:       "stock_planner",
	}}
	deliverer := &fakeDeliverer{delivery: voiceservice.Delivery{VoiceDelivered: true}}
	svc, notifier, _ := newPipeline(store, &fakeExtractor{result: healthyVision()}, engine, deliverer, false)

	if err := svc.Process(context.Background(), store.scan.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !store.completed {
		t.Fatal("scan should be completed")
	}
	if len(store.products) != 2 {
		t.Fatalf("expected 2 stored products, got %d", len(store.products))
	}
	if len(store.rounds) != 2 {
		t.Fatalf("expected 2 stored rounds, got %d", len(store.rounds))
	}
	if deliverer.calls != 1 {
		t.Fatalf("expected one delivery, got %d", deliverer.calls)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("no failure notice on the happy path")
	}
}

func TestProcessExtractionFailureFailsScan(t *testing.T) {
	store := &fakeScanStore{scan: processingScan()}
	extractor := &fakeExtractor{err: apperr.Unavailable("model down").WithCode(domain.ErrCodeInferenceError)}
	deliverer := &fakeDeliverer{}
	svc, notifier, _ := newPipeline(store, extractor, &fakeEngine{}, deliverer, false)

	if err := svc.Process(context.Background(), store.scan.ID); err != nil {
		t.Fatalf("domain failure should not bubble: %v", err)
	}
	if !store.failed || store.failCode != domain.ErrCodeInferenceError {
		t.Fatalf("expected inference_error failure, got failed=%v code=%s", store.failed, store.failCode)
	}
	if deliverer.calls != 0 {
		t.Fatal("no delivery after extraction failure")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected a failure notice, got %d", len(notifier.sent))
	}
}

func TestProcessDebateFailureFailsScan(t *testing.T) {
	store := &fakeScanStore{scan: processingScan()}
	engine := &fakeEngine{err: apperr.Unavailable("every debate agent failed").WithCode(domain.ErrCodeDebateUnavailable)}
	deliverer := &fakeDeliverer{}
	svc, _, _ := newPipeline(store, &fakeExtractor{result: healthyVision()}, engine, deliverer, false)

	if err := svc.Process(context.Background(), store.scan.ID); err != nil {
		t.Fatalf("domain failure should not bubble: %v", err)
	}
	if store.failCode != domain.ErrCodeDebateUnavailable {
		t.Fatalf("expected debate_engine_unavailable, got %s", store.failCode)
	}
	if deliverer.calls != 0 {
		t.Fatal("no voice note may be created when the debate fails")
	}
}

func TestProcessDeliveryFailureStillCompletesWhenBestEffort(t *testing.T) {
	store := &fakeScanStore{scan: processingScan()}
	engine := &fakeEngine{outcome: debate.Outcome{
		Rounds:              []debate.Round{{Agent: "solo", Recommendation: "plan", Confidence: 60, Selected: true}},
		FinalRecommendation: "plan",
		SelectedAgent:       "solo",
		Degraded:            true,
	}}
	deliverer := &fakeDeliverer{err: errors.New("gateway down")}
	svc, _, _ := newPipeline(store, &fakeExtractor{result: healthyVision()}, engine, deliverer, false)

	if err := svc.Process(context.Background(), store.scan.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !store.completed || store.failed {
		t.Fatal("best-effort delivery failure must not fail the scan")
	}
}

func TestProcessDeliveryFailureFailsScanWhenVoiceRequired(t *testing.T) {
	store := &fakeScanStore{scan: processingScan()}
	engine := &fakeEngine{outcome: debate.Outcome{
		Rounds:              []debate.Round{{Agent: "solo", Recommendation: "plan", Confidence: 60, Selected: true}},
		FinalRecommendation: "plan",
	}}
	deliverer := &fakeDeliverer{err: errors.New("gateway down")}
	svc, _, _ := newPipeline(store, &fakeExtractor{result: healthyVision()}, engine, deliverer, true)

	if err := svc.Process(context.Background(), store.scan.ID); err != nil {
		t.Fatalf("domain failure should not bubble: %v", err)
	}
	if !store.failed || store.failCode != domain.ErrCodeDeliveryError {
		t.Fatalf("expected delivery_error failure, got failed=%v code=%s", store.failed, store.failCode)
	}
}

func TestProcessSkipsTerminalScan(t *testing.T) {
	scan := processingScan()
	scan.Status = domain.StatusCompleted
	store := &fakeScanStore{scan: scan}
	deliverer := &fakeDeliverer{}
	svc, _, _ := newPipeline(store, &fakeExtractor{result: healthyVision()}, &fakeEngine{}, deliverer, false)

	if err := svc.Process(context.Background(), scan.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if deliverer.calls != 0 {
		t.Fatal("terminal scan must not be reprocessed")
	}
}

func TestProcessLateCompletionDiscarded(t *testing.T) {
	store := &fakeScanStore{scan: processingScan(), terminal: true}
	engine := &fakeEngine{outcome: debate.Outcome{
		Rounds:              []debate.Round{{Agent: "solo", Recommendation: "plan", Confidence: 60, Selected: true}},
		FinalRecommendation: "plan",
	}}
	svc, _, _ := newPipeline(store, &fakeExtractor{result: healthyVision()}, engine, &fakeDeliverer{}, false)

	if err := svc.Process(context.Background(), store.scan.ID); err != nil {
		t.Fatalf("late completion must be discarded quietly: %v", err)
	}
	if store.completed {
		t.Fatal("terminal guard should have rejected the completion")
	}
}

func TestIntakeCreatesScanAndEnqueues(t *testing.T) {
	store := &fakeScanStore{}
	svc, _, tasks := newPipeline(store, &fakeExtractor{}, &fakeEngine{}, &fakeDeliverer{}, false)

	jpeg := append([]byte{0xff, 0xd8, 0xff}, []byte("jpegdata")...)
	scan, err := svc.Intake(context.Background(), uuid.New(), jpeg, "image/jpeg", SourceAPI)
	if err != nil {
		t.Fatalf("Intake failed: %v", err)
	}
	if scan.Status != domain.StatusProcessing {
		t.Fatalf("expected processing status, got %s", scan.Status)
	}
	if len(tasks.enqueued) != 1 || tasks.enqueued[0] != scan.ID {
		t.Fatalf("expected one enqueued task for the scan, got %v", tasks.enqueued)
	}
}

func TestIntakeRejectsNonImage(t *testing.T) {
	svc, _, _ := newPipeline(&fakeScanStore{}, &fakeExtractor{}, &fakeEngine{}, &fakeDeliverer{}, false)

	_, err := svc.Intake(context.Background(), uuid.New(), []byte("%PDF-"), "application/pdf", SourceAPI)
	if err == nil {
		t.Fatal("expected validation error for non-image upload")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}
