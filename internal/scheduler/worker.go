package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"shelfscan_backend/internal/scans/domain"
	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/logger"
)

// ScanPipeline is the slice of the scans service the worker drives.
type ScanPipeline interface {
	Process(ctx context.Context, scanID uuid.UUID) error
	IngestFromWhatsApp(ctx context.Context, storeID uuid.UUID, mediaURL, mediaType string) (domain.Scan, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	pipeline ScanPipeline
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pipeline ScanPipeline, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetWorkerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		pipeline: pipeline,
		log:      log,
	}

	mux.HandleFunc(TaskProcessScan, w.handleProcessScan)
	mux.HandleFunc(TaskIngestMedia, w.handleIngestMedia)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleProcessScan(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseProcessScanPayload(task)
	if err != nil {
		return err
	}

	scanID, err := uuid.Parse(payload.ScanID)
	if err != nil {
		return err
	}

	return w.pipeline.Process(ctx, scanID)
}

func (w *Worker) handleIngestMedia(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIngestMediaPayload(task)
	if err != nil {
		return err
	}

	storeID, err := uuid.Parse(payload.StoreID)
	if err != nil {
		return err
	}

	if _, err := w.pipeline.IngestFromWhatsApp(ctx, storeID, payload.MediaURL, payload.MediaType); err != nil {
		w.log.Error("whatsapp media ingest failed",
			"store_id", payload.StoreID, "phone", payload.Phone, "error", err.Error())
		return err
	}
	return nil
}
