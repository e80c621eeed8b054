package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelfscan_backend/internal/adapters"
	"shelfscan_backend/internal/adapters/storage"
	"shelfscan_backend/internal/catalog"
	"shelfscan_backend/internal/debate"
	"shelfscan_backend/internal/events"
	"shelfscan_backend/internal/neighborhood"
	"shelfscan_backend/internal/scans"
	scanservice "shelfscan_backend/internal/scans/service"
	"shelfscan_backend/internal/scheduler"
	storesrepo "shelfscan_backend/internal/stores/repository"
	"shelfscan_backend/internal/vision"
	"shelfscan_backend/internal/voice"
	voicerepo "shelfscan_backend/internal/voice/repository"
	voiceservice "shelfscan_backend/internal/voice/service"
	"shelfscan_backend/internal/whatsapp"
	warepo "shelfscan_backend/internal/whatsapp/repository"
	"shelfscan_backend/platform/ai/gemini"
	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/db"
	"shelfscan_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer schedClient.Close()

	// Worker-side pipeline wiring (no HTTP handlers required).
	visionModel, err := gemini.NewClient(ctx, gemini.Config{
		APIKey: cfg.GetGeminiAPIKey(),
		Model:  cfg.GetVisionModel(),
	})
	if err != nil {
		log.Error("failed to initialize vision model", "error", err)
		panic("failed to initialize vision model: " + err.Error())
	}

	roster, err := debate.LoadRoster(cfg.GetDebateArchetypesPath())
	if err != nil {
		log.Error("failed to load debate roster", "error", err)
		panic("failed to load debate roster: " + err.Error())
	}
	agents, err := debate.NewAgents(ctx, roster, cfg, log)
	if err != nil {
		log.Error("failed to initialize debate agents", "error", err)
		panic("failed to initialize debate agents: " + err.Error())
	}
	debateEngine := debate.NewEngine(agents, cfg.GetDebateAgentTimeout(), log)

	var synth voice.Synthesizer
	if client := voice.NewElevenLabsClient(cfg); client != nil {
		synth = client
	} else {
		log.Warn("speech synthesis not configured; advice will be delivered as text")
	}

	waClient := whatsapp.NewClient(cfg, log)
	if waClient == nil {
		log.Warn("whatsapp gateway not configured; outbound delivery disabled")
	}

	storesRepo := storesrepo.New(pool)
	catalogModule := catalog.NewModule(pool, log)
	normalizer := adapters.NewCatalogNormalizer(catalogModule.Service())
	extractor := vision.NewAdapter(visionModel, normalizer, cfg.GetVisionTimeout(), log)

	voiceRepo := voicerepo.New(pool)
	waRepo := warepo.New(pool)
	outboundLogger := adapters.NewOutboundMessageLogger(waRepo, log)
	deliverer := voiceservice.New(synth, storageSvc, cfg.GetMinioBucketVoiceNotes(), waClient, voiceRepo, outboundLogger, log)

	scansModule := scans.NewModule(pool, scanservice.Deps{
		Stores:        storesRepo,
		Storage:       storageSvc,
		PhotoBucket:   cfg.GetMinioBucketShelfPhotos(),
		Extractor:     extractor,
		Engine:        debateEngine,
		Deliverer:     deliverer,
		VoiceNotes:    voiceRepo,
		Notifier:      waClient,
		Media:         waClient,
		Tasks:         schedClient,
		Bus:           eventBus,
		VoiceRequired: cfg.IsVoiceRequired(),
		Log:           log,
	}, cfg.GetMinioBucketVoiceNotes(), cfg.GetMinIOMaxFileSize())

	// Aggregation subscribes on this process's bus; scan completions are
	// published by the pipeline running here.
	neighborhood.NewModule(pool, scansModule.Repository(), eventBus, log)

	if waClient != nil {
		phones := adapters.NewStorePhoneReader(storesRepo)
		redelivery := scheduler.NewVoiceRedelivery(voiceRepo, phones, storageSvc, waClient, cfg.GetMinioBucketVoiceNotes(), 0, log)
		go redelivery.Run(ctx)
	}

	worker, err := scheduler.NewWorker(cfg, scansModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
