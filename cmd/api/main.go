package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelfscan_backend/internal/adapters"
	"shelfscan_backend/internal/adapters/storage"
	"shelfscan_backend/internal/catalog"
	"shelfscan_backend/internal/dashboard"
	"shelfscan_backend/internal/debate"
	"shelfscan_backend/internal/events"
	apphttp "shelfscan_backend/internal/http"
	"shelfscan_backend/internal/http/router"
	"shelfscan_backend/internal/neighborhood"
	"shelfscan_backend/internal/scans"
	scanservice "shelfscan_backend/internal/scans/service"
	"shelfscan_backend/internal/scheduler"
	"shelfscan_backend/internal/stores"
	"shelfscan_backend/internal/vision"
	"shelfscan_backend/internal/voice"
	voicerepo "shelfscan_backend/internal/voice/repository"
	voiceservice "shelfscan_backend/internal/voice/service"
	"shelfscan_backend/internal/whatsapp"
	"shelfscan_backend/platform/ai/gemini"
	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/db"
	"shelfscan_backend/platform/logger"
	"shelfscan_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for shelf photos and synthesized voice notes (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "shelf-photos", cfg.GetMinioBucketShelfPhotos())
	ensureBucket(ctx, log, storageSvc, "voice-notes", cfg.GetMinioBucketVoiceNotes())
	log.Info(
		"storage service initialized",
		"shelfPhotosBucket", cfg.GetMinioBucketShelfPhotos(),
		"voiceNotesBucket", cfg.GetMinioBucketVoiceNotes(),
	)

	// Task queue client for async pipeline runs
	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer schedClient.Close()

	// ========================================================================
	// AI Layer
	// ========================================================================

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
	log.Info("debate engine initialized", "agents", len(agents))

	// Text-to-speech is optional; without it the pipeline falls back to text.
	var synth voice.Synthesizer
	if client := voice.NewElevenLabsClient(cfg); client != nil {
		synth = client
		log.Info("speech synthesis enabled")
	} else {
		log.Warn("speech synthesis not configured; advice will be delivered as text")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	storesModule := stores.NewModule(pool, cfg.WhatsAppNumber, eventBus, val, log)
	catalogModule := catalog.NewModule(pool, log)

	storeDirectory := adapters.NewWhatsAppStoreDirectory(storesModule.Repository())
	whatsappModule := whatsapp.NewModule(pool, cfg, storeDirectory, schedClient, log)
	waClient := whatsappModule.Client()
	if waClient == nil {
		log.Warn("whatsapp gateway not configured; outbound delivery disabled")
	}

	normalizer := adapters.NewCatalogNormalizer(catalogModule.Service())
	extractor := vision.NewAdapter(visionModel, normalizer, cfg.GetVisionTimeout(), log)

	voiceRepo := voicerepo.New(pool)
	outboundLogger := adapters.NewOutboundMessageLogger(whatsappModule.Repository(), log)
	deliverer := voiceservice.New(synth, storageSvc, cfg.GetMinioBucketVoiceNotes(), waClient, voiceRepo, outboundLogger, log)

	scansModule := scans.NewModule(pool, scanservice.Deps{
		Stores:        storesModule.Repository(),
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

	neighborhoodModule := neighborhood.NewModule(pool, scansModule.Repository(), eventBus, log)
	dashboardModule := dashboard.NewModule(pool, scansModule.Repository(), neighborhoodModule.Repository(), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			storesModule,
			scansModule,
			catalogModule,
			whatsappModule,
			neighborhoodModule,
			dashboardModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
