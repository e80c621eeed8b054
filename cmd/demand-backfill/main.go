// Command demand-backfill re-folds recent completed scans into the weekly
// neighborhood demand rollups. Aggregation is idempotent, so rerunning over
// an already-processed window is safe.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"shelfscan_backend/internal/events"
	neighborhoodrepo "shelfscan_backend/internal/neighborhood/repository"
	neighborhoodsvc "shelfscan_backend/internal/neighborhood/service"
	scansrepo "shelfscan_backend/internal/scans/repository"
	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/db"
	"shelfscan_backend/platform/logger"
)

const batchSize = 100

type completedScan struct {
	id          uuid.UUID
	storeID     uuid.UUID
	pincode     string
	healthScore int
	completedAt time.Time
}

func main() {
	weeks := flag.Int("weeks", 4, "how many weeks of completed scans to re-fold")
	workers := flag.Int("workers", 4, "concurrent aggregation workers per batch")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting demand backfill", "weeks", *weeks)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	scansRepo := scansrepo.New(pool)
	svc := neighborhoodsvc.New(
		neighborhoodrepo.New(pool),
		scansRepo,
		events.NewInMemoryBus(log),
		log,
	)

	since := time.Now().UTC().AddDate(0, 0, -7*(*weeks))

	var processed int
	cursorTime := time.Time{}
	cursorID := uuid.Nil

	for {
		scans, err := listCompletedScans(ctx, pool, since, cursorTime, cursorID, batchSize)
		if err != nil {
			log.Error("failed to list completed scans", "error", err)
			break
		}
		if len(scans) == 0 {
			break
		}

		cursorTime = scans[len(scans)-1].completedAt
		cursorID = scans[len(scans)-1].id

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(*workers)
		for _, scan := range scans {
			group.Go(func() error {
				return svc.Aggregate(groupCtx, neighborhoodsvc.AggregateParams{
					ScanID:      scan.id,
					StoreID:     scan.storeID,
					Pincode:     scan.pincode,
					HealthScore: scan.healthScore,
					CompletedAt: scan.completedAt,
				})
			})
		}
		if err := group.Wait(); err != nil {
			log.Error("aggregation batch failed", "error", err)
			break
		}
		processed += len(scans)
	}

	log.Info("demand backfill completed", "processed", processed)
}

func listCompletedScans(ctx context.Context, pool *pgxpool.Pool, since, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]completedScan, error) {
	rows, err := pool.Query(ctx, `
    SELECT s.id, s.store_id, st.pincode, COALESCE(s.health_score, 0), s.completed_at
    FROM scans s
    JOIN stores st ON st.id = s.store_id
    WHERE s.status = 'completed'
      AND s.completed_at IS NOT NULL
      AND s.completed_at >= $1
      AND (s.completed_at > $2 OR (s.completed_at = $2 AND s.id > $3))
    ORDER BY s.completed_at ASC, s.id ASC
    LIMIT $4
  `, since, cursorTime, cursorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]completedScan, 0)
	for rows.Next() {
		var scan completedScan
		if err := rows.Scan(&scan.id, &scan.storeID, &scan.pincode, &scan.healthScore, &scan.completedAt); err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}

	return scans, rows.Err()
}
