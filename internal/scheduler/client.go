package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"shelfscan_backend/platform/config"
)

// Pipeline tasks retry a few times with asynq's default backoff; the scan
// row stays in processing until a run reaches a terminal transition.
const (
	processScanMaxRetry = 3
	processScanTimeout  = 5 * time.Minute
	ingestMaxRetry      = 3
	ingestTimeout       = 2 * time.Minute
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	return &Client{client: asynq.NewClient(opt)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueProcessScan queues the analysis pipeline for a freshly created scan.
func (c *Client) EnqueueProcessScan(ctx context.Context, scanID uuid.UUID) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler client not configured")
	}

	task, err := NewProcessScanTask(ProcessScanPayload{ScanID: scanID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(processScanMaxRetry),
		asynq.Timeout(processScanTimeout),
	)
	return err
}

// EnqueueIngest queues download-and-scan for a WhatsApp shelf photo.
func (c *Client) EnqueueIngest(ctx context.Context, storeID uuid.UUID, phoneNumber, mediaURL, mediaType string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler client not configured")
	}

	task, err := NewIngestMediaTask(IngestMediaPayload{
		StoreID:   storeID.String(),
		Phone:     phoneNumber,
		MediaURL:  mediaURL,
		MediaType: mediaType,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(ingestMaxRetry),
		asynq.Timeout(ingestTimeout),
	)
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
