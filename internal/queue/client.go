package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adityaverma/docuchat/internal/config"
)

// Client enqueues background tasks. One method per task type keeps payload
// shape and retry policy next to each other.
type Client struct {
	inner *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		inner: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.inner.Close()
}

func (c *Client) EnqueueArchiveStore(ctx context.Context, payload ArchiveStorePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", TypeArchiveStore, err)
	}

	task := asynq.NewTask(TypeArchiveStore, data)
	if _, err := c.inner.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Timeout(time.Minute)); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeArchiveStore, err)
	}
	return nil
}
