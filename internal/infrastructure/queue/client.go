package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"storyforge-backend/internal/shared"
)

// ExportEnqueuer schedules the background generation of an export.
type ExportEnqueuer interface {
	EnqueueExport(ctx context.Context, exportID string, delay time.Duration) (string, error)
}

// Client wraps asynq.Client với các task helpers của StoryForge
type Client struct {
	client   *asynq.Client
	maxRetry int
}

var _ ExportEnqueuer = (*Client)(nil)

func NewClient(redisAddr, redisPassword string, redisDB, maxRetry int) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		}),
		maxRetry: maxRetry,
	}
}

// EnqueueExport đưa task export:generate vào queue, chạy sau delay
// Không set TaskID: requeue job có thể enqueue lại cùng export, handler
// idempotent theo export status
func (c *Client) EnqueueExport(ctx context.Context, exportID string, delay time.Duration) (string, error) {
	payload, err := json.Marshal(shared.GenerateExportPayload{ExportID: exportID})
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(shared.TypeGenerateExport, payload)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueExport),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue export %s: %w", exportID, err)
	}
	return info.ID, nil
}

// EnqueueResetEmail đưa task gửi password reset email vào queue default
func (c *Client) EnqueueResetEmail(ctx context.Context, payload shared.ResetEmailPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSendResetEmail, data)
	if _, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(30*time.Second),
	); err != nil {
		return fmt.Errorf("enqueue reset email: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
