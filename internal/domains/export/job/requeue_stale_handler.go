package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/shared"
)

type Requeuer interface {
	RequeueStale(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

const defaultRequeueLimit = 100

// RequeueStaleHandler xử lý periodic task export:requeue_stale
type RequeueStaleHandler struct {
	requeuer Requeuer
}

func NewRequeueStaleHandler(requeuer Requeuer) *RequeueStaleHandler {
	return &RequeueStaleHandler{requeuer: requeuer}
}

func (h *RequeueStaleHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.RequeueStaleExportsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal RequeueStaleExports payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultRequeueLimit
	}

	n, err := h.requeuer.RequeueStale(ctx, time.Duration(payload.OlderThanSeconds)*time.Second, payload.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to requeue stale exports")
		return fmt.Errorf("requeue stale exports: %w", err)
	}

	if n > 0 {
		log.Info().Int("requeued", n).Msg("Stale exports requeued")
	}
	return nil
}
