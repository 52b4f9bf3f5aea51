package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

// Generator là phần của export Processor mà handler cần
type Generator interface {
	Generate(ctx context.Context, exportID primitive.ObjectID, finalAttempt bool) error
}

// GenerateExportHandler xử lý task export:generate
type GenerateExportHandler struct {
	generator Generator
}

func NewGenerateExportHandler(generator Generator) *GenerateExportHandler {
	return &GenerateExportHandler{generator: generator}
}

func (h *GenerateExportHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.GenerateExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal GenerateExport payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	exportID, err := primitive.ObjectIDFromHex(payload.ExportID)
	if err != nil {
		log.Error().Str("export_id", payload.ExportID).Msg("Invalid export id in payload")
		return fmt.Errorf("invalid export id %q: %w", payload.ExportID, asynq.SkipRetry)
	}

	log.Info().
		Str("export_id", payload.ExportID).
		Msg("Generating export")

	if err := h.generator.Generate(ctx, exportID, isFinalAttempt(ctx)); err != nil {
		log.Error().
			Err(err).
			Str("export_id", payload.ExportID).
			Msg("Failed to generate export")
		return fmt.Errorf("generate export: %w", err)
	}
	return nil
}

// isFinalAttempt: lần chạy này là lần retry cuối asynq cho phép.
// Ngoài context của asynq (test) thì coi như chưa phải lần cuối.
func isFinalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	max, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried >= max
}
