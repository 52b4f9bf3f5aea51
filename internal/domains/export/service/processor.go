package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/export/model"
	"storyforge-backend/internal/domains/export/repository"
	"storyforge-backend/internal/infrastructure/queue"
	"storyforge-backend/internal/infrastructure/storage"
)

// Processor chạy phía worker: sinh file cho export và requeue export bị kẹt.
// File là placeholder mô tả cấu hình export, không render tài liệu thật.
type Processor struct {
	repo    repository.Repository
	objects storage.ObjectStore
	queue   queue.ExportEnqueuer
	now     func() time.Time
}

func NewProcessor(repo repository.Repository, objects storage.ObjectStore, enqueuer queue.ExportEnqueuer) *Processor {
	return &Processor{repo: repo, objects: objects, queue: enqueuer, now: time.Now}
}

// Generate đưa export qua processing → completed. finalAttempt=true thì lỗi
// upload đánh dấu failed thay vì chờ retry. Export đã xóa hoặc đã ở trạng
// thái cuối là no-op.
func (p *Processor) Generate(ctx context.Context, exportID primitive.ObjectID, finalAttempt bool) error {
	// 1. LOAD
	e, err := p.repo.Get(ctx, exportID)
	if errors.Is(err, model.ErrExportNotFound) {
		log.Info().Str("export_id", exportID.Hex()).Msg("Export gone, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	if e.Status.Terminal() {
		log.Debug().Str("export_id", exportID.Hex()).Str("status", string(e.Status)).Msg("Export already finished")
		return nil
	}

	// 2. MARK PROCESSING
	if err := p.repo.MarkProcessing(ctx, e.ID, p.now()); err != nil {
		if errors.Is(err, model.ErrStateChanged) {
			return nil
		}
		return err
	}

	// 3. UPLOAD PLACEHOLDER
	key := e.ObjectKey()
	body := placeholder(e, p.now())
	url, err := p.objects.Upload(ctx, key, body, e.Format.ContentType())
	if err != nil {
		return p.fail(ctx, e, err, finalAttempt)
	}

	// 4. COMPLETE
	err = p.repo.MarkCompleted(ctx, e.ID, repository.FileInfo{URL: url, Key: key, Size: int64(len(body))}, p.now())
	if errors.Is(err, model.ErrStateChanged) {
		p.discardIfOrphan(ctx, e.ID, key)
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("export_id", e.ID.Hex()).
		Str("key", key).
		Int("size", len(body)).
		Msg("Export completed")
	return nil
}

// discardIfOrphan chạy khi task này thua race ở bước complete. Task trùng
// (requeue + task gốc) ghi cùng key, nên chỉ xóa file khi export không còn
// trỏ tới key đó nữa.
func (p *Processor) discardIfOrphan(ctx context.Context, id primitive.ObjectID, key string) {
	current, err := p.repo.Get(ctx, id)
	switch {
	case errors.Is(err, model.ErrExportNotFound):
		// export bị xóa trong lúc upload
	case err != nil:
		log.Warn().Err(err).Str("export_id", id.Hex()).Msg("Cannot reload export, keeping uploaded file")
		return
	case current.Status == model.StatusCompleted && current.FileKey == key:
		log.Info().Str("export_id", id.Hex()).Msg("Duplicate export task lost the race, file kept")
		return
	}

	if delErr := p.objects.Delete(ctx, key); delErr != nil {
		log.Warn().Err(delErr).Str("key", key).Msg("Failed to delete orphan export file")
	}
}

func (p *Processor) fail(ctx context.Context, e *model.Export, cause error, finalAttempt bool) error {
	reason := cause.Error()
	if finalAttempt {
		if err := p.repo.MarkFailed(ctx, e.ID, reason, p.now()); err != nil && !errors.Is(err, model.ErrStateChanged) {
			log.Error().Err(err).Str("export_id", e.ID.Hex()).Msg("Failed to mark export failed")
		}
		log.Error().Err(cause).Str("export_id", e.ID.Hex()).Msg("Export failed, no retries left")
		return cause
	}

	if err := p.repo.RecordFailure(ctx, e.ID, reason, p.now()); err != nil && !errors.Is(err, model.ErrStateChanged) {
		log.Error().Err(err).Str("export_id", e.ID.Hex()).Msg("Failed to record export failure")
	}
	log.Warn().Err(cause).Str("export_id", e.ID.Hex()).Msg("Export attempt failed, will retry")
	return cause
}

// RequeueStale enqueue lại export pending lâu hơn olderThan
func (p *Processor) RequeueStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	now := p.now()
	stale, err := p.repo.ListStalePending(ctx, now.Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, e := range stale {
		taskID, err := p.queue.EnqueueExport(ctx, e.ID.Hex(), 0)
		if err != nil {
			log.Warn().Err(err).Str("export_id", e.ID.Hex()).Msg("Requeue failed")
			continue
		}
		if err := p.repo.SetTask(ctx, e.ID, taskID, now); err != nil && !errors.Is(err, model.ErrStateChanged) {
			log.Warn().Err(err).Str("export_id", e.ID.Hex()).Msg("Failed to record requeued task id")
		}
		requeued++
	}
	return requeued, nil
}

func placeholder(e *model.Export, at time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "StoryForge export placeholder\n")
	fmt.Fprintf(&b, "title: %s\n", e.Title)
	fmt.Fprintf(&b, "format: %s\n", e.Format)
	fmt.Fprintf(&b, "page_size: %s\n", e.Config.PageSize)
	fmt.Fprintf(&b, "font: %s %dpt\n", e.Config.FontFamily, e.Config.FontSize)
	fmt.Fprintf(&b, "title_page: %t\ntable_of_contents: %t\ncharacter_list: %t\n",
		e.Config.IncludeTitlePage, e.Config.IncludeTableOfContents, e.Config.IncludeCharacterList)
	fmt.Fprintf(&b, "chapters:\n")
	for _, id := range e.Config.ChapterIDs {
		fmt.Fprintf(&b, "  - %s\n", id.Hex())
	}
	fmt.Fprintf(&b, "generated_at: %s\n", at.UTC().Format(time.RFC3339))
	return []byte(b.String())
}
