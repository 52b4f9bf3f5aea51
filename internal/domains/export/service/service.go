package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/export/model"
	"storyforge-backend/internal/domains/export/repository"
	"storyforge-backend/internal/infrastructure/queue"
	"storyforge-backend/internal/infrastructure/storage"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
)

type exportService struct {
	repo     repository.Repository
	access   *access.Checker
	chapters ChapterLister
	queue    queue.ExportEnqueuer
	objects  storage.ObjectStore
	opts     Options
	now      func() time.Time
}

func NewService(
	repo repository.Repository,
	checker *access.Checker,
	chapters ChapterLister,
	enqueuer queue.ExportEnqueuer,
	objects storage.ObjectStore,
	opts Options,
) Service {
	return &exportService{
		repo:     repo,
		access:   checker,
		chapters: chapters,
		queue:    enqueuer,
		objects:  objects,
		opts:     opts,
		now:      time.Now,
	}
}

// Create lưu export ở trạng thái pending rồi enqueue task sinh file.
// Enqueue lỗi không làm request fail: export vẫn pending và job requeue
// định kỳ sẽ nhặt lại.
func (s *exportService) Create(ctx context.Context, caller shared.Caller, req *model.CreateExportRequest) (*model.ExportResponse, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	// 2. ACCESS CHECK
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	projectID := grant.Project.ID

	// 3. RESOLVE CHAPTERS
	chapterIDs, err := s.resolveChapters(ctx, projectID, req.Config.ChapterIDs)
	if err != nil {
		return nil, err
	}

	// 4. PERSIST PENDING EXPORT
	now := s.now()
	cfg := req.Config.ToConfig()
	cfg.ChapterIDs = chapterIDs
	e := &model.Export{
		ProjectID:   projectID,
		RequestedBy: grant.UserID,
		Title:       grant.Project.Title,
		Format:      req.Format,
		Config:      cfg,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, apperror.Internal("failed to create export", err)
	}

	// 5. ENQUEUE
	taskID, err := s.queue.EnqueueExport(ctx, e.ID.Hex(), s.opts.ProcessDelay)
	if err != nil {
		log.Warn().Err(err).Str("export_id", e.ID.Hex()).Msg("Export enqueue failed, left pending for requeue")
		return e.ToResponse(), nil
	}
	if err := s.repo.SetTask(ctx, e.ID, taskID, now); err != nil {
		log.Warn().Err(err).Str("export_id", e.ID.Hex()).Msg("Failed to record export task id")
		return e.ToResponse(), nil
	}
	e.Job.TaskID = taskID
	e.Job.EnqueuedAt = &now

	log.Info().
		Str("export_id", e.ID.Hex()).
		Str("project_id", projectID.Hex()).
		Str("format", string(e.Format)).
		Int("chapters", len(chapterIDs)).
		Msg("Export queued")
	return e.ToResponse(), nil
}

// resolveChapters: rỗng = mọi chapter của project theo position; nếu có
// danh sách thì từng id phải thuộc project
func (s *exportService) resolveChapters(ctx context.Context, projectID primitive.ObjectID, requested []string) ([]primitive.ObjectID, error) {
	all, err := s.chapters.ListIDsByProject(ctx, projectID)
	if err != nil {
		return nil, apperror.Internal("failed to load chapters", err)
	}
	if len(requested) == 0 {
		return all, nil
	}

	chosen, err := ids.ParseMany("config.chapter_ids", requested)
	if err != nil {
		return nil, err
	}
	for _, id := range chosen {
		if !ids.Contains(all, id) {
			return nil, apperror.BadRequest(model.ErrForeignChapter.Error() + ": " + id.Hex())
		}
	}
	return chosen, nil
}

func (s *exportService) List(ctx context.Context, caller shared.Caller, req *model.ListExportsRequest) (*model.ExportList, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelRead)
	if err != nil {
		return nil, err
	}

	exports, total, err := s.repo.List(ctx, grant.Project.ID, repository.ListFilter{Status: req.Status}, req.Pagination)
	if err != nil {
		return nil, apperror.Internal("failed to list exports", err)
	}
	items := make([]*model.ExportResponse, 0, len(exports))
	for _, e := range exports {
		items = append(items, e.ToResponse())
	}
	return &model.ExportList{Items: items, Meta: shared.NewPageMeta(req.Pagination, total)}, nil
}

func (s *exportService) GetByID(ctx context.Context, caller shared.Caller, req *model.GetExportRequest) (*model.ExportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	e, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	return e.ToResponse(), nil
}

// Download trả presigned URL và tăng download_count
func (s *exportService) Download(ctx context.Context, caller shared.Caller, req *model.DownloadExportRequest) (*model.DownloadResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	e, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	if e.Status != model.StatusCompleted {
		return nil, apperror.BadRequest(model.ErrNotReady.Error())
	}

	url, err := s.objects.PresignedURL(ctx, e.FileKey, s.opts.DownloadTTL)
	if err != nil {
		return nil, apperror.Internal("failed to sign download url", err)
	}
	if err := s.repo.IncrementDownloads(ctx, e.ProjectID, e.ID); err != nil {
		return nil, mapRepoError(err)
	}

	return &model.DownloadResponse{
		URL:       url,
		ExpiresAt: s.now().Add(s.opts.DownloadTTL),
		FileName:  e.FileName(),
		Format:    e.Format,
		FileSize:  e.FileSize,
	}, nil
}

// Delete xóa record; file xóa best-effort. Worker gặp export đã xóa thì bỏ qua.
func (s *exportService) Delete(ctx context.Context, caller shared.Caller, req *model.DeleteExportRequest) (*shared.Ack, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	e, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, e.ProjectID, e.ID); err != nil {
		return nil, mapRepoError(err)
	}

	if e.FileKey != "" {
		if err := s.objects.Delete(ctx, e.FileKey); err != nil {
			log.Warn().Err(err).Str("key", e.FileKey).Msg("Failed to delete export file")
		}
	}
	return shared.AckOf(e.ID.Hex()), nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *exportService) load(ctx context.Context, caller shared.Caller, projectID, id string, level access.Level) (*model.Export, error) {
	grant, err := s.access.Authorize(ctx, caller, projectID, level)
	if err != nil {
		return nil, err
	}
	eid, err := ids.Parse("id", id)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.FindByID(ctx, grant.Project.ID, eid)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return e, nil
}

func mapRepoError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrExportNotFound):
		return apperror.NotFound("export", err)
	}
	return apperror.Internal("export store failure", err)
}
