package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/chapter/model"
	"storyforge-backend/internal/domains/chapter/repository"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
	"storyforge-backend/pkg/database"
)

type chapterService struct {
	repo   repository.Repository
	access *access.Checker
	tx     database.TxManager
	now    func() time.Time
}

func NewService(repo repository.Repository, checker *access.Checker, tx database.TxManager) Service {
	return &chapterService{repo: repo, access: checker, tx: tx, now: time.Now}
}

// =====================================================
// CRUD
// =====================================================

func (s *chapterService) Create(ctx context.Context, caller shared.Caller, req *model.CreateChapterRequest) (*model.ChapterResponse, error) {
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

	// 3. RESOLVE POSITION
	var position int
	if req.Position != nil {
		position = *req.Position
		taken, err := s.repo.PositionTaken(ctx, projectID, position, primitive.NilObjectID)
		if err != nil {
			return nil, apperror.Internal("failed to check chapter position", err)
		}
		if taken {
			return nil, apperror.Conflict(model.ErrPositionTaken.Error(), model.ErrPositionTaken)
		}
	} else {
		max, ok, err := s.repo.MaxPosition(ctx, projectID)
		if err != nil {
			return nil, apperror.Internal("failed to resolve chapter position", err)
		}
		if ok {
			position = max + 1
		}
	}

	// 4. PERSIST
	c, err := req.ToChapter(projectID, position, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperror.Internal("failed to create chapter", err)
	}

	log.Debug().
		Str("project_id", projectID.Hex()).
		Str("chapter_id", c.ID.Hex()).
		Int("position", c.Position).
		Msg("Chapter created")
	return c.ToResponse(true), nil
}

func (s *chapterService) List(ctx context.Context, caller shared.Caller, req *model.ListChaptersRequest) ([]*model.ChapterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelRead)
	if err != nil {
		return nil, err
	}

	chapters, err := s.repo.List(ctx, grant.Project.ID, repository.ListFilter{
		Status:      req.Status,
		WithContent: req.IncludeContent,
	})
	if err != nil {
		return nil, apperror.Internal("failed to list chapters", err)
	}
	return toResponses(chapters, req.IncludeContent), nil
}

func (s *chapterService) GetByID(ctx context.Context, caller shared.Caller, req *model.GetChapterRequest) (*model.ChapterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	_, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	return c.ToResponse(true), nil
}

// Update: content đổi thì tính lại word_count và append edit trong cùng lần ghi
func (s *chapterService) Update(ctx context.Context, caller shared.Caller, req *model.UpdateChapterRequest) (*model.ChapterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	changed, err := req.ApplyTo(c)
	if err != nil {
		return nil, err
	}
	if req.Position != nil {
		if err := s.ensurePositionFree(ctx, c); err != nil {
			return nil, err
		}
	}

	now := s.now()
	c.UpdatedAt = now
	if req.ContentChanged() {
		edit := model.Edit{Timestamp: now, EditorID: grant.UserID, Note: req.Note()}
		err = s.repo.AppendEdit(ctx, c, edit, changed...)
		c.Edits = append(c.Edits, edit)
	} else {
		err = s.repo.Update(ctx, c, changed...)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}
	return c.ToResponse(true), nil
}

func (s *chapterService) UpdateContent(ctx context.Context, caller shared.Caller, req *model.UpdateContentRequest) (*model.ChapterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.SetContent(req.Content)
	c.UpdatedAt = now
	edit := model.Edit{Timestamp: now, EditorID: grant.UserID, Note: req.EditNote()}
	if err := s.repo.AppendEdit(ctx, c, edit, "content", "word_count"); err != nil {
		return nil, mapRepoError(err)
	}
	c.Edits = append(c.Edits, edit)
	return c.ToResponse(true), nil
}

func (s *chapterService) Delete(ctx context.Context, caller shared.Caller, req *model.DeleteChapterRequest) (*shared.Ack, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, grant.Project.ID, c.ID); err != nil {
		return nil, mapRepoError(err)
	}
	return shared.AckOf(c.ID.Hex()), nil
}

// =====================================================
// REORDER / EDITS
// =====================================================

// Reorder tính position mới cho cả project trước, từ chối nếu trùng, rồi
// ghi từng chapter trong một transaction
func (s *chapterService) Reorder(ctx context.Context, caller shared.Caller, req *model.ReorderChaptersRequest) ([]*model.ChapterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	projectID := grant.Project.ID

	current, err := s.repo.List(ctx, projectID, repository.ListFilter{})
	if err != nil {
		return nil, apperror.Internal("failed to load chapters", err)
	}
	if _, err := model.Positions(current, req.Items); err != nil {
		return nil, mapRepoError(err)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, it := range req.Items {
			id, err := ids.Parse("id", it.ID)
			if err != nil {
				return err
			}
			if err := s.repo.UpdatePosition(ctx, projectID, id, it.Order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	chapters, err := s.repo.List(ctx, projectID, repository.ListFilter{})
	if err != nil {
		return nil, apperror.Internal("failed to list chapters", err)
	}
	return toResponses(chapters, false), nil
}

func (s *chapterService) AddEdit(ctx context.Context, caller shared.Caller, req *model.AddEditRequest) (*model.ChapterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.UpdatedAt = now
	edit := model.Edit{Timestamp: now, EditorID: grant.UserID, Note: req.Note}
	if err := s.repo.AppendEdit(ctx, c, edit); err != nil {
		return nil, mapRepoError(err)
	}
	c.Edits = append(c.Edits, edit)
	return c.ToResponse(true), nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *chapterService) load(ctx context.Context, caller shared.Caller, projectID, id string, level access.Level) (*access.Grant, *model.Chapter, error) {
	grant, err := s.access.Authorize(ctx, caller, projectID, level)
	if err != nil {
		return nil, nil, err
	}
	cid, err := ids.Parse("id", id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.repo.FindByID(ctx, grant.Project.ID, cid)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	return grant, c, nil
}

func (s *chapterService) ensurePositionFree(ctx context.Context, c *model.Chapter) error {
	taken, err := s.repo.PositionTaken(ctx, c.ProjectID, c.Position, c.ID)
	if err != nil {
		return apperror.Internal("failed to check chapter position", err)
	}
	if taken {
		return apperror.Conflict(model.ErrPositionTaken.Error(), model.ErrPositionTaken)
	}
	return nil
}

func toResponses(chapters []*model.Chapter, includeContent bool) []*model.ChapterResponse {
	out := make([]*model.ChapterResponse, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, c.ToResponse(includeContent))
	}
	return out
}

func mapRepoError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrChapterNotFound):
		return apperror.NotFound("chapter", err)
	case errors.Is(err, model.ErrPositionTaken):
		return apperror.Conflict(model.ErrPositionTaken.Error(), err)
	}
	return apperror.Internal("chapter store failure", err)
}
