package service

import (
	"context"

	"storyforge-backend/internal/domains/chapter/model"
	"storyforge-backend/internal/shared"
)

type Service interface {
	Create(ctx context.Context, caller shared.Caller, req *model.CreateChapterRequest) (*model.ChapterResponse, error)
	List(ctx context.Context, caller shared.Caller, req *model.ListChaptersRequest) ([]*model.ChapterResponse, error)
	GetByID(ctx context.Context, caller shared.Caller, req *model.GetChapterRequest) (*model.ChapterResponse, error)
	Update(ctx context.Context, caller shared.Caller, req *model.UpdateChapterRequest) (*model.ChapterResponse, error)
	UpdateContent(ctx context.Context, caller shared.Caller, req *model.UpdateContentRequest) (*model.ChapterResponse, error)
	Delete(ctx context.Context, caller shared.Caller, req *model.DeleteChapterRequest) (*shared.Ack, error)
	Reorder(ctx context.Context, caller shared.Caller, req *model.ReorderChaptersRequest) ([]*model.ChapterResponse, error)
	AddEdit(ctx context.Context, caller shared.Caller, req *model.AddEditRequest) (*model.ChapterResponse, error)
}
