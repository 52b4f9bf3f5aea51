package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/ai/model"
	"storyforge-backend/internal/shared"
)

type ListFilter struct {
	Type  model.GenerationType
	Saved *bool
}

type Repository interface {
	Create(ctx context.Context, g *model.Generation) error
	FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Generation, error)
	// List mới nhất trước
	List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter, page shared.Pagination) ([]*model.Generation, int64, error)
	SetSaved(ctx context.Context, projectID, id primitive.ObjectID, saved bool, at time.Time) error
	Delete(ctx context.Context, projectID, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}
