package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
)

// ListFilter lọc project của một user
type ListFilter struct {
	UserID primitive.ObjectID
	Status model.Status
	Scope  model.ListScope
}

type Repository interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Project, error)
	List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]*model.Project, int64, error)
	// Update ghi các field đã đổi (bson names) cộng updated_at
	Update(ctx context.Context, p *model.Project, fields ...string) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddCollaborator(ctx context.Context, projectID primitive.ObjectID, c model.Collaborator) error
	RemoveCollaborator(ctx context.Context, projectID, userID primitive.ObjectID) error
	UpdateCollaboratorRole(ctx context.Context, projectID, userID primitive.ObjectID, role model.CollaboratorRole) error
}
