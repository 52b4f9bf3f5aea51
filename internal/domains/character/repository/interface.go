package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/character/model"
)

type ListFilter struct {
	Role   model.Role
	Search string
}

// Repository: mọi lookup đều scoped theo project_id
type Repository interface {
	Create(ctx context.Context, c *model.Character) error
	FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Character, error)
	FindMany(ctx context.Context, projectID primitive.ObjectID, ids []primitive.ObjectID) ([]*model.Character, error)
	// List sort theo name
	List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter) ([]*model.Character, error)
	Update(ctx context.Context, c *model.Character, fields ...string) error
	Delete(ctx context.Context, projectID, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)

	AddRelationship(ctx context.Context, projectID, id primitive.ObjectID, rel model.Relationship) error
	UpdateRelationship(ctx context.Context, projectID, id primitive.ObjectID, rel model.Relationship) error
	RemoveRelationship(ctx context.Context, projectID, id, target primitive.ObjectID) error
	// RemoveRelationshipsTo gỡ mọi quan hệ trỏ tới target (khi target bị xóa)
	RemoveRelationshipsTo(ctx context.Context, projectID, target primitive.ObjectID) (int64, error)

	AddPossession(ctx context.Context, projectID, id, objectID primitive.ObjectID) error
	RemovePossession(ctx context.Context, projectID, id, objectID primitive.ObjectID) error
}
