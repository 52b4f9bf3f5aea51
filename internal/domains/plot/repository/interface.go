package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/plot/model"
)

type ListFilter struct {
	StructureType model.StructureType
}

// Repository: elements nằm trong document plot nên mọi thao tác plot point
// là một lần ghi field elements
type Repository interface {
	Create(ctx context.Context, p *model.Plot) error
	FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Plot, error)
	// List sort theo created_at
	List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter) ([]*model.Plot, error)
	Update(ctx context.Context, p *model.Plot, fields ...string) error
	Delete(ctx context.Context, projectID, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}
