package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/chapter/model"
)

type ListFilter struct {
	Status model.Status
	// WithContent=false dùng projection bỏ content
	WithContent bool
}

type Repository interface {
	Create(ctx context.Context, c *model.Chapter) error
	FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Chapter, error)
	// List sort theo position
	List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter) ([]*model.Chapter, error)
	// ListIDsByProject trả về id các chapter theo position
	ListIDsByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error)
	// MaxPosition: ok=false khi project chưa có chapter
	MaxPosition(ctx context.Context, projectID primitive.ObjectID) (pos int, ok bool, err error)
	// PositionTaken kiểm tra position đã có chapter khác (trừ exclude) chiếm chưa
	PositionTaken(ctx context.Context, projectID primitive.ObjectID, position int, exclude primitive.ObjectID) (bool, error)

	Update(ctx context.Context, c *model.Chapter, fields ...string) error
	// AppendEdit $push edit và $set các fields trong cùng một lần ghi
	AppendEdit(ctx context.Context, c *model.Chapter, edit model.Edit, fields ...string) error
	UpdatePosition(ctx context.Context, projectID, id primitive.ObjectID, position int) error

	Delete(ctx context.Context, projectID, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}
