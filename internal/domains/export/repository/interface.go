package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/export/model"
	"storyforge-backend/internal/shared"
)

type ListFilter struct {
	Status model.Status
}

// FileInfo mô tả file đã upload khi export hoàn tất
type FileInfo struct {
	URL  string
	Key  string
	Size int64
}

type Repository interface {
	Create(ctx context.Context, e *model.Export) error
	FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Export, error)
	// Get không scope theo project, chỉ worker dùng
	Get(ctx context.Context, id primitive.ObjectID) (*model.Export, error)
	// List mới nhất trước
	List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter, page shared.Pagination) ([]*model.Export, int64, error)
	Delete(ctx context.Context, projectID, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
	IncrementDownloads(ctx context.Context, projectID, id primitive.ObjectID) error

	// Job state; các transition đều có điều kiện trên status hiện tại và trả
	// ErrStateChanged khi export đã bị xóa hoặc đã sang trạng thái khác
	SetTask(ctx context.Context, id primitive.ObjectID, taskID string, at time.Time) error
	MarkProcessing(ctx context.Context, id primitive.ObjectID, at time.Time) error
	RecordFailure(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error
	MarkCompleted(ctx context.Context, id primitive.ObjectID, file FileInfo, at time.Time) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error
	// ListStalePending: export pending có updated_at trước cutoff, cũ nhất trước
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*model.Export, error)
}
