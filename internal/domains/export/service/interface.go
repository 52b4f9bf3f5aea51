package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/export/model"
	"storyforge-backend/internal/shared"
)

type Service interface {
	Create(ctx context.Context, caller shared.Caller, req *model.CreateExportRequest) (*model.ExportResponse, error)
	List(ctx context.Context, caller shared.Caller, req *model.ListExportsRequest) (*model.ExportList, error)
	GetByID(ctx context.Context, caller shared.Caller, req *model.GetExportRequest) (*model.ExportResponse, error)
	Download(ctx context.Context, caller shared.Caller, req *model.DownloadExportRequest) (*model.DownloadResponse, error)
	Delete(ctx context.Context, caller shared.Caller, req *model.DeleteExportRequest) (*shared.Ack, error)
}

// ChapterLister là phần của chapter repository mà export cần
type ChapterLister interface {
	ListIDsByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type Options struct {
	// ProcessDelay là độ trễ trước khi worker nhận task
	ProcessDelay time.Duration
	DownloadTTL  time.Duration
}
