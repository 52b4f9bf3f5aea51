package service

import (
	"context"

	"storyforge-backend/internal/domains/plot/model"
	"storyforge-backend/internal/shared"
)

type Service interface {
	Create(ctx context.Context, caller shared.Caller, req *model.CreatePlotRequest) (*model.PlotResponse, error)
	List(ctx context.Context, caller shared.Caller, req *model.ListPlotsRequest) ([]*model.PlotResponse, error)
	GetByID(ctx context.Context, caller shared.Caller, req *model.GetPlotRequest) (*model.PlotResponse, error)
	Update(ctx context.Context, caller shared.Caller, req *model.UpdatePlotRequest) (*model.PlotResponse, error)
	Delete(ctx context.Context, caller shared.Caller, req *model.DeletePlotRequest) (*shared.Ack, error)

	AddPlotPoint(ctx context.Context, caller shared.Caller, req *model.AddPlotPointRequest) (*model.PlotResponse, error)
	UpdatePlotPoint(ctx context.Context, caller shared.Caller, req *model.UpdatePlotPointRequest) (*model.PlotResponse, error)
	DeletePlotPoint(ctx context.Context, caller shared.Caller, req *model.DeletePlotPointRequest) (*model.PlotResponse, error)
	ReorderPlotPoints(ctx context.Context, caller shared.Caller, req *model.ReorderPlotPointsRequest) (*model.PlotResponse, error)
}
