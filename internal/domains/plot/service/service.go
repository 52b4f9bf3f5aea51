package service

import (
	"context"
	"errors"
	"time"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/plot/model"
	"storyforge-backend/internal/domains/plot/repository"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
)

type plotService struct {
	repo   repository.Repository
	access *access.Checker
	now    func() time.Time
}

func NewService(repo repository.Repository, checker *access.Checker) Service {
	return &plotService{repo: repo, access: checker, now: time.Now}
}

// =====================================================
// CRUD
// =====================================================

func (s *plotService) Create(ctx context.Context, caller shared.Caller, req *model.CreatePlotRequest) (*model.PlotResponse, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	// 2. ACCESS CHECK
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	// 3. BUILD + PERSIST
	p, err := req.ToPlot(grant.Project.ID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Internal("failed to create plot", err)
	}
	return p.ToResponse(), nil
}

func (s *plotService) List(ctx context.Context, caller shared.Caller, req *model.ListPlotsRequest) ([]*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelRead)
	if err != nil {
		return nil, err
	}

	plots, err := s.repo.List(ctx, grant.Project.ID, repository.ListFilter{StructureType: req.StructureType})
	if err != nil {
		return nil, apperror.Internal("failed to list plots", err)
	}
	out := make([]*model.PlotResponse, 0, len(plots))
	for _, p := range plots {
		out = append(out, p.ToResponse())
	}
	return out, nil
}

func (s *plotService) GetByID(ctx context.Context, caller shared.Caller, req *model.GetPlotRequest) (*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	return p.ToResponse(), nil
}

func (s *plotService) Update(ctx context.Context, caller shared.Caller, req *model.UpdatePlotRequest) (*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	changed := req.ApplyTo(p)
	return s.save(ctx, p, changed...)
}

func (s *plotService) Delete(ctx context.Context, caller shared.Caller, req *model.DeletePlotRequest) (*shared.Ack, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, p.ProjectID, p.ID); err != nil {
		return nil, mapRepoError(err)
	}
	return shared.AckOf(p.ID.Hex()), nil
}

// =====================================================
// PLOT POINTS
// =====================================================

func (s *plotService) AddPlotPoint(ctx context.Context, caller shared.Caller, req *model.AddPlotPointRequest) (*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	el, err := req.ElementInput.ToElement(p.NextOrder())
	if err != nil {
		return nil, err
	}
	p.Elements = append(p.Elements, el)
	p.SortElements()
	return s.save(ctx, p, "elements")
}

func (s *plotService) UpdatePlotPoint(ctx context.Context, caller shared.Caller, req *model.UpdatePlotPointRequest) (*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	_, el := p.Element(req.PointID)
	if el == nil {
		return nil, apperror.NotFound("plot point", model.ErrElementNotFound)
	}
	if err := req.ApplyTo(el); err != nil {
		return nil, err
	}
	p.SortElements()
	return s.save(ctx, p, "elements")
}

func (s *plotService) DeletePlotPoint(ctx context.Context, caller shared.Caller, req *model.DeletePlotPointRequest) (*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	i, _ := p.Element(req.PointID)
	if i < 0 {
		return nil, apperror.NotFound("plot point", model.ErrElementNotFound)
	}
	p.Elements = append(p.Elements[:i], p.Elements[i+1:]...)
	return s.save(ctx, p, "elements")
}

// ReorderPlotPoints áp order mới cho các element được liệt kê; elements
// nằm trong một document nên một lần $set là đủ atomic
func (s *plotService) ReorderPlotPoints(ctx context.Context, caller shared.Caller, req *model.ReorderPlotPointsRequest) (*model.PlotResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	p, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	if err := model.Reorder(p, req.Items); err != nil {
		return nil, mapRepoError(err)
	}
	return s.save(ctx, p, "elements")
}

// =====================================================
// HELPERS
// =====================================================

func (s *plotService) load(ctx context.Context, caller shared.Caller, projectID, id string, level access.Level) (*model.Plot, error) {
	grant, err := s.access.Authorize(ctx, caller, projectID, level)
	if err != nil {
		return nil, err
	}
	pid, err := ids.Parse("id", id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, grant.Project.ID, pid)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return p, nil
}

func (s *plotService) save(ctx context.Context, p *model.Plot, fields ...string) (*model.PlotResponse, error) {
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p, fields...); err != nil {
		return nil, mapRepoError(err)
	}
	return p.ToResponse(), nil
}

func mapRepoError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrPlotNotFound):
		return apperror.NotFound("plot", err)
	case errors.Is(err, model.ErrElementNotFound):
		return apperror.NotFound("plot point", err)
	}
	return apperror.Internal("plot store failure", err)
}
