package testutil

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/plot/model"
	"storyforge-backend/internal/domains/plot/repository"
)

type PlotRepo struct {
	t *table[model.Plot]
}

var _ repository.Repository = (*PlotRepo)(nil)

func NewPlotRepo() *PlotRepo {
	return &PlotRepo{t: newTable[model.Plot]()}
}

func (r *PlotRepo) Create(_ context.Context, p *model.Plot) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Elements == nil {
		p.Elements = []model.Element{}
	}
	r.t.put(p.ID, p)
	return nil
}

func (r *PlotRepo) scopedGet(projectID, id primitive.ObjectID) (*model.Plot, bool) {
	p, ok := r.t.get(id)
	if !ok || p.ProjectID != projectID {
		return nil, false
	}
	return p, true
}

func (r *PlotRepo) FindByID(_ context.Context, projectID, id primitive.ObjectID) (*model.Plot, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	p, ok := r.scopedGet(projectID, id)
	if !ok {
		return nil, model.ErrPlotNotFound
	}
	p.SortElements()
	return p, nil
}

func (r *PlotRepo) List(_ context.Context, projectID primitive.ObjectID, f repository.ListFilter) ([]*model.Plot, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.filter(func(p *model.Plot) bool {
		return p.ProjectID == projectID && (f.StructureType == "" || p.StructureType == f.StructureType)
	}), nil
}

func (r *PlotRepo) Update(_ context.Context, p *model.Plot, _ ...string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.scopedGet(p.ProjectID, p.ID); !ok {
		return model.ErrPlotNotFound
	}
	r.t.put(p.ID, p)
	return nil
}

func (r *PlotRepo) Delete(_ context.Context, projectID, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.scopedGet(projectID, id); !ok {
		return model.ErrPlotNotFound
	}
	r.t.remove(id)
	return nil
}

func (r *PlotRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.removeWhere(func(p *model.Plot) bool { return p.ProjectID == projectID }), nil
}
