package testutil

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/ai/model"
	"storyforge-backend/internal/domains/ai/repository"
	"storyforge-backend/internal/shared"
)

type GenerationRepo struct {
	t *table[model.Generation]
}

var _ repository.Repository = (*GenerationRepo)(nil)

func NewGenerationRepo() *GenerationRepo {
	return &GenerationRepo{t: newTable[model.Generation]()}
}

func (r *GenerationRepo) Create(_ context.Context, g *model.Generation) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	r.t.put(g.ID, g)
	return nil
}

func (r *GenerationRepo) FindByID(_ context.Context, projectID, id primitive.ObjectID) (*model.Generation, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	g, ok := r.t.get(id)
	if !ok || g.ProjectID != projectID {
		return nil, model.ErrGenerationNotFound
	}
	return g, nil
}

func (r *GenerationRepo) List(_ context.Context, projectID primitive.ObjectID, f repository.ListFilter, p shared.Pagination) ([]*model.Generation, int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	all := r.t.filter(func(g *model.Generation) bool {
		if g.ProjectID != projectID {
			return false
		}
		if f.Type != "" && g.Type != f.Type {
			return false
		}
		return f.Saved == nil || g.Saved == *f.Saved
	})
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	p = p.Normalize()
	return page(all, p.Skip(), p.Limit), int64(len(all)), nil
}

func (r *GenerationRepo) SetSaved(_ context.Context, projectID, id primitive.ObjectID, saved bool, at time.Time) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	g, ok := r.t.get(id)
	if !ok || g.ProjectID != projectID {
		return model.ErrGenerationNotFound
	}
	g.Saved = saved
	g.UpdatedAt = at
	r.t.put(id, g)
	return nil
}

func (r *GenerationRepo) Delete(_ context.Context, projectID, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	g, ok := r.t.get(id)
	if !ok || g.ProjectID != projectID {
		return model.ErrGenerationNotFound
	}
	r.t.remove(id)
	return nil
}

func (r *GenerationRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.removeWhere(func(g *model.Generation) bool { return g.ProjectID == projectID }), nil
}

// Len đếm tổng số generation đang lưu
func (r *GenerationRepo) Len() int {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return len(r.t.rows)
}
