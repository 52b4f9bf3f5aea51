package testutil

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/domains/project/repository"
	"storyforge-backend/internal/shared"
)

// ProjectRepo là fake của project repository
type ProjectRepo struct {
	t *table[model.Project]
}

var _ repository.Repository = (*ProjectRepo)(nil)

func NewProjectRepo() *ProjectRepo {
	return &ProjectRepo{t: newTable[model.Project]()}
}

func (r *ProjectRepo) Create(_ context.Context, p *model.Project) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.t.put(p.ID, p)
	return nil
}

func (r *ProjectRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Project, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	p, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrProjectNotFound
	}
	return p, nil
}

func (r *ProjectRepo) List(_ context.Context, f repository.ListFilter, pg shared.Pagination) ([]*model.Project, int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	items := r.t.filter(func(p *model.Project) bool {
		if f.Status != "" && p.Status != f.Status {
			return false
		}
		owned := p.OwnerID == f.UserID
		collab := p.Collaborator(f.UserID) != nil
		switch f.Scope {
		case model.ScopeOwned:
			return owned
		case model.ScopeShared:
			return collab
		}
		return owned || collab
	})
	sortStable(items, func(a, b *model.Project) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	pg = pg.Normalize()
	return page(items, pg.Skip(), pg.Limit), int64(len(items)), nil
}

func (r *ProjectRepo) Update(_ context.Context, p *model.Project, _ ...string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.t.rows[p.ID]; !ok {
		return model.ErrProjectNotFound
	}
	r.t.put(p.ID, p)
	return nil
}

func (r *ProjectRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if !r.t.remove(id) {
		return model.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepo) mutate(id primitive.ObjectID, fn func(p *model.Project) error) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	p, ok := r.t.get(id)
	if !ok {
		return model.ErrProjectNotFound
	}
	if err := fn(p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	r.t.put(id, p)
	return nil
}

func (r *ProjectRepo) AddCollaborator(_ context.Context, projectID primitive.ObjectID, c model.Collaborator) error {
	return r.mutate(projectID, func(p *model.Project) error {
		if p.Collaborator(c.UserID) != nil {
			return model.ErrCollaboratorExists
		}
		p.Collaborators = append(p.Collaborators, c)
		return nil
	})
}

func (r *ProjectRepo) RemoveCollaborator(_ context.Context, projectID, userID primitive.ObjectID) error {
	return r.mutate(projectID, func(p *model.Project) error {
		for i, c := range p.Collaborators {
			if c.UserID == userID {
				p.Collaborators = append(p.Collaborators[:i], p.Collaborators[i+1:]...)
				return nil
			}
		}
		return model.ErrCollaboratorNotFound
	})
}

func (r *ProjectRepo) UpdateCollaboratorRole(_ context.Context, projectID, userID primitive.ObjectID, role model.CollaboratorRole) error {
	return r.mutate(projectID, func(p *model.Project) error {
		c := p.Collaborator(userID)
		if c == nil {
			return model.ErrCollaboratorNotFound
		}
		c.Role = role
		return nil
	})
}

// Seed lưu project trực tiếp (test setup)
func (r *ProjectRepo) Seed(owner primitive.ObjectID, collaborators ...model.Collaborator) *model.Project {
	now := time.Now()
	p := &model.Project{
		ID:            primitive.NewObjectID(),
		OwnerID:       owner,
		Title:         "Seeded project",
		Status:        model.StatusDraft,
		Collaborators: append([]model.Collaborator{}, collaborators...),
		Tags:          []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_ = r.Create(context.Background(), p)
	return p
}
