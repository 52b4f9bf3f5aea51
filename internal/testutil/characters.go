package testutil

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/character/model"
	"storyforge-backend/internal/domains/character/repository"
	"storyforge-backend/internal/shared/ids"
)

type CharacterRepo struct {
	t *table[model.Character]
}

var _ repository.Repository = (*CharacterRepo)(nil)

func NewCharacterRepo() *CharacterRepo {
	return &CharacterRepo{t: newTable[model.Character]()}
}

func (r *CharacterRepo) Create(_ context.Context, c *model.Character) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.t.put(c.ID, c)
	return nil
}

func (r *CharacterRepo) scopedGet(projectID, id primitive.ObjectID) (*model.Character, bool) {
	c, ok := r.t.get(id)
	if !ok || c.ProjectID != projectID {
		return nil, false
	}
	return c, true
}

func (r *CharacterRepo) FindByID(_ context.Context, projectID, id primitive.ObjectID) (*model.Character, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	c, ok := r.scopedGet(projectID, id)
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return c, nil
}

func (r *CharacterRepo) FindMany(_ context.Context, projectID primitive.ObjectID, list []primitive.ObjectID) ([]*model.Character, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.filter(func(c *model.Character) bool {
		return c.ProjectID == projectID && ids.Contains(list, c.ID)
	}), nil
}

func (r *CharacterRepo) List(_ context.Context, projectID primitive.ObjectID, f repository.ListFilter) ([]*model.Character, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	out := r.t.filter(func(c *model.Character) bool {
		if c.ProjectID != projectID {
			return false
		}
		if f.Role != "" && c.Role != f.Role {
			return false
		}
		return f.Search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search))
	})
	sortStable(out, func(a, b *model.Character) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) })
	return out, nil
}

func (r *CharacterRepo) Update(_ context.Context, c *model.Character, _ ...string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.scopedGet(c.ProjectID, c.ID); !ok {
		return model.ErrCharacterNotFound
	}
	r.t.put(c.ID, c)
	return nil
}

func (r *CharacterRepo) Delete(_ context.Context, projectID, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.scopedGet(projectID, id); !ok {
		return model.ErrCharacterNotFound
	}
	r.t.remove(id)
	return nil
}

func (r *CharacterRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.removeWhere(func(c *model.Character) bool { return c.ProjectID == projectID }), nil
}

func (r *CharacterRepo) mutate(projectID, id primitive.ObjectID, fn func(c *model.Character) error) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	c, ok := r.scopedGet(projectID, id)
	if !ok {
		return model.ErrCharacterNotFound
	}
	if err := fn(c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	r.t.put(id, c)
	return nil
}

func (r *CharacterRepo) AddRelationship(_ context.Context, projectID, id primitive.ObjectID, rel model.Relationship) error {
	return r.mutate(projectID, id, func(c *model.Character) error {
		if c.Relationship(rel.CharacterID) != nil {
			return model.ErrRelationshipExists
		}
		c.Relationships = append(c.Relationships, rel)
		return nil
	})
}

func (r *CharacterRepo) UpdateRelationship(_ context.Context, projectID, id primitive.ObjectID, rel model.Relationship) error {
	return r.mutate(projectID, id, func(c *model.Character) error {
		existing := c.Relationship(rel.CharacterID)
		if existing == nil {
			return model.ErrRelationshipNotFound
		}
		*existing = rel
		return nil
	})
}

func (r *CharacterRepo) RemoveRelationship(_ context.Context, projectID, id, target primitive.ObjectID) error {
	return r.mutate(projectID, id, func(c *model.Character) error {
		for i, rel := range c.Relationships {
			if rel.CharacterID == target {
				c.Relationships = append(c.Relationships[:i], c.Relationships[i+1:]...)
				return nil
			}
		}
		return model.ErrRelationshipNotFound
	})
}

func (r *CharacterRepo) RemoveRelationshipsTo(_ context.Context, projectID, target primitive.ObjectID) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	var n int64
	for _, c := range r.t.filter(func(c *model.Character) bool { return c.ProjectID == projectID && c.Relationship(target) != nil }) {
		kept := c.Relationships[:0]
		for _, rel := range c.Relationships {
			if rel.CharacterID != target {
				kept = append(kept, rel)
			}
		}
		c.Relationships = kept
		r.t.put(c.ID, c)
		n++
	}
	return n, nil
}

func (r *CharacterRepo) AddPossession(_ context.Context, projectID, id, objectID primitive.ObjectID) error {
	return r.mutate(projectID, id, func(c *model.Character) error {
		if ids.Contains(c.Possessions, objectID) {
			return model.ErrPossessionExists
		}
		c.Possessions = append(c.Possessions, objectID)
		return nil
	})
}

func (r *CharacterRepo) RemovePossession(_ context.Context, projectID, id, objectID primitive.ObjectID) error {
	return r.mutate(projectID, id, func(c *model.Character) error {
		for i, o := range c.Possessions {
			if o == objectID {
				c.Possessions = append(c.Possessions[:i], c.Possessions[i+1:]...)
				return nil
			}
		}
		return model.ErrPossessionNotFound
	})
}
