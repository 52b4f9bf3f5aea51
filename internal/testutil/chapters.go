package testutil

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/chapter/model"
	"storyforge-backend/internal/domains/chapter/repository"
)

type ChapterRepo struct {
	t *table[model.Chapter]
	// FailPositionFor làm UpdatePosition lỗi cho id này (kiểm tra rollback)
	FailPositionFor primitive.ObjectID
}

var _ repository.Repository = (*ChapterRepo)(nil)

func NewChapterRepo() *ChapterRepo {
	return &ChapterRepo{t: newTable[model.Chapter]()}
}

func (r *ChapterRepo) Create(_ context.Context, c *model.Chapter) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.t.put(c.ID, c)
	return nil
}

func (r *ChapterRepo) scopedGet(projectID, id primitive.ObjectID) (*model.Chapter, bool) {
	c, ok := r.t.get(id)
	if !ok || c.ProjectID != projectID {
		return nil, false
	}
	return c, true
}

func (r *ChapterRepo) FindByID(_ context.Context, projectID, id primitive.ObjectID) (*model.Chapter, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	c, ok := r.scopedGet(projectID, id)
	if !ok {
		return nil, model.ErrChapterNotFound
	}
	return c, nil
}

func (r *ChapterRepo) byProject(projectID primitive.ObjectID, status model.Status) []*model.Chapter {
	out := r.t.filter(func(c *model.Chapter) bool {
		return c.ProjectID == projectID && (status == "" || c.Status == status)
	})
	sortStable(out, func(a, b *model.Chapter) bool { return a.Position < b.Position })
	return out
}

func (r *ChapterRepo) List(_ context.Context, projectID primitive.ObjectID, f repository.ListFilter) ([]*model.Chapter, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	out := r.byProject(projectID, f.Status)
	if !f.WithContent {
		for _, c := range out {
			c.Content = ""
		}
	}
	return out, nil
}

func (r *ChapterRepo) ListIDsByProject(_ context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	out := make([]primitive.ObjectID, 0)
	for _, c := range r.byProject(projectID, "") {
		out = append(out, c.ID)
	}
	return out, nil
}

func (r *ChapterRepo) MaxPosition(_ context.Context, projectID primitive.ObjectID) (int, bool, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	list := r.byProject(projectID, "")
	if len(list) == 0 {
		return 0, false, nil
	}
	return list[len(list)-1].Position, true, nil
}

func (r *ChapterRepo) PositionTaken(_ context.Context, projectID primitive.ObjectID, position int, exclude primitive.ObjectID) (bool, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	hits := r.t.filter(func(c *model.Chapter) bool {
		return c.ProjectID == projectID && c.Position == position && c.ID != exclude
	})
	return len(hits) > 0, nil
}

func (r *ChapterRepo) Update(_ context.Context, c *model.Chapter, _ ...string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	stored, ok := r.scopedGet(c.ProjectID, c.ID)
	if !ok {
		return model.ErrChapterNotFound
	}
	next := *c
	next.Edits = stored.Edits
	r.t.put(c.ID, &next)
	return nil
}

func (r *ChapterRepo) AppendEdit(_ context.Context, c *model.Chapter, edit model.Edit, _ ...string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	stored, ok := r.scopedGet(c.ProjectID, c.ID)
	if !ok {
		return model.ErrChapterNotFound
	}
	next := *c
	next.Edits = append(stored.Edits, edit)
	r.t.put(c.ID, &next)
	return nil
}

func (r *ChapterRepo) UpdatePosition(_ context.Context, projectID, id primitive.ObjectID, position int) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if id == r.FailPositionFor {
		return model.ErrChapterNotFound
	}
	c, ok := r.scopedGet(projectID, id)
	if !ok {
		return model.ErrChapterNotFound
	}
	c.Position = position
	c.UpdatedAt = time.Now()
	r.t.put(id, c)
	return nil
}

func (r *ChapterRepo) Delete(_ context.Context, projectID, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.scopedGet(projectID, id); !ok {
		return model.ErrChapterNotFound
	}
	r.t.remove(id)
	return nil
}

func (r *ChapterRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.removeWhere(func(c *model.Chapter) bool { return c.ProjectID == projectID }), nil
}
