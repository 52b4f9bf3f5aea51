package testutil

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/export/model"
	"storyforge-backend/internal/domains/export/repository"
	"storyforge-backend/internal/shared"
)

type ExportRepo struct {
	t *table[model.Export]
}

var _ repository.Repository = (*ExportRepo)(nil)

func NewExportRepo() *ExportRepo {
	return &ExportRepo{t: newTable[model.Export]()}
}

func (r *ExportRepo) Create(_ context.Context, e *model.Export) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	r.t.put(e.ID, e)
	return nil
}

func (r *ExportRepo) FindByID(_ context.Context, projectID, id primitive.ObjectID) (*model.Export, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	e, ok := r.t.get(id)
	if !ok || e.ProjectID != projectID {
		return nil, model.ErrExportNotFound
	}
	return e, nil
}

func (r *ExportRepo) Get(_ context.Context, id primitive.ObjectID) (*model.Export, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	e, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrExportNotFound
	}
	return e, nil
}

func (r *ExportRepo) List(_ context.Context, projectID primitive.ObjectID, f repository.ListFilter, p shared.Pagination) ([]*model.Export, int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	all := r.t.filter(func(e *model.Export) bool {
		return e.ProjectID == projectID && (f.Status == "" || e.Status == f.Status)
	})
	// mới nhất trước: đảo thứ tự insert
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	p = p.Normalize()
	return page(all, p.Skip(), p.Limit), int64(len(all)), nil
}

func (r *ExportRepo) Delete(_ context.Context, projectID, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	e, ok := r.t.get(id)
	if !ok || e.ProjectID != projectID {
		return model.ErrExportNotFound
	}
	r.t.remove(id)
	return nil
}

func (r *ExportRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	return r.t.removeWhere(func(e *model.Export) bool { return e.ProjectID == projectID }), nil
}

func (r *ExportRepo) IncrementDownloads(_ context.Context, projectID, id primitive.ObjectID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	e, ok := r.t.get(id)
	if !ok || e.ProjectID != projectID {
		return model.ErrExportNotFound
	}
	e.DownloadCount++
	r.t.put(id, e)
	return nil
}

func (r *ExportRepo) transition(id primitive.ObjectID, from []model.Status, fn func(e *model.Export)) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	e, ok := r.t.get(id)
	if !ok {
		return model.ErrStateChanged
	}
	allowed := false
	for _, s := range from {
		if e.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return model.ErrStateChanged
	}
	fn(e)
	r.t.put(id, e)
	return nil
}

var activeExport = []model.Status{model.StatusPending, model.StatusProcessing}

func (r *ExportRepo) SetTask(_ context.Context, id primitive.ObjectID, taskID string, at time.Time) error {
	return r.transition(id, activeExport, func(e *model.Export) {
		e.Job.TaskID = taskID
		e.Job.EnqueuedAt = &at
		e.UpdatedAt = at
	})
}

func (r *ExportRepo) MarkProcessing(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return r.transition(id, activeExport, func(e *model.Export) {
		e.Status = model.StatusProcessing
		e.Job.Attempts++
		e.Job.StartedAt = &at
		e.UpdatedAt = at
	})
}

func (r *ExportRepo) RecordFailure(_ context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return r.transition(id, activeExport, func(e *model.Export) {
		e.Job.LastError = reason
		e.UpdatedAt = at
	})
}

func (r *ExportRepo) MarkCompleted(_ context.Context, id primitive.ObjectID, file repository.FileInfo, at time.Time) error {
	return r.transition(id, []model.Status{model.StatusProcessing}, func(e *model.Export) {
		e.Status = model.StatusCompleted
		e.FileURL, e.FileKey, e.FileSize = file.URL, file.Key, file.Size
		e.Job.FinishedAt = &at
		e.Job.LastError = ""
		e.UpdatedAt = at
	})
}

func (r *ExportRepo) MarkFailed(_ context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return r.transition(id, activeExport, func(e *model.Export) {
		e.Status = model.StatusFailed
		e.Job.FinishedAt = &at
		e.Job.LastError = reason
		e.UpdatedAt = at
	})
}

func (r *ExportRepo) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]*model.Export, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	out := r.t.filter(func(e *model.Export) bool {
		return e.Status == model.StatusPending && e.UpdatedAt.Before(cutoff)
	})
	sortStable(out, func(a, b *model.Export) bool { return a.UpdatedAt.Before(b.UpdatedAt) })
	return page(out, 0, limit), nil
}

// Backdate lùi updated_at của export (test requeue)
func (r *ExportRepo) Backdate(id primitive.ObjectID, by time.Duration) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if e, ok := r.t.get(id); ok {
		e.UpdatedAt = e.UpdatedAt.Add(-by)
		r.t.put(id, e)
	}
}
