package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	chapterModel "storyforge-backend/internal/domains/chapter/model"
	"storyforge-backend/internal/domains/export/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/testutil"
)

// reentrantStore chạy hook một lần ngay sau upload đầu tiên, mô phỏng task
// trùng chạy xen giữa upload và complete
type reentrantStore struct {
	*testutil.ObjectStore
	hook func()
}

func (s *reentrantStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	url, err := s.ObjectStore.Upload(ctx, key, data, contentType)
	if hook := s.hook; hook != nil {
		s.hook = nil
		hook()
	}
	return url, err
}

type fixture struct {
	svc       Service
	processor *Processor
	repo      *testutil.ExportRepo
	chapters  *testutil.ChapterRepo
	objects   *testutil.ObjectStore
	queue     *testutil.Enqueuer
	project   *projectModel.Project
	owner     shared.Caller
	viewer    shared.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	projects := testutil.NewProjectRepo()
	owner, viewer := primitive.NewObjectID(), primitive.NewObjectID()
	p := projects.Seed(owner, projectModel.Collaborator{UserID: viewer, Role: projectModel.RoleViewer})

	f := &fixture{
		repo:     testutil.NewExportRepo(),
		chapters: testutil.NewChapterRepo(),
		objects:  testutil.NewObjectStore(),
		queue:    &testutil.Enqueuer{},
		project:  p,
		owner:    shared.Caller{UserID: owner.Hex()},
		viewer:   shared.Caller{UserID: viewer.Hex()},
	}
	f.svc = NewService(f.repo, access.NewChecker(projects), f.chapters, f.queue, f.objects, Options{
		ProcessDelay: 5 * time.Second,
		DownloadTTL:  15 * time.Minute,
	})
	f.processor = NewProcessor(f.repo, f.objects, f.queue)
	return f
}

func (f *fixture) seedChapter(t *testing.T, projectID primitive.ObjectID, position int) primitive.ObjectID {
	t.Helper()
	c := &chapterModel.Chapter{ProjectID: projectID, Title: "c", Position: position}
	require.NoError(t, f.chapters.Create(context.Background(), c))
	return c.ID
}

func (f *fixture) create(t *testing.T, cfg model.ConfigInput) *model.ExportResponse {
	t.Helper()
	out, err := f.svc.Create(context.Background(), f.owner, &model.CreateExportRequest{
		ProjectID: f.project.ID.Hex(),
		Format:    model.FormatPDF,
		Config:    cfg,
	})
	require.NoError(t, err)
	return out
}

func TestCreateDefaultsToAllChaptersByPosition(t *testing.T) {
	f := newFixture(t)
	second := f.seedChapter(t, f.project.ID, 1)
	first := f.seedChapter(t, f.project.ID, 0)

	out := f.create(t, model.ConfigInput{})
	assert.Equal(t, model.StatusPending, out.Status)
	assert.Equal(t, []string{first.Hex(), second.Hex()}, out.Config.ChapterIDs)
	assert.Equal(t, "task-1", out.Job.TaskID)
	assert.NotNil(t, out.Job.EnqueuedAt)

	require.Len(t, f.queue.Tasks, 1)
	assert.Equal(t, out.ID, f.queue.Tasks[0].ExportID)
	assert.Equal(t, 5*time.Second, f.queue.Tasks[0].Delay)
}

func TestCreateRejectsForeignChapter(t *testing.T) {
	f := newFixture(t)
	f.seedChapter(t, f.project.ID, 0)
	foreign := f.seedChapter(t, primitive.NewObjectID(), 0)

	_, err := f.svc.Create(context.Background(), f.owner, &model.CreateExportRequest{
		ProjectID: f.project.ID.Hex(),
		Format:    model.FormatHTML,
		Config:    model.ConfigInput{ChapterIDs: []string{foreign.Hex()}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
}

func TestViewerCanReadButNotCreate(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, model.ConfigInput{})

	_, err := f.svc.Create(context.Background(), f.viewer, &model.CreateExportRequest{
		ProjectID: f.project.ID.Hex(), Format: model.FormatPDF,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	list, err := f.svc.List(context.Background(), f.viewer, &model.ListExportsRequest{ProjectID: f.project.ID.Hex()})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)
	assert.Equal(t, int64(1), list.Meta.Total)
}

func TestGenerateCompletesAndDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.create(t, model.ConfigInput{})
	req := &model.DownloadExportRequest{ProjectID: f.project.ID.Hex(), ID: out.ID}

	_, err := f.svc.Download(ctx, f.viewer, req)
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))

	id, _ := primitive.ObjectIDFromHex(out.ID)
	require.NoError(t, f.processor.Generate(ctx, id, false))

	got, err := f.svc.GetByID(ctx, f.viewer, &model.GetExportRequest{ProjectID: f.project.ID.Hex(), ID: out.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.Job.Attempts)
	assert.Positive(t, got.FileSize)

	keys := f.objects.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], projectModel.ObjectPrefix(f.project.ID)+"exports/"+out.ID))

	dl, err := f.svc.Download(ctx, f.viewer, req)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, keys[0])
	assert.Equal(t, model.FormatPDF, dl.Format)

	got, err = f.svc.GetByID(ctx, f.viewer, &model.GetExportRequest{ProjectID: f.project.ID.Hex(), ID: out.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, got.DownloadCount)

	// chạy lại task sau khi completed là no-op
	require.NoError(t, f.processor.Generate(ctx, id, false))
	assert.Len(t, f.objects.Keys(), 1)
}

func TestGenerateRetryThenFail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.create(t, model.ConfigInput{})
	id, _ := primitive.ObjectIDFromHex(out.ID)
	f.objects.FailUploads = errors.New("minio down")

	assert.Error(t, f.processor.Generate(ctx, id, false))
	e, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, e.Status)
	assert.Equal(t, "minio down", e.Job.LastError)

	assert.Error(t, f.processor.Generate(ctx, id, true))
	e, err = f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, e.Status)
	assert.Equal(t, 2, e.Job.Attempts)
}

func TestGenerateMissingExportIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.processor.Generate(context.Background(), primitive.NewObjectID(), false))
}

func TestEnqueueFailureLeavesPendingForRequeue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.queue.Err = errors.New("redis down")

	out := f.create(t, model.ConfigInput{})
	assert.Equal(t, model.StatusPending, out.Status)
	assert.Empty(t, out.Job.TaskID)

	id, _ := primitive.ObjectIDFromHex(out.ID)
	f.queue.Err = nil

	n, err := f.processor.RequeueStale(ctx, 10*time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.repo.Backdate(id, time.Hour)
	n, err = f.processor.RequeueStale(ctx, 10*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.queue.Tasks, 1)
	assert.Equal(t, out.ID, f.queue.Tasks[0].ExportID)
}

func TestDeleteRemovesFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.create(t, model.ConfigInput{})
	id, _ := primitive.ObjectIDFromHex(out.ID)
	require.NoError(t, f.processor.Generate(ctx, id, false))
	require.Len(t, f.objects.Keys(), 1)

	_, err := f.svc.Delete(ctx, f.owner, &model.DeleteExportRequest{ProjectID: f.project.ID.Hex(), ID: out.ID})
	require.NoError(t, err)
	assert.Empty(t, f.objects.Keys())

	_, err = f.svc.GetByID(ctx, f.owner, &model.GetExportRequest{ProjectID: f.project.ID.Hex(), ID: out.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	// worker nhận task của export đã xóa
	assert.NoError(t, f.processor.Generate(ctx, id, false))
}

func TestDuplicateGenerateKeepsCompletedFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.create(t, model.ConfigInput{})
	id, _ := primitive.ObjectIDFromHex(out.ID)

	store := &reentrantStore{ObjectStore: f.objects}
	processor := NewProcessor(f.repo, store, f.queue)
	store.hook = func() {
		// task requeue chạy xong trước task gốc
		require.NoError(t, processor.Generate(ctx, id, false))
	}
	require.NoError(t, processor.Generate(ctx, id, false))

	e, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, e.Status)
	require.NotEmpty(t, e.FileKey)
	assert.Equal(t, []string{e.FileKey}, f.objects.Keys())

	dl, err := f.svc.Download(ctx, f.viewer, &model.DownloadExportRequest{ProjectID: f.project.ID.Hex(), ID: out.ID})
	require.NoError(t, err)
	assert.Contains(t, dl.URL, e.FileKey)
}

func TestExportDeletedDuringUploadDropsFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.create(t, model.ConfigInput{})
	id, _ := primitive.ObjectIDFromHex(out.ID)

	store := &reentrantStore{ObjectStore: f.objects}
	processor := NewProcessor(f.repo, store, f.queue)
	store.hook = func() {
		require.NoError(t, f.repo.Delete(ctx, f.project.ID, id))
	}
	require.NoError(t, processor.Generate(ctx, id, false))
	assert.Empty(t, f.objects.Keys())
}
