package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/chapter/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/testutil"
	"storyforge-backend/pkg/database"
)

type fixture struct {
	svc     Service
	repo    *testutil.ChapterRepo
	project *projectModel.Project
	owner   shared.Caller
	editor  shared.Caller
	viewer  shared.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	projects := testutil.NewProjectRepo()
	owner, editor, viewer := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p := projects.Seed(owner,
		projectModel.Collaborator{UserID: editor, Role: projectModel.RoleEditor},
		projectModel.Collaborator{UserID: viewer, Role: projectModel.RoleViewer},
	)
	repo := testutil.NewChapterRepo()

	return &fixture{
		svc:     NewService(repo, access.NewChecker(projects), database.SequentialTxManager{}),
		repo:    repo,
		project: p,
		owner:   shared.Caller{UserID: owner.Hex()},
		editor:  shared.Caller{UserID: editor.Hex()},
		viewer:  shared.Caller{UserID: viewer.Hex()},
	}
}

func (f *fixture) create(t *testing.T, title, content string) *model.ChapterResponse {
	t.Helper()
	c, err := f.svc.Create(context.Background(), f.owner, &model.CreateChapterRequest{
		ProjectID: f.project.ID.Hex(),
		Title:     title,
		Content:   content,
	})
	require.NoError(t, err)
	return c
}

func titles(list []*model.ChapterResponse) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Title)
	}
	return out
}

func TestCreateAssignsNextPosition(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "One", "Hello world")
	second := f.create(t, "Two", "")

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, 2, first.WordCount)
	assert.Equal(t, model.StatusDraft, first.Status)

	pos := 1
	_, err := f.svc.Create(context.Background(), f.owner, &model.CreateChapterRequest{
		ProjectID: f.project.ID.Hex(), Title: "Dup", Position: &pos,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestUpdateContentAppendsEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "One", "Hello world")
	assert.Empty(t, c.Edits)

	content := "Hello world again"
	updated, err := f.svc.Update(ctx, f.editor, &model.UpdateChapterRequest{
		ProjectID: f.project.ID.Hex(), ID: c.ID, Content: &content,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.WordCount)
	require.Len(t, updated.Edits, 1)
	assert.Equal(t, f.editor.UserID, updated.Edits[0].EditorID)

	// đổi title không tạo edit
	title := "Renamed"
	updated, err = f.svc.Update(ctx, f.editor, &model.UpdateChapterRequest{
		ProjectID: f.project.ID.Hex(), ID: c.ID, Title: &title,
	})
	require.NoError(t, err)
	assert.Len(t, updated.Edits, 1)

	updated, err = f.svc.UpdateContent(ctx, f.owner, &model.UpdateContentRequest{
		ProjectID: f.project.ID.Hex(), ID: c.ID, Content: "", Note: "cleared",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.WordCount)

	got, err := f.svc.GetByID(ctx, f.viewer, &model.GetChapterRequest{ProjectID: f.project.ID.Hex(), ID: c.ID})
	require.NoError(t, err)
	require.Len(t, got.Edits, 2)
	assert.Equal(t, "cleared", got.Edits[1].Note)
	assert.Equal(t, "Renamed", got.Title)
}

func TestViewerCannotWrite(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "One", "")

	_, err := f.svc.AddEdit(context.Background(), f.viewer, &model.AddEditRequest{
		ProjectID: f.project.ID.Hex(), ID: c.ID, Note: "hi",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	out, err := f.svc.AddEdit(context.Background(), f.editor, &model.AddEditRequest{
		ProjectID: f.project.ID.Hex(), ID: c.ID, Note: "proofread",
	})
	require.NoError(t, err)
	assert.Len(t, out.Edits, 1)
}

func TestReorderReturnsSortedWithoutLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "A", "x")
	b := f.create(t, "B", "y")
	c := f.create(t, "C", "z")

	out, err := f.svc.Reorder(ctx, f.owner, &model.ReorderChaptersRequest{
		ProjectID: f.project.ID.Hex(),
		Items: []shared.OrderItem{
			{ID: c.ID, Order: 0},
			{ID: a.ID, Order: 1},
			{ID: b.ID, Order: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, titles(out))
	assert.Nil(t, out[0].Content)

	list, err := f.svc.List(ctx, f.viewer, &model.ListChaptersRequest{ProjectID: f.project.ID.Hex(), IncludeContent: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, titles(list))
	require.NotNil(t, list[0].Content)
	assert.Equal(t, "z", *list[0].Content)
}

func TestReorderRejectsCollisionsAndUnknownIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "A", "")
	f.create(t, "B", "")

	_, err := f.svc.Reorder(ctx, f.owner, &model.ReorderChaptersRequest{
		ProjectID: f.project.ID.Hex(),
		Items:     []shared.OrderItem{{ID: a.ID, Order: 1}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = f.svc.Reorder(ctx, f.owner, &model.ReorderChaptersRequest{
		ProjectID: f.project.ID.Hex(),
		Items:     []shared.OrderItem{{ID: primitive.NewObjectID().Hex(), Order: 5}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestReorderStoreFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "")
	id, _ := primitive.ObjectIDFromHex(a.ID)
	f.repo.FailPositionFor = id

	_, err := f.svc.Reorder(context.Background(), f.owner, &model.ReorderChaptersRequest{
		ProjectID: f.project.ID.Hex(),
		Items:     []shared.OrderItem{{ID: a.ID, Order: 4}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "A", "")

	ack, err := f.svc.Delete(ctx, f.owner, &model.DeleteChapterRequest{ProjectID: f.project.ID.Hex(), ID: c.ID})
	require.NoError(t, err)
	assert.True(t, ack.Success)

	_, err = f.svc.GetByID(ctx, f.owner, &model.GetChapterRequest{ProjectID: f.project.ID.Hex(), ID: c.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
