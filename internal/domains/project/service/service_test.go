package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/project/model"
	userModel "storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/testutil"
	"storyforge-backend/pkg/database"
)

type childFunc func(ctx context.Context, projectID primitive.ObjectID) (int64, error)

func (f childFunc) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return f(ctx, projectID)
}

type fixture struct {
	svc     Service
	repo    *testutil.ProjectRepo
	users   *testutil.UserRepo
	objects *testutil.ObjectStore
	owner   *userModel.User
	deleted []primitive.ObjectID
}

func newFixture(t *testing.T, children ...Child) *fixture {
	t.Helper()
	f := &fixture{
		repo:    testutil.NewProjectRepo(),
		users:   testutil.NewUserRepo(),
		objects: testutil.NewObjectStore(),
	}
	f.owner = f.addUser(t, "owner@example.com", "owner")

	if children == nil {
		children = []Child{{Collection: "chapters", Deleter: childFunc(func(_ context.Context, id primitive.ObjectID) (int64, error) {
			f.deleted = append(f.deleted, id)
			return 2, nil
		})}}
	}
	f.svc = NewService(f.repo, access.NewChecker(f.repo), f.users, database.SequentialTxManager{}, f.objects, children...)
	return f
}

func (f *fixture) addUser(t *testing.T, email, username string) *userModel.User {
	t.Helper()
	u := &userModel.User{Email: email, Username: username, CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func as(u *userModel.User) shared.Caller {
	return shared.Caller{UserID: u.ID.Hex(), Email: u.Email}
}

func (f *fixture) create(t *testing.T, title string) *model.ProjectResponse {
	t.Helper()
	p, err := f.svc.Create(context.Background(), as(f.owner), &model.CreateProjectRequest{Title: title, Genre: model.GenreFantasy})
	require.NoError(t, err)
	return p
}

func TestCreateThenGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, "Saga")
	assert.Equal(t, model.StatusDraft, created.Status)
	assert.Equal(t, model.RoleOwner, created.MyRole)

	got, err := f.svc.GetByID(ctx, as(f.owner), &model.GetProjectRequest{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.OwnerID, got.OwnerID)

	_, err = f.svc.Create(ctx, shared.Anonymous, &model.CreateProjectRequest{Title: "Nope"})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestUpdateEmptyPatchKeepsFields(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "Saga")

	updated, err := f.svc.Update(context.Background(), as(f.owner), &model.UpdateProjectRequest{ID: created.ID})
	require.NoError(t, err)

	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Genre, updated.Genre)
	assert.Equal(t, created.Status, updated.Status)
	assert.Equal(t, created.Tags, updated.Tags)
}

func TestListMineScopesAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.addUser(t, "other@example.com", "other")

	f.create(t, "Mine")
	theirs, err := f.svc.Create(ctx, as(other), &model.CreateProjectRequest{Title: "Theirs", Status: model.StatusInProgress})
	require.NoError(t, err)
	_, err = f.svc.AddCollaborator(ctx, as(other), &model.AddCollaboratorRequest{ProjectID: theirs.ID, UserID: f.owner.ID.Hex(), Role: model.RoleViewer})
	require.NoError(t, err)

	all, err := f.svc.ListMine(ctx, as(f.owner), &model.ListMyProjectsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, int64(2), all.Meta.Total)

	owned, err := f.svc.ListMine(ctx, as(f.owner), &model.ListMyProjectsRequest{Scope: model.ScopeOwned})
	require.NoError(t, err)
	require.Len(t, owned.Items, 1)
	assert.Equal(t, "Mine", owned.Items[0].Title)

	inProgress, err := f.svc.ListMine(ctx, as(f.owner), &model.ListMyProjectsRequest{Status: model.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, inProgress.Items, 1)
	assert.Equal(t, model.RoleViewer, inProgress.Items[0].MyRole)
}

func TestCollaboratorLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.addUser(t, "bob@example.com", "bob")
	p := f.create(t, "Saga")

	// viewer chưa có quyền write
	resp, err := f.svc.AddCollaborator(ctx, as(f.owner), &model.AddCollaboratorRequest{ProjectID: p.ID, Email: "BOB@example.com", Role: model.RoleViewer})
	require.NoError(t, err)
	require.Len(t, resp.Collaborators, 1)

	title := "Bob's edit"
	_, err = f.svc.Update(ctx, as(bob), &model.UpdateProjectRequest{ID: p.ID, Title: &title})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.AddCollaborator(ctx, as(f.owner), &model.AddCollaboratorRequest{ProjectID: p.ID, UserID: bob.ID.Hex(), Role: model.RoleEditor})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = f.svc.UpdateCollaboratorRole(ctx, as(f.owner), &model.UpdateCollaboratorRoleRequest{ProjectID: p.ID, UserID: bob.ID.Hex(), Role: model.RoleEditor})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, as(bob), &model.UpdateProjectRequest{ID: p.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	// editor không quản lý được collaborators
	_, err = f.svc.RemoveCollaborator(ctx, as(bob), &model.RemoveCollaboratorRequest{ProjectID: p.ID, UserID: bob.ID.Hex()})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.RemoveCollaborator(ctx, as(f.owner), &model.RemoveCollaboratorRequest{ProjectID: p.ID, UserID: bob.ID.Hex()})
	require.NoError(t, err)

	_, err = f.svc.RemoveCollaborator(ctx, as(f.owner), &model.RemoveCollaboratorRequest{ProjectID: p.ID, UserID: bob.ID.Hex()})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.svc.GetByID(ctx, as(bob), &model.GetProjectRequest{ID: p.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestAddCollaboratorErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "Saga")

	_, err := f.svc.AddCollaborator(ctx, as(f.owner), &model.AddCollaboratorRequest{ProjectID: p.ID, UserID: f.owner.ID.Hex(), Role: model.RoleEditor})
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))

	_, err = f.svc.AddCollaborator(ctx, as(f.owner), &model.AddCollaboratorRequest{ProjectID: p.ID, Email: "ghost@example.com", Role: model.RoleEditor})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "Saga")
	pid, _ := primitive.ObjectIDFromHex(p.ID)
	_, err := f.objects.Upload(ctx, model.ObjectPrefix(pid)+"exports/a.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)

	resp, err := f.svc.Delete(ctx, as(f.owner), &model.DeleteProjectRequest{ID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Removed["chapters"])
	assert.Equal(t, []primitive.ObjectID{pid}, f.deleted)
	assert.Empty(t, f.objects.Keys())

	_, err = f.svc.GetByID(ctx, as(f.owner), &model.GetProjectRequest{ID: p.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeleteAbortsWhenChildFails(t *testing.T) {
	f := newFixture(t, Child{Collection: "chapters", Deleter: childFunc(func(context.Context, primitive.ObjectID) (int64, error) {
		return 0, errors.New("boom")
	})})
	ctx := context.Background()
	p := f.create(t, "Saga")

	_, err := f.svc.Delete(ctx, as(f.owner), &model.DeleteProjectRequest{ID: p.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindInternal))

	_, err = f.svc.GetByID(ctx, as(f.owner), &model.GetProjectRequest{ID: p.ID})
	assert.NoError(t, err)
}

func TestOnlyOwnerDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ed := f.addUser(t, "ed@example.com", "ed")
	p := f.create(t, "Saga")
	_, err := f.svc.AddCollaborator(ctx, as(f.owner), &model.AddCollaboratorRequest{ProjectID: p.ID, UserID: ed.ID.Hex(), Role: model.RoleEditor})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, as(ed), &model.DeleteProjectRequest{ID: p.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}
