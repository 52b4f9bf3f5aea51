package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/character/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/testutil"
	"storyforge-backend/pkg/database"
)

type fixture struct {
	svc     Service
	repo    *testutil.CharacterRepo
	project *projectModel.Project
	owner   shared.Caller
	viewer  shared.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	projects := testutil.NewProjectRepo()
	owner, viewer := primitive.NewObjectID(), primitive.NewObjectID()
	p := projects.Seed(owner, projectModel.Collaborator{UserID: viewer, Role: projectModel.RoleViewer})
	repo := testutil.NewCharacterRepo()

	return &fixture{
		svc:     NewService(repo, access.NewChecker(projects), database.SequentialTxManager{}),
		repo:    repo,
		project: p,
		owner:   shared.Caller{UserID: owner.Hex()},
		viewer:  shared.Caller{UserID: viewer.Hex()},
	}
}

func (f *fixture) create(t *testing.T, name string) *model.CharacterResponse {
	t.Helper()
	c, err := f.svc.Create(context.Background(), f.owner, &model.CreateCharacterRequest{
		ProjectID: f.project.ID.Hex(),
		Name:      name,
	})
	require.NoError(t, err)
	return c
}

func TestCreateGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	zed := f.create(t, "Zed")
	f.create(t, "alba")
	assert.Equal(t, model.RoleSupporting, zed.Role)
	assert.Empty(t, zed.Relationships)
	assert.NotNil(t, zed.Personality.Traits)

	got, err := f.svc.GetByID(ctx, f.viewer, &model.GetCharacterRequest{ProjectID: f.project.ID.Hex(), ID: zed.ID})
	require.NoError(t, err)
	assert.Equal(t, "Zed", got.Name)

	list, err := f.svc.List(ctx, f.viewer, &model.ListCharactersRequest{ProjectID: f.project.ID.Hex()})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alba", list[0].Name)

	_, err = f.svc.Create(ctx, f.viewer, &model.CreateCharacterRequest{ProjectID: f.project.ID.Hex(), Name: "Nope"})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestGetFromOtherProjectIsNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "Zed")

	_, err := f.svc.GetByID(context.Background(), f.owner, &model.GetCharacterRequest{
		ProjectID: f.project.ID.Hex(),
		ID:        primitive.NewObjectID().Hex(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.svc.GetByID(context.Background(), f.owner, &model.GetCharacterRequest{
		ProjectID: primitive.NewObjectID().Hex(),
		ID:        c.ID,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateEmptyPatchIsIdentity(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "Zed")

	updated, err := f.svc.Update(context.Background(), f.owner, &model.UpdateCharacterRequest{ProjectID: c.ProjectID, ID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, c.Name, updated.Name)
	assert.Equal(t, c.Role, updated.Role)
	assert.Equal(t, c.Physical, updated.Physical)
	assert.Equal(t, c.Personality, updated.Personality)
}

func TestRelationships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "Ana")
	b := f.create(t, "Ben")
	pid := f.project.ID.Hex()

	resp, err := f.svc.AddRelationship(ctx, f.owner, &model.AddRelationshipRequest{
		ProjectID: pid, ID: a.ID, TargetID: b.ID, Type: model.RelFamily, FamilyRelation: model.FamilySibling,
	})
	require.NoError(t, err)
	require.Len(t, resp.Relationships, 1)
	assert.Equal(t, model.RelStatusActive, resp.Relationships[0].Status)

	// duplicate → Conflict
	_, err = f.svc.AddRelationship(ctx, f.owner, &model.AddRelationshipRequest{
		ProjectID: pid, ID: a.ID, TargetID: b.ID, Type: model.RelFriend,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	// self → validation
	_, err = f.svc.AddRelationship(ctx, f.owner, &model.AddRelationshipRequest{
		ProjectID: pid, ID: a.ID, TargetID: a.ID, Type: model.RelFriend,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// self viết hoa vẫn là cùng một ObjectID
	_, err = f.svc.AddRelationship(ctx, f.owner, &model.AddRelationshipRequest{
		ProjectID: pid, ID: a.ID, TargetID: strings.ToUpper(a.ID), Type: model.RelFriend,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	got, err := f.svc.GetByID(ctx, f.owner, &model.GetCharacterRequest{ProjectID: pid, ID: a.ID})
	require.NoError(t, err)
	assert.Len(t, got.Relationships, 1)

	// target không thuộc project
	_, err = f.svc.AddRelationship(ctx, f.owner, &model.AddRelationshipRequest{
		ProjectID: pid, ID: a.ID, TargetID: primitive.NewObjectID().Hex(), Type: model.RelFriend,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	status := model.RelStatusStrained
	resp, err = f.svc.UpdateRelationship(ctx, f.owner, &model.UpdateRelationshipRequest{
		ProjectID: pid, ID: a.ID, TargetID: b.ID, Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RelStatusStrained, resp.Relationships[0].Status)
	assert.Equal(t, model.FamilySibling, resp.Relationships[0].FamilyRelation)

	rels, err := f.svc.GetRelationships(ctx, f.viewer, &model.GetRelationshipsRequest{ProjectID: pid, ID: a.ID})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Ben", rels[0].CharacterName)

	_, err = f.svc.RemoveRelationship(ctx, f.owner, &model.RemoveRelationshipRequest{ProjectID: pid, ID: a.ID, TargetID: b.ID})
	require.NoError(t, err)

	rels, err = f.svc.GetRelationships(ctx, f.owner, &model.GetRelationshipsRequest{ProjectID: pid, ID: a.ID})
	require.NoError(t, err)
	assert.Empty(t, rels)

	_, err = f.svc.RemoveRelationship(ctx, f.owner, &model.RemoveRelationshipRequest{ProjectID: pid, ID: a.ID, TargetID: b.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.svc.UpdateRelationship(ctx, f.owner, &model.UpdateRelationshipRequest{ProjectID: pid, ID: a.ID, TargetID: b.ID, Status: &status})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeleteRemovesDanglingRelationships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "Ana")
	b := f.create(t, "Ben")
	pid := f.project.ID.Hex()

	_, err := f.svc.AddRelationship(ctx, f.owner, &model.AddRelationshipRequest{ProjectID: pid, ID: a.ID, TargetID: b.ID, Type: model.RelRival})
	require.NoError(t, err)

	ack, err := f.svc.Delete(ctx, f.owner, &model.DeleteCharacterRequest{ProjectID: pid, ID: b.ID})
	require.NoError(t, err)
	assert.True(t, ack.Success)

	got, err := f.svc.GetByID(ctx, f.owner, &model.GetCharacterRequest{ProjectID: pid, ID: a.ID})
	require.NoError(t, err)
	assert.Empty(t, got.Relationships)

	_, err = f.svc.GetByID(ctx, f.owner, &model.GetCharacterRequest{ProjectID: pid, ID: b.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPossessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "Ana")
	sword := primitive.NewObjectID().Hex()
	req := &model.PossessionRequest{ProjectID: f.project.ID.Hex(), ID: a.ID, ObjectID: sword}

	resp, err := f.svc.AddPossession(ctx, f.owner, req)
	require.NoError(t, err)
	assert.Equal(t, []string{sword}, resp.Possessions)

	_, err = f.svc.AddPossession(ctx, f.owner, req)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	resp, err = f.svc.RemovePossession(ctx, f.owner, req)
	require.NoError(t, err)
	assert.Empty(t, resp.Possessions)

	_, err = f.svc.RemovePossession(ctx, f.owner, req)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
