package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/plot/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/testutil"
)

type fixture struct {
	svc     Service
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

	return &fixture{
		svc:     NewService(testutil.NewPlotRepo(), access.NewChecker(projects)),
		project: p,
		owner:   shared.Caller{UserID: owner.Hex()},
		editor:  shared.Caller{UserID: editor.Hex()},
		viewer:  shared.Caller{UserID: viewer.Hex()},
	}
}

func (f *fixture) create(t *testing.T, elements ...model.ElementInput) *model.PlotResponse {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.owner, &model.CreatePlotRequest{
		ProjectID: f.project.ID.Hex(),
		Title:     "Main arc",
		Elements:  elements,
	})
	require.NoError(t, err)
	return p
}

func elementIDs(p *model.PlotResponse) []string {
	out := make([]string, 0, len(p.Elements))
	for _, e := range p.Elements {
		out = append(out, e.ID)
	}
	return out
}

func TestCreateThenGet(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, model.ElementInput{Type: model.ElementExposition, Title: "Opening"})
	assert.Equal(t, model.StructureThreeAct, created.StructureType)

	got, err := f.svc.GetByID(context.Background(), f.viewer, &model.GetPlotRequest{ProjectID: f.project.ID.Hex(), ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Elements, got.Elements)

	list, err := f.svc.List(context.Background(), f.viewer, &model.ListPlotsRequest{ProjectID: f.project.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAccessMatrix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &model.CreatePlotRequest{ProjectID: f.project.ID.Hex(), Title: "x"}

	_, err := f.svc.Create(ctx, shared.Anonymous, req)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = f.svc.Create(ctx, shared.Caller{UserID: primitive.NewObjectID().Hex()}, req)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.Create(ctx, f.viewer, req)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.Create(ctx, f.editor, req)
	assert.NoError(t, err)
}

func TestPlotPointLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plot := f.create(t,
		model.ElementInput{Type: model.ElementExposition, Title: "Opening"},
		model.ElementInput{Type: model.ElementClimax, Title: "Battle"},
	)

	added, err := f.svc.AddPlotPoint(ctx, f.editor, &model.AddPlotPointRequest{
		ProjectID:    f.project.ID.Hex(),
		ID:           plot.ID,
		ElementInput: model.ElementInput{Type: model.ElementResolution, Title: "Home"},
	})
	require.NoError(t, err)
	require.Len(t, added.Elements, 3)
	last := added.Elements[2]
	assert.Equal(t, "Home", last.Title)
	assert.Equal(t, 2, last.Order)

	updated, err := f.svc.UpdatePlotPoint(ctx, f.editor, &model.UpdatePlotPointRequest{
		ProjectID: f.project.ID.Hex(),
		ID:        plot.ID,
		PointID:   last.ID,
		Order:     ptrInt(0),
	})
	require.NoError(t, err)
	// cùng order 0 thì element cũ đứng trước
	assert.Equal(t, []string{plot.Elements[0].ID, last.ID, plot.Elements[1].ID}, elementIDs(updated))

	removed, err := f.svc.DeletePlotPoint(ctx, f.editor, &model.DeletePlotPointRequest{
		ProjectID: f.project.ID.Hex(), ID: plot.ID, PointID: last.ID,
	})
	require.NoError(t, err)
	assert.Len(t, removed.Elements, 2)

	_, err = f.svc.DeletePlotPoint(ctx, f.editor, &model.DeletePlotPointRequest{
		ProjectID: f.project.ID.Hex(), ID: plot.ID, PointID: last.ID,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func ptrInt(v int) *int { return &v }

func TestReorderReturnsSortedWithoutLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plot := f.create(t,
		model.ElementInput{Type: model.ElementExposition, Title: "A"},
		model.ElementInput{Type: model.ElementRisingAction, Title: "B"},
		model.ElementInput{Type: model.ElementClimax, Title: "C"},
	)
	a, b, c := plot.Elements[0].ID, plot.Elements[1].ID, plot.Elements[2].ID

	out, err := f.svc.ReorderPlotPoints(ctx, f.owner, &model.ReorderPlotPointsRequest{
		ProjectID: f.project.ID.Hex(),
		ID:        plot.ID,
		Items:     []shared.OrderItem{{ID: c, Order: 0}, {ID: a, Order: 1}, {ID: b, Order: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, elementIDs(out))

	got, err := f.svc.GetByID(ctx, f.viewer, &model.GetPlotRequest{ProjectID: f.project.ID.Hex(), ID: plot.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, elementIDs(got))

	_, err = f.svc.ReorderPlotPoints(ctx, f.owner, &model.ReorderPlotPointsRequest{
		ProjectID: f.project.ID.Hex(),
		ID:        plot.ID,
		Items:     []shared.OrderItem{{ID: "missing", Order: 0}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plot := f.create(t)

	same, err := f.svc.Update(ctx, f.owner, &model.UpdatePlotRequest{ProjectID: f.project.ID.Hex(), ID: plot.ID})
	require.NoError(t, err)
	assert.Equal(t, plot.Title, same.Title)
	assert.Equal(t, plot.StructureType, same.StructureType)

	title := "Second arc"
	changed, err := f.svc.Update(ctx, f.owner, &model.UpdatePlotRequest{ProjectID: f.project.ID.Hex(), ID: plot.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, changed.Title)

	_, err = f.svc.Delete(ctx, f.owner, &model.DeletePlotRequest{ProjectID: f.project.ID.Hex(), ID: plot.ID})
	require.NoError(t, err)

	_, err = f.svc.GetByID(ctx, f.owner, &model.GetPlotRequest{ProjectID: f.project.ID.Hex(), ID: plot.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
