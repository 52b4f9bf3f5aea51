package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

func TestCountWords(t *testing.T) {
	cases := map[string]int{
		"":                   0,
		"   ":                0,
		"Hello world":        2,
		"a  b\tc":            3,
		"line one\nline two": 4,
	}
	for in, want := range cases {
		assert.Equal(t, want, CountWords(in), "content %q", in)
	}
}

func TestToChapterDefaults(t *testing.T) {
	req := &CreateChapterRequest{ProjectID: primitive.NewObjectID().Hex(), Title: " One ", Content: "Hello world"}
	require.NoError(t, req.Validate())

	c, err := req.ToChapter(primitive.NewObjectID(), 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "One", c.Title)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, 2, c.WordCount)
	assert.Equal(t, 3, c.Position)
	assert.NotNil(t, c.Edits)
	assert.NotNil(t, c.PlotIDs)
}

func TestUpdateEmptyPatchIsIdentity(t *testing.T) {
	c := &Chapter{Title: "T", Position: 2, Content: "a b", WordCount: 2, Status: StatusFinal}
	before := *c

	req := &UpdateChapterRequest{}
	changed, err := req.ApplyTo(c)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.False(t, req.ContentChanged())
	assert.Equal(t, before, *c)
}

func TestUpdateContentRecomputesWordCount(t *testing.T) {
	c := &Chapter{Content: "Hello world", WordCount: 2}
	content := "Hello world again"
	req := &UpdateChapterRequest{Content: &content}

	changed, err := req.ApplyTo(c)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"content", "word_count"}, changed)
	assert.Equal(t, 3, c.WordCount)
	assert.Equal(t, DefaultEditNote, req.Note())
}

func TestPositions(t *testing.T) {
	a := &Chapter{ID: primitive.NewObjectID(), Position: 0}
	b := &Chapter{ID: primitive.NewObjectID(), Position: 1}
	c := &Chapter{ID: primitive.NewObjectID(), Position: 2}
	current := []*Chapter{a, b, c}

	next, err := Positions(current, []shared.OrderItem{{ID: a.ID.Hex(), Order: 2}, {ID: c.ID.Hex(), Order: 0}})
	require.NoError(t, err)
	assert.Equal(t, map[primitive.ObjectID]int{a.ID: 2, b.ID: 1, c.ID: 0}, next)

	_, err = Positions(current, []shared.OrderItem{{ID: a.ID.Hex(), Order: 1}})
	assert.ErrorIs(t, err, ErrPositionTaken)

	_, err = Positions(current, []shared.OrderItem{{ID: primitive.NewObjectID().Hex(), Order: 9}})
	assert.ErrorIs(t, err, ErrChapterNotFound)
}

func TestReorderRequestValidation(t *testing.T) {
	pid := primitive.NewObjectID().Hex()
	assert.Error(t, (&ReorderChaptersRequest{ProjectID: pid}).Validate())
	assert.Error(t, (&ReorderChaptersRequest{ProjectID: pid, Items: []shared.OrderItem{{ID: "a", Order: 1}, {ID: "b", Order: 1}}}).Validate())
	assert.NoError(t, (&ReorderChaptersRequest{ProjectID: pid, Items: []shared.OrderItem{{ID: "a", Order: 1}, {ID: "b", Order: 0}}}).Validate())
}

func TestToResponseOmitsContentWhenAsked(t *testing.T) {
	c := &Chapter{Content: "secret"}
	assert.Nil(t, c.ToResponse(false).Content)
	require.NotNil(t, c.ToResponse(true).Content)
	assert.Equal(t, "secret", *c.ToResponse(true).Content)
}
