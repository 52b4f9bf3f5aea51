package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type doc struct {
	Title string   `bson:"title"`
	Notes string   `bson:"notes,omitempty"`
	Tags  []string `bson:"tags"`
}

func TestSetOfPicksOnlyRequestedFields(t *testing.T) {
	set, err := SetOf(doc{Title: "T", Tags: []string{"a"}}, "title", "notes")
	require.NoError(t, err)

	assert.Equal(t, "T", set["title"])
	assert.Contains(t, set, "notes")
	assert.Nil(t, set["notes"])
	assert.NotContains(t, set, "tags")
}

func TestDuplicateKeyField(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: storyforge.users index: email_1 dup key: { email: "a@b.c" }`,
	}}}
	assert.Equal(t, "email_1", DuplicateKeyField(err))
	assert.Empty(t, DuplicateKeyField(errors.New("other")))
	assert.True(t, IsNotFound(mongo.ErrNoDocuments))
	_ = bson.M{}
}
