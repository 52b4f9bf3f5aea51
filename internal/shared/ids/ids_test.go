package ids

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared/apperror"
)

func TestParse(t *testing.T) {
	want := primitive.NewObjectID()
	got, err := Parse("id", want.Hex())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Parse("project_id", "nope")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Details, "project_id")
}

func TestParseManyAndHex(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	list, err := ParseMany("character_ids", []string{a.Hex(), b.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []string{a.Hex(), b.Hex()}, Hex(list))
	assert.True(t, Contains(list, b))

	_, err = ParseMany("character_ids", []string{a.Hex(), "bad"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	assert.NotNil(t, Hex(nil))
}

func TestValidationRules(t *testing.T) {
	assert.NoError(t, validation.Validate("", validation.By(IsValid)))
	assert.Error(t, validation.Validate("xyz", validation.By(IsValid)))
	assert.Error(t, validation.Validate([]string{"xyz"}, validation.By(AllValid)))
}

func TestValidationRulesAcceptPointers(t *testing.T) {
	bad := "xyz"
	assert.Error(t, IsValid(&bad))
	assert.NoError(t, IsValid((*string)(nil)))

	list := []string{"xyz"}
	assert.Error(t, AllValid(&list))
	assert.NoError(t, AllValid((*[]string)(nil)))
}
