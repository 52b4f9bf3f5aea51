package shared

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
)

func TestStringList(t *testing.T) {
	rule := validation.By(StringList(2, 5))

	assert.NoError(t, validation.Validate([]string{"a", "bb"}, rule))
	assert.Error(t, validation.Validate([]string{"a", "b", "c"}, rule))
	assert.Error(t, validation.Validate([]string{"toolong"}, rule))
	assert.Error(t, validation.Validate([]string{""}, rule))

	var nilPtr *[]string
	assert.NoError(t, validation.Validate(nilPtr, rule))
}

func TestOrderItems(t *testing.T) {
	items := []OrderItem{{ID: "a", Order: 0}, {ID: "b", Order: 1}}
	assert.NoError(t, validation.Validate(items, validation.By(UniqueOrderIDs)))

	items = append(items, OrderItem{ID: "a", Order: 2})
	assert.Error(t, validation.Validate(items, validation.By(UniqueOrderIDs)))

	assert.Error(t, OrderItem{ID: "a", Order: -1}.Validate())
	assert.Equal(t, []int{}, NonNil[int](nil))
}
