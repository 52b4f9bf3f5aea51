package shared

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StringList validates a []string or *[]string: at most maxItems
// non-empty entries of at most maxLen characters each.
func StringList(maxItems, maxLen int) validation.RuleFunc {
	return func(value interface{}) error {
		var list []string
		switch v := value.(type) {
		case []string:
			list = v
		case *[]string:
			if v == nil {
				return nil
			}
			list = *v
		}
		return validation.Validate(list,
			validation.Length(0, maxItems),
			validation.Each(validation.Required, validation.Length(1, maxLen)),
		)
	}
}

// NonNil thay nil slice bằng slice rỗng để JSON luôn là []
func NonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

// OrderItem là một cặp (id, order) của reorder requests
type OrderItem struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

func (o OrderItem) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.ID, validation.Required),
		validation.Field(&o.Order, validation.Min(0)),
	)
}

// UniqueOrderIDs rejects reorder lists that mention an id twice
func UniqueOrderIDs(value interface{}) error {
	items, _ := value.([]OrderItem)
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("duplicate id %s", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}
