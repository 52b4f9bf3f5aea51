package shared

import (
	"fmt"
	"strings"
)

// EnumStrings renders a closed enum as plain strings (OpenAPI, error messages)
func EnumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// OneOf validates v against a closed enum. Empty values pass; mark
// mandatory fields with validation.Required.
func OneOf[T ~string](v T, values []T) error {
	if v == "" {
		return nil
	}
	for _, allowed := range values {
		if v == allowed {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(EnumStrings(values), ", "))
}
