// Package ids converts between public string ids and MongoDB ObjectIDs.
package ids

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared/apperror"
)

// Parse decodes a hex id. field names the input field in the validation error.
func Parse(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("validation failed", map[string]string{
			field: "must be a valid id",
		})
	}
	return id, nil
}

// ParseMany decodes a list of hex ids. Nil input yields an empty slice.
func ParseMany(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for i, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, apperror.Validation("validation failed", map[string]string{
				fmt.Sprintf("%s.%d", field, i): "must be a valid id",
			})
		}
		out = append(out, id)
	}
	return out, nil
}

// Hex renders a list of ids as strings, never nil.
func Hex(list []primitive.ObjectID) []string {
	out := make([]string, 0, len(list))
	for _, id := range list {
		out = append(out, id.Hex())
	}
	return out
}

// IsValid is an ozzo-validation compatible check for hex ids.
func IsValid(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v != nil {
			s = *v
		}
	}
	if s == "" {
		return nil
	}
	if !primitive.IsValidObjectID(s) {
		return fmt.Errorf("must be a valid id")
	}
	return nil
}

// AllValid checks every element of a []string (or *[]string).
func AllValid(value interface{}) error {
	var list []string
	switch v := value.(type) {
	case []string:
		list = v
	case *[]string:
		if v != nil {
			list = *v
		}
	}
	for _, s := range list {
		if !primitive.IsValidObjectID(s) {
			return fmt.Errorf("must contain only valid ids")
		}
	}
	return nil
}

// Contains reports whether id is in list.
func Contains(list []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
