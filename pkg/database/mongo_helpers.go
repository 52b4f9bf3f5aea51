package database

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetOf builds a $set document containing only the given top-level
// fields of doc, so concurrent updates to other fields are not clobbered.
func SetOf(doc interface{}, fields ...string) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var full bson.M
	if err := bson.Unmarshal(raw, &full); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	set := bson.M{}
	for _, f := range fields {
		if v, ok := full[f]; ok {
			set[f] = v
		} else {
			// omitempty field cleared by the patch
			set[f] = nil
		}
	}
	return set, nil
}

// IsNotFound reports whether err is mongo.ErrNoDocuments.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// DuplicateKeyField extracts the index name of a duplicate key error
// ("email_1"), empty if err is not one.
func DuplicateKeyField(err error) string {
	if !mongo.IsDuplicateKeyError(err) {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "index: "); i >= 0 {
		rest := msg[i+len("index: "):]
		if j := strings.IndexByte(rest, ' '); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return "unknown"
}
