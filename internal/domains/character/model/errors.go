package model

import "errors"

var (
	ErrCharacterNotFound    = errors.New("character not found")
	ErrRelationshipExists   = errors.New("relationship already exists")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrSelfRelationship     = errors.New("a character cannot be related to itself")
	ErrPossessionExists     = errors.New("object is already a possession")
	ErrPossessionNotFound   = errors.New("possession not found")
)
