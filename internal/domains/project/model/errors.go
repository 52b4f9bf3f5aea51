package model

import "errors"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrCollaboratorExists   = errors.New("user is already a collaborator")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrOwnerAsCollaborator  = errors.New("project owner cannot be added as collaborator")
)
