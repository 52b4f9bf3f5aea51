// Package access decides whether a caller may read, write or administer
// a project. Every call re-reads the project; nothing is cached.
package access

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
)

type Level int

const (
	// LevelRead: owner hoặc bất kỳ collaborator nào
	LevelRead Level = iota
	// LevelWrite: owner hoặc editor
	LevelWrite
	// LevelOwner: chỉ owner (xóa project, quản lý collaborators)
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelWrite:
		return "write"
	case LevelOwner:
		return "owner"
	default:
		return "read"
	}
}

// ProjectFinder là phần của project repository mà checker cần
type ProjectFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Project, error)
}

type Checker struct {
	projects ProjectFinder
}

func NewChecker(projects ProjectFinder) *Checker {
	return &Checker{projects: projects}
}

// Grant là kết quả của một lần authorize thành công
type Grant struct {
	Project *model.Project
	UserID  primitive.ObjectID
}

// Authorize: caller phải đăng nhập, project phải tồn tại, role phải đủ level
func (c *Checker) Authorize(ctx context.Context, caller shared.Caller, projectID string, level Level) (*Grant, error) {
	userID, err := UserID(caller)
	if err != nil {
		return nil, err
	}

	pid, err := ids.Parse("project_id", projectID)
	if err != nil {
		return nil, err
	}

	project, err := c.projects.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			return nil, apperror.NotFound("project", err)
		}
		return nil, apperror.Internal("failed to load project", err)
	}

	if !Allowed(project, userID, level) {
		return nil, apperror.Forbidden("you do not have " + level.String() + " access to this project")
	}

	return &Grant{Project: project, UserID: userID}, nil
}

// Allowed là access matrix thuần, không đụng store
func Allowed(p *model.Project, userID primitive.ObjectID, level Level) bool {
	isOwner := p.IsOwner(userID)
	collab := p.Collaborator(userID)
	isCollaborator := collab != nil
	isEditor := isCollaborator && collab.Role == model.RoleEditor

	switch level {
	case LevelRead:
		return isOwner || isCollaborator
	case LevelWrite:
		return isOwner || isEditor
	case LevelOwner:
		return isOwner
	}
	return false
}

// UserID resolve caller → ObjectID; anonymous → Unauthorized
func UserID(caller shared.Caller) (primitive.ObjectID, error) {
	if !caller.IsAuthenticated() {
		return primitive.NilObjectID, apperror.Unauthorized("authentication required")
	}
	id, err := primitive.ObjectIDFromHex(caller.UserID)
	if err != nil {
		return primitive.NilObjectID, apperror.Unauthorized("invalid caller identity")
	}
	return id, nil
}
