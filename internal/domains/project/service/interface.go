package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/project/model"
	userModel "storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/shared"
)

type Service interface {
	Create(ctx context.Context, caller shared.Caller, req *model.CreateProjectRequest) (*model.ProjectResponse, error)
	ListMine(ctx context.Context, caller shared.Caller, req *model.ListMyProjectsRequest) (*model.ProjectList, error)
	GetByID(ctx context.Context, caller shared.Caller, req *model.GetProjectRequest) (*model.ProjectResponse, error)
	Update(ctx context.Context, caller shared.Caller, req *model.UpdateProjectRequest) (*model.ProjectResponse, error)
	Delete(ctx context.Context, caller shared.Caller, req *model.DeleteProjectRequest) (*model.DeleteProjectResponse, error)

	AddCollaborator(ctx context.Context, caller shared.Caller, req *model.AddCollaboratorRequest) (*model.ProjectResponse, error)
	RemoveCollaborator(ctx context.Context, caller shared.Caller, req *model.RemoveCollaboratorRequest) (*model.ProjectResponse, error)
	UpdateCollaboratorRole(ctx context.Context, caller shared.Caller, req *model.UpdateCollaboratorRoleRequest) (*model.ProjectResponse, error)
}

// UserFinder resolve collaborator theo id hoặc email
type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*userModel.User, error)
	FindByEmail(ctx context.Context, email string) (*userModel.User, error)
}

// ChildDeleter được implement bởi repository của mọi resource con;
// project delete cascade gọi lần lượt trong một transaction
type ChildDeleter interface {
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

// ObjectRemover xóa artefact (exports, generated images) của project
type ObjectRemover interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}
