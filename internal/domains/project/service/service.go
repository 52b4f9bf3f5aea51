package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/domains/project/repository"
	userModel "storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
	"storyforge-backend/pkg/database"
)

// Child là một collection con bị xóa theo project
type Child struct {
	Collection string
	Deleter    ChildDeleter
}

type projectService struct {
	repo     repository.Repository
	access   *access.Checker
	users    UserFinder
	tx       database.TxManager
	children []Child
	objects  ObjectRemover
	now      func() time.Time
}

func NewService(
	repo repository.Repository,
	checker *access.Checker,
	users UserFinder,
	tx database.TxManager,
	objects ObjectRemover,
	children ...Child,
) Service {
	return &projectService{
		repo:     repo,
		access:   checker,
		users:    users,
		tx:       tx,
		children: children,
		objects:  objects,
		now:      time.Now,
	}
}

// =====================================================
// CRUD
// =====================================================

func (s *projectService) Create(ctx context.Context, caller shared.Caller, req *model.CreateProjectRequest) (*model.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	ownerID, err := access.UserID(caller)
	if err != nil {
		return nil, err
	}

	req.SetDefaults()
	p := req.ToProject(ownerID, s.now())
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Internal("failed to create project", err)
	}

	log.Info().Str("project_id", p.ID.Hex()).Str("owner_id", ownerID.Hex()).Msg("Project created")
	return p.ToResponse(ownerID), nil
}

func (s *projectService) ListMine(ctx context.Context, caller shared.Caller, req *model.ListMyProjectsRequest) (*model.ProjectList, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	userID, err := access.UserID(caller)
	if err != nil {
		return nil, err
	}

	page := req.Pagination.Normalize()
	projects, total, err := s.repo.List(ctx, repository.ListFilter{
		UserID: userID,
		Status: req.Status,
		Scope:  req.Scope,
	}, page)
	if err != nil {
		return nil, apperror.Internal("failed to list projects", err)
	}

	items := make([]*model.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		items = append(items, p.ToResponse(userID))
	}
	return &model.ProjectList{Items: items, Meta: shared.NewPageMeta(page, total)}, nil
}

func (s *projectService) GetByID(ctx context.Context, caller shared.Caller, req *model.GetProjectRequest) (*model.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	return grant.Project.ToResponse(grant.UserID), nil
}

func (s *projectService) Update(ctx context.Context, caller shared.Caller, req *model.UpdateProjectRequest) (*model.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	p := grant.Project
	changed := req.ApplyTo(p)
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p, changed...); err != nil {
		return nil, mapRepoError(err)
	}
	return p.ToResponse(grant.UserID), nil
}

// Delete cascade: mọi resource con và project bị xóa trong một transaction,
// artefact trong object storage bị xóa sau khi commit
func (s *projectService) Delete(ctx context.Context, caller shared.Caller, req *model.DeleteProjectRequest) (*model.DeleteProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ID, access.LevelOwner)
	if err != nil {
		return nil, err
	}
	projectID := grant.Project.ID

	removed, err := database.WithTransactionResult(ctx, s.tx, func(ctx context.Context) (map[string]int64, error) {
		counts := make(map[string]int64, len(s.children))
		for _, child := range s.children {
			n, err := child.Deleter.DeleteByProject(ctx, projectID)
			if err != nil {
				return nil, err
			}
			counts[child.Collection] = n
		}
		if err := s.repo.Delete(ctx, projectID); err != nil {
			return nil, err
		}
		return counts, nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if s.objects != nil {
		if err := s.objects.DeleteByPrefix(ctx, model.ObjectPrefix(projectID)); err != nil {
			log.Warn().Err(err).Str("project_id", projectID.Hex()).Msg("Failed to delete project objects")
		}
	}

	log.Info().Str("project_id", projectID.Hex()).Interface("removed", removed).Msg("Project deleted")
	return &model.DeleteProjectResponse{Success: true, ID: projectID.Hex(), Removed: removed}, nil
}

// =====================================================
// COLLABORATORS
// =====================================================

func (s *projectService) AddCollaborator(ctx context.Context, caller shared.Caller, req *model.AddCollaboratorRequest) (*model.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelOwner)
	if err != nil {
		return nil, err
	}

	target, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, err
	}
	if grant.Project.IsOwner(target.ID) {
		return nil, apperror.BadRequest(model.ErrOwnerAsCollaborator.Error())
	}

	c := model.Collaborator{UserID: target.ID, Role: req.Role, AddedAt: s.now()}
	if err := s.repo.AddCollaborator(ctx, grant.Project.ID, c); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant)
}

func (s *projectService) RemoveCollaborator(ctx context.Context, caller shared.Caller, req *model.RemoveCollaboratorRequest) (*model.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelOwner)
	if err != nil {
		return nil, err
	}
	userID, err := ids.Parse("user_id", req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RemoveCollaborator(ctx, grant.Project.ID, userID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant)
}

func (s *projectService) UpdateCollaboratorRole(ctx context.Context, caller shared.Caller, req *model.UpdateCollaboratorRoleRequest) (*model.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelOwner)
	if err != nil {
		return nil, err
	}
	userID, err := ids.Parse("user_id", req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCollaboratorRole(ctx, grant.Project.ID, userID, req.Role); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant)
}

// =====================================================
// HELPERS
// =====================================================

func (s *projectService) resolveUser(ctx context.Context, req *model.AddCollaboratorRequest) (*userModel.User, error) {
	var (
		u   *userModel.User
		err error
	)
	if req.Email != "" {
		u, err = s.users.FindByEmail(ctx, userModel.NormalizeEmail(req.Email))
	} else {
		var id primitive.ObjectID
		if id, err = ids.Parse("user_id", req.UserID); err != nil {
			return nil, err
		}
		u, err = s.users.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, userModel.ErrUserNotFound) {
			return nil, apperror.NotFound("user", err)
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return u, nil
}

func (s *projectService) reload(ctx context.Context, grant *access.Grant) (*model.ProjectResponse, error) {
	p, err := s.repo.FindByID(ctx, grant.Project.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return p.ToResponse(grant.UserID), nil
}

func mapRepoError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrProjectNotFound):
		return apperror.NotFound("project", err)
	case errors.Is(err, model.ErrCollaboratorExists):
		return apperror.Conflict(model.ErrCollaboratorExists.Error(), err)
	case errors.Is(err, model.ErrCollaboratorNotFound):
		return apperror.NotFound("collaborator", err)
	}
	return apperror.Internal("project store failure", err)
}
