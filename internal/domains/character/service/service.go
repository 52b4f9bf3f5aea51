package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/character/model"
	"storyforge-backend/internal/domains/character/repository"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
	"storyforge-backend/pkg/database"
)

type characterService struct {
	repo   repository.Repository
	access *access.Checker
	tx     database.TxManager
	now    func() time.Time
}

func NewService(repo repository.Repository, checker *access.Checker, tx database.TxManager) Service {
	return &characterService{repo: repo, access: checker, tx: tx, now: time.Now}
}

// =====================================================
// CRUD
// =====================================================

func (s *characterService) Create(ctx context.Context, caller shared.Caller, req *model.CreateCharacterRequest) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	c := req.ToCharacter(grant.Project.ID, s.now())
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperror.Internal("failed to create character", err)
	}
	return c.ToResponse(), nil
}

func (s *characterService) List(ctx context.Context, caller shared.Caller, req *model.ListCharactersRequest) ([]*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelRead)
	if err != nil {
		return nil, err
	}

	chars, err := s.repo.List(ctx, grant.Project.ID, repository.ListFilter{Role: req.Role, Search: req.Search})
	if err != nil {
		return nil, apperror.Internal("failed to list characters", err)
	}
	out := make([]*model.CharacterResponse, 0, len(chars))
	for _, c := range chars {
		out = append(out, c.ToResponse())
	}
	return out, nil
}

func (s *characterService) GetByID(ctx context.Context, caller shared.Caller, req *model.GetCharacterRequest) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	_, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	return c.ToResponse(), nil
}

func (s *characterService) Update(ctx context.Context, caller shared.Caller, req *model.UpdateCharacterRequest) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	_, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	changed := req.ApplyTo(c)
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c, changed...); err != nil {
		return nil, mapRepoError(err)
	}
	return c.ToResponse(), nil
}

// Delete xóa character và gỡ mọi quan hệ trỏ tới nó trong cùng transaction
func (s *characterService) Delete(ctx context.Context, caller shared.Caller, req *model.DeleteCharacterRequest) (*shared.Ack, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, grant.Project.ID, c.ID); err != nil {
			return err
		}
		n, err := s.repo.RemoveRelationshipsTo(ctx, grant.Project.ID, c.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Debug().Str("character_id", c.ID.Hex()).Int64("characters", n).Msg("Dangling relationships removed")
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return shared.AckOf(c.ID.Hex()), nil
}

// =====================================================
// RELATIONSHIPS
// =====================================================

func (s *characterService) AddRelationship(ctx context.Context, caller shared.Caller, req *model.AddRelationshipRequest) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	target, err := ids.Parse("target_id", req.TargetID)
	if err != nil {
		return nil, err
	}
	// so sánh ObjectID đã parse: hex hoa/thường cùng trỏ về một character
	if target == c.ID {
		return nil, apperror.Validation("validation failed", map[string]string{"target_id": model.ErrSelfRelationship.Error()})
	}
	// target phải là character khác trong cùng project
	if _, err := s.repo.FindByID(ctx, grant.Project.ID, target); err != nil {
		return nil, mapRepoError(err)
	}
	if c.Relationship(target) != nil {
		return nil, apperror.Conflict(model.ErrRelationshipExists.Error(), model.ErrRelationshipExists)
	}

	if err := s.repo.AddRelationship(ctx, grant.Project.ID, c.ID, req.ToRelationship(target)); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant.Project.ID, c.ID)
}

func (s *characterService) UpdateRelationship(ctx context.Context, caller shared.Caller, req *model.UpdateRelationshipRequest) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	target, err := ids.Parse("target_id", req.TargetID)
	if err != nil {
		return nil, err
	}
	rel := c.Relationship(target)
	if rel == nil {
		return nil, apperror.NotFound("relationship", model.ErrRelationshipNotFound)
	}
	req.ApplyTo(rel)

	if err := s.repo.UpdateRelationship(ctx, grant.Project.ID, c.ID, *rel); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant.Project.ID, c.ID)
}

func (s *characterService) RemoveRelationship(ctx context.Context, caller shared.Caller, req *model.RemoveRelationshipRequest) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	target, err := ids.Parse("target_id", req.TargetID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveRelationship(ctx, grant.Project.ID, c.ID, target); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant.Project.ID, c.ID)
}

// GetRelationships trả về quan hệ kèm tên character đích
func (s *characterService) GetRelationships(ctx context.Context, caller shared.Caller, req *model.GetRelationshipsRequest) ([]model.RelationshipResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}

	targets := make([]primitive.ObjectID, 0, len(c.Relationships))
	for _, r := range c.Relationships {
		targets = append(targets, r.CharacterID)
	}
	related, err := s.repo.FindMany(ctx, grant.Project.ID, targets)
	if err != nil {
		return nil, apperror.Internal("failed to load related characters", err)
	}
	names := make(map[primitive.ObjectID]string, len(related))
	for _, r := range related {
		names[r.ID] = r.Name
	}

	out := make([]model.RelationshipResponse, 0, len(c.Relationships))
	for _, r := range c.Relationships {
		out = append(out, r.ToResponse(names[r.CharacterID]))
	}
	return out, nil
}

// =====================================================
// POSSESSIONS
// =====================================================

func (s *characterService) AddPossession(ctx context.Context, caller shared.Caller, req *model.PossessionRequest) (*model.CharacterResponse, error) {
	return s.possession(ctx, caller, req, s.repo.AddPossession)
}

func (s *characterService) RemovePossession(ctx context.Context, caller shared.Caller, req *model.PossessionRequest) (*model.CharacterResponse, error) {
	return s.possession(ctx, caller, req, s.repo.RemovePossession)
}

func (s *characterService) possession(
	ctx context.Context,
	caller shared.Caller,
	req *model.PossessionRequest,
	apply func(ctx context.Context, projectID, id, objectID primitive.ObjectID) error,
) (*model.CharacterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, c, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	objectID, err := ids.Parse("object_id", req.ObjectID)
	if err != nil {
		return nil, err
	}

	if err := apply(ctx, grant.Project.ID, c.ID, objectID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.reload(ctx, grant.Project.ID, c.ID)
}

// =====================================================
// HELPERS
// =====================================================

// load: access check rồi đọc character scoped theo project
func (s *characterService) load(ctx context.Context, caller shared.Caller, projectID, id string, level access.Level) (*access.Grant, *model.Character, error) {
	grant, err := s.access.Authorize(ctx, caller, projectID, level)
	if err != nil {
		return nil, nil, err
	}
	cid, err := ids.Parse("id", id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.repo.FindByID(ctx, grant.Project.ID, cid)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	return grant, c, nil
}

func (s *characterService) reload(ctx context.Context, projectID, id primitive.ObjectID) (*model.CharacterResponse, error) {
	c, err := s.repo.FindByID(ctx, projectID, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return c.ToResponse(), nil
}

func mapRepoError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrCharacterNotFound):
		return apperror.NotFound("character", err)
	case errors.Is(err, model.ErrRelationshipExists):
		return apperror.Conflict(model.ErrRelationshipExists.Error(), err)
	case errors.Is(err, model.ErrRelationshipNotFound):
		return apperror.NotFound("relationship", err)
	case errors.Is(err, model.ErrPossessionExists):
		return apperror.Conflict(model.ErrPossessionExists.Error(), err)
	case errors.Is(err, model.ErrPossessionNotFound):
		return apperror.NotFound("possession", err)
	}
	return apperror.Internal("character store failure", err)
}
