package service

import (
	"context"

	"storyforge-backend/internal/domains/character/model"
	"storyforge-backend/internal/shared"
)

type Service interface {
	Create(ctx context.Context, caller shared.Caller, req *model.CreateCharacterRequest) (*model.CharacterResponse, error)
	List(ctx context.Context, caller shared.Caller, req *model.ListCharactersRequest) ([]*model.CharacterResponse, error)
	GetByID(ctx context.Context, caller shared.Caller, req *model.GetCharacterRequest) (*model.CharacterResponse, error)
	Update(ctx context.Context, caller shared.Caller, req *model.UpdateCharacterRequest) (*model.CharacterResponse, error)
	Delete(ctx context.Context, caller shared.Caller, req *model.DeleteCharacterRequest) (*shared.Ack, error)

	AddRelationship(ctx context.Context, caller shared.Caller, req *model.AddRelationshipRequest) (*model.CharacterResponse, error)
	UpdateRelationship(ctx context.Context, caller shared.Caller, req *model.UpdateRelationshipRequest) (*model.CharacterResponse, error)
	RemoveRelationship(ctx context.Context, caller shared.Caller, req *model.RemoveRelationshipRequest) (*model.CharacterResponse, error)
	GetRelationships(ctx context.Context, caller shared.Caller, req *model.GetRelationshipsRequest) ([]model.RelationshipResponse, error)

	AddPossession(ctx context.Context, caller shared.Caller, req *model.PossessionRequest) (*model.CharacterResponse, error)
	RemovePossession(ctx context.Context, caller shared.Caller, req *model.PossessionRequest) (*model.CharacterResponse, error)
}
