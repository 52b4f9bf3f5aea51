package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/ai/model"
	charModel "storyforge-backend/internal/domains/character/model"
	"storyforge-backend/internal/shared"
)

type Service interface {
	GenerateContent(ctx context.Context, caller shared.Caller, req *model.GenerateContentRequest) (*model.GenerationResponse, error)
	GenerateCharacter(ctx context.Context, caller shared.Caller, req *model.GenerateCharacterRequest) (*model.GenerationResponse, error)
	GeneratePlot(ctx context.Context, caller shared.Caller, req *model.GeneratePlotRequest) (*model.GenerationResponse, error)
	GenerateImage(ctx context.Context, caller shared.Caller, req *model.GenerateImageRequest) (*model.GenerationResponse, error)

	SaveGeneration(ctx context.Context, caller shared.Caller, req *model.SaveGenerationRequest) (*model.GenerationResponse, error)
	ToggleSaved(ctx context.Context, caller shared.Caller, req *model.ToggleSavedRequest) (*model.GenerationResponse, error)
	ListByProject(ctx context.Context, caller shared.Caller, req *model.ListGenerationsRequest) (*model.GenerationList, error)
	GetByID(ctx context.Context, caller shared.Caller, req *model.GetGenerationRequest) (*model.GenerationResponse, error)
	Delete(ctx context.Context, caller shared.Caller, req *model.DeleteGenerationRequest) (*shared.Ack, error)
}

// Limiter chặn số lần gọi AI theo user (pkg/ratelimit.KeyedLimiter)
type Limiter interface {
	Allow(key string) bool
}

// ImageProcessor resize ảnh provider trả về (storage.ImageProcessor)
type ImageProcessor interface {
	ProcessGenerated(data []byte, width, height int) (map[string][]byte, error)
}

// CharacterStore là phần của character repository mà generateImage cần
type CharacterStore interface {
	FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*charModel.Character, error)
	Update(ctx context.Context, c *charModel.Character, fields ...string) error
}
