package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/ai/model"
	"storyforge-backend/internal/domains/ai/repository"
	charModel "storyforge-backend/internal/domains/character/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/infrastructure/ai"
	"storyforge-backend/internal/infrastructure/storage"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/ids"
)

type aiService struct {
	repo       repository.Repository
	access     *access.Checker
	provider   ai.Provider
	limiter    Limiter
	images     ImageProcessor
	objects    storage.ObjectStore
	characters CharacterStore
	now        func() time.Time
}

func NewService(
	repo repository.Repository,
	checker *access.Checker,
	provider ai.Provider,
	limiter Limiter,
	images ImageProcessor,
	objects storage.ObjectStore,
	characters CharacterStore,
) Service {
	return &aiService{
		repo:       repo,
		access:     checker,
		provider:   provider,
		limiter:    limiter,
		images:     images,
		objects:    objects,
		characters: characters,
		now:        time.Now,
	}
}

// =====================================================
// TEXT GENERATION
// =====================================================

func (s *aiService) GenerateContent(ctx context.Context, caller shared.Caller, req *model.GenerateContentRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	return s.generateText(ctx, caller, textJob{
		projectID: req.ProjectID,
		parentID:  req.ParentID,
		genType:   req.GenerationType(),
		prompt:    req.Prompt,
		input:     contentPrompt(req.Prompt, req.Context),
		params:    req.Params,
	})
}

func (s *aiService) GenerateCharacter(ctx context.Context, caller shared.Caller, req *model.GenerateCharacterRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	return s.generateText(ctx, caller, textJob{
		projectID:   req.ProjectID,
		parentID:    req.ParentID,
		genType:     model.TypeCharacter,
		prompt:      req.Prompt,
		input:       characterPrompt(req.Prompt, req.Role),
		instruction: characterInstruction,
		params:      req.Params,
		structured:  true,
	})
}

func (s *aiService) GeneratePlot(ctx context.Context, caller shared.Caller, req *model.GeneratePlotRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	return s.generateText(ctx, caller, textJob{
		projectID:   req.ProjectID,
		parentID:    req.ParentID,
		genType:     model.TypePlot,
		prompt:      req.Prompt,
		input:       plotPrompt(req.Prompt, req.StructureType),
		instruction: plotInstruction,
		params:      req.Params,
		structured:  true,
	})
}

type textJob struct {
	projectID   string
	parentID    string
	genType     model.GenerationType
	prompt      string
	input       string
	instruction string
	params      model.Params
	// structured: yêu cầu JSON và parse vào Generation.Structured
	structured bool
}

func (s *aiService) generateText(ctx context.Context, caller shared.Caller, job textJob) (*model.GenerationResponse, error) {
	// 1. ACCESS + RATE LIMIT
	grant, err := s.begin(ctx, caller, job.projectID)
	if err != nil {
		return nil, err
	}
	parent, err := s.parent(ctx, grant.Project.ID, job.parentID)
	if err != nil {
		return nil, err
	}

	// 2. CALL PROVIDER
	result, err := s.provider.GenerateText(ctx, ai.TextRequest{
		UserID:       grant.UserID.Hex(),
		SystemPrompt: systemPrompt(grant.Project, job.instruction),
		Prompt:       job.input,
		Params: ai.GenerationParams{
			Temperature: job.params.Temperature,
			MaxTokens:   job.params.MaxTokens,
			TopP:        job.params.TopP,
		},
		JSON: job.structured,
	})
	if err != nil {
		return nil, apperror.Internal("ai generation failed", err)
	}

	// 3. RECORD
	g := s.newGeneration(grant, job.genType, job.prompt, job.params.AsMap(), parent)
	g.Content = result.Content
	g.Usage = usageOf(result.Usage)
	if job.structured {
		g.Structured = parseStructured(result.Content, job.genType)
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, apperror.Internal("failed to store generation", err)
	}

	log.Info().
		Str("generation_id", g.ID.Hex()).
		Str("project_id", g.ProjectID.Hex()).
		Str("type", string(g.Type)).
		Int("tokens", result.Usage.TotalTokens).
		Msg("AI generation stored")
	return g.ToResponse(), nil
}

// parseStructured: output không phải JSON hợp lệ thì vẫn giữ content thô
func parseStructured(content string, genType model.GenerationType) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(stripFences(content)), &out); err != nil {
		log.Warn().Err(err).Str("type", string(genType)).Msg("AI output is not valid JSON, keeping raw content")
		return nil
	}
	return out
}

// =====================================================
// IMAGE GENERATION
// =====================================================

func (s *aiService) GenerateImage(ctx context.Context, caller shared.Caller, req *model.GenerateImageRequest) (*model.GenerationResponse, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	// 2. ACCESS + RATE LIMIT
	grant, err := s.begin(ctx, caller, req.ProjectID)
	if err != nil {
		return nil, err
	}
	projectID := grant.Project.ID
	parent, err := s.parent(ctx, projectID, req.ParentID)
	if err != nil {
		return nil, err
	}

	// 3. CHARACTER (nếu có) phải thuộc project, check trước khi tốn tiền gọi provider
	var character *charModel.Character
	if req.CharacterID != "" {
		cid, err := ids.Parse("character_id", req.CharacterID)
		if err != nil {
			return nil, err
		}
		character, err = s.characters.FindByID(ctx, projectID, cid)
		if err != nil {
			if errors.Is(err, charModel.ErrCharacterNotFound) {
				return nil, apperror.NotFound("character", err)
			}
			return nil, apperror.Internal("failed to load character", err)
		}
	}

	// 4. CALL PROVIDER
	width, height := req.Size()
	result, err := s.provider.GenerateImage(ctx, ai.ImageRequest{
		UserID: grant.UserID.Hex(),
		Prompt: req.Prompt,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return nil, apperror.Internal("ai generation failed", err)
	}

	// 5. RESIZE + UPLOAD
	variants, err := s.images.ProcessGenerated(result.Data, width, height)
	if err != nil {
		return nil, apperror.Internal("ai returned an unusable image", err)
	}

	params := map[string]interface{}{"width": width, "height": height}
	if character != nil {
		params["character_id"] = character.ID.Hex()
	}
	g := s.newGeneration(grant, model.TypeImage, req.Prompt, params, parent)
	g.ID = primitive.NewObjectID()
	g.Usage = usageOf(result.Usage)

	prefix := projectModel.ObjectPrefix(projectID) + "ai/" + g.ID.Hex() + "/"
	if g.ImageURL, err = s.objects.Upload(ctx, prefix+storage.VariantFull+".jpg", variants[storage.VariantFull], "image/jpeg"); err != nil {
		return nil, apperror.Internal("failed to store image", err)
	}
	if g.ThumbnailURL, err = s.objects.Upload(ctx, prefix+storage.VariantThumbnail+".jpg", variants[storage.VariantThumbnail], "image/jpeg"); err != nil {
		s.cleanup(ctx, prefix)
		return nil, apperror.Internal("failed to store image", err)
	}

	// 6. RECORD
	if err := s.repo.Create(ctx, g); err != nil {
		s.cleanup(ctx, prefix)
		return nil, apperror.Internal("failed to store generation", err)
	}

	// 7. ATTACH TO CHARACTER
	if character != nil {
		character.ImageURL = g.ImageURL
		character.UpdatedAt = s.now()
		if err := s.characters.Update(ctx, character, "image_url", "updated_at"); err != nil {
			log.Warn().Err(err).Str("character_id", character.ID.Hex()).Msg("Failed to attach generated image to character")
		}
	}

	log.Info().
		Str("generation_id", g.ID.Hex()).
		Str("project_id", projectID.Hex()).
		Int("width", width).
		Int("height", height).
		Msg("AI image stored")
	return g.ToResponse(), nil
}

func (s *aiService) cleanup(ctx context.Context, prefix string) {
	if err := s.objects.DeleteByPrefix(ctx, prefix); err != nil {
		log.Warn().Err(err).Str("prefix", prefix).Msg("Failed to clean up generated image")
	}
}

// =====================================================
// RECORDS
// =====================================================

// SaveGeneration lưu bản client đã chỉnh sửa, không gọi provider
func (s *aiService) SaveGeneration(ctx context.Context, caller shared.Caller, req *model.SaveGenerationRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	parent, err := s.parent(ctx, grant.Project.ID, req.ParentID)
	if err != nil {
		return nil, err
	}

	g := s.newGeneration(grant, req.Type, req.Prompt, req.Parameters, parent)
	g.Content = req.Content
	g.Saved = true
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, apperror.Internal("failed to store generation", err)
	}
	return g.ToResponse(), nil
}

func (s *aiService) ToggleSaved(ctx context.Context, caller shared.Caller, req *model.ToggleSavedRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	g, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}

	saved := !g.Saved
	if req.Saved != nil {
		saved = *req.Saved
	}
	now := s.now()
	if err := s.repo.SetSaved(ctx, g.ProjectID, g.ID, saved, now); err != nil {
		return nil, mapRepoError(err)
	}
	g.Saved = saved
	g.UpdatedAt = now
	return g.ToResponse(), nil
}

func (s *aiService) ListByProject(ctx context.Context, caller shared.Caller, req *model.ListGenerationsRequest) (*model.GenerationList, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	grant, err := s.access.Authorize(ctx, caller, req.ProjectID, access.LevelRead)
	if err != nil {
		return nil, err
	}

	filter := repository.ListFilter{Type: req.Type, Saved: req.Saved}
	gens, total, err := s.repo.List(ctx, grant.Project.ID, filter, req.Pagination)
	if err != nil {
		return nil, apperror.Internal("failed to list generations", err)
	}
	items := make([]*model.GenerationResponse, 0, len(gens))
	for _, g := range gens {
		items = append(items, g.ToResponse())
	}
	return &model.GenerationList{Items: items, Meta: shared.NewPageMeta(req.Pagination, total)}, nil
}

func (s *aiService) GetByID(ctx context.Context, caller shared.Caller, req *model.GetGenerationRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	g, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelRead)
	if err != nil {
		return nil, err
	}
	return g.ToResponse(), nil
}

// Delete xóa record và ảnh đi kèm (best-effort). Con trong chain giữ parent_id cũ.
func (s *aiService) Delete(ctx context.Context, caller shared.Caller, req *model.DeleteGenerationRequest) (*shared.Ack, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	g, err := s.load(ctx, caller, req.ProjectID, req.ID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, g.ProjectID, g.ID); err != nil {
		return nil, mapRepoError(err)
	}
	if g.Type == model.TypeImage {
		s.cleanup(ctx, projectModel.ObjectPrefix(g.ProjectID)+"ai/"+g.ID.Hex()+"/")
	}
	return shared.AckOf(g.ID.Hex()), nil
}

// =====================================================
// HELPERS
// =====================================================

// begin: quyền write trên project rồi mới trừ quota của user
func (s *aiService) begin(ctx context.Context, caller shared.Caller, projectID string) (*access.Grant, error) {
	grant, err := s.access.Authorize(ctx, caller, projectID, access.LevelWrite)
	if err != nil {
		return nil, err
	}
	if !s.limiter.Allow(grant.UserID.Hex()) {
		return nil, apperror.TooManyRequests(model.ErrRateLimited.Error())
	}
	return grant, nil
}

// parent resolve parent_id của chain; phải cùng project
func (s *aiService) parent(ctx context.Context, projectID primitive.ObjectID, parentID string) (*primitive.ObjectID, error) {
	if parentID == "" {
		return nil, nil
	}
	pid, err := ids.Parse("parent_id", parentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, projectID, pid); err != nil {
		return nil, mapRepoError(err)
	}
	return &pid, nil
}

func (s *aiService) newGeneration(grant *access.Grant, t model.GenerationType, prompt string, params map[string]interface{}, parent *primitive.ObjectID) *model.Generation {
	now := s.now()
	if len(params) == 0 {
		params = nil
	}
	return &model.Generation{
		ProjectID:  grant.Project.ID,
		UserID:     grant.UserID,
		Type:       t,
		Prompt:     prompt,
		Parameters: params,
		ParentID:   parent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *aiService) load(ctx context.Context, caller shared.Caller, projectID, id string, level access.Level) (*model.Generation, error) {
	grant, err := s.access.Authorize(ctx, caller, projectID, level)
	if err != nil {
		return nil, err
	}
	gid, err := ids.Parse("id", id)
	if err != nil {
		return nil, err
	}
	g, err := s.repo.FindByID(ctx, grant.Project.ID, gid)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return g, nil
}

func usageOf(u ai.Usage) *model.Usage {
	return &model.Usage{
		Provider:         u.Provider,
		Model:            u.Model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		EstimatedCostUSD: u.EstimatedCostUSD.StringFixed(6),
		LatencyMs:        u.Latency.Milliseconds(),
	}
}

func mapRepoError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrGenerationNotFound):
		return apperror.NotFound("generation", err)
	}
	return apperror.Internal("generation store failure", err)
}
