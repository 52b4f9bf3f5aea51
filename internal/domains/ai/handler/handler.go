package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/ai/service"
	"storyforge-backend/internal/transport/procedure"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	const (
		base        = "/projects/:id/ai"
		generations = base + "/generations"
	)

	return []*procedure.Procedure{
		// Generate (rate-limited per user)
		procedure.NewMutation("ai.generateContent", h.svc.GenerateContent).
			REST(http.MethodPost, base+"/generate/content").
			WithStatus(http.StatusCreated).
			Describe("Generate prose, dialogue or descriptions for the project"),
		procedure.NewMutation("ai.generateCharacter", h.svc.GenerateCharacter).
			REST(http.MethodPost, base+"/generate/character").
			WithStatus(http.StatusCreated).
			Describe("Generate a character profile as structured JSON"),
		procedure.NewMutation("ai.generatePlot", h.svc.GeneratePlot).
			REST(http.MethodPost, base+"/generate/plot").
			WithStatus(http.StatusCreated).
			Describe("Generate a plot outline as structured JSON"),
		procedure.NewMutation("ai.generateImage", h.svc.GenerateImage).
			REST(http.MethodPost, base+"/generate/image").
			WithStatus(http.StatusCreated).
			Describe("Generate an image, optionally attached to a character"),

		// Records
		procedure.NewMutation("ai.saveGeneration", h.svc.SaveGeneration).
			REST(http.MethodPost, generations).
			WithStatus(http.StatusCreated),
		procedure.NewQuery("ai.listByProject", h.svc.ListByProject).
			REST(http.MethodGet, generations),
		procedure.NewQuery("ai.getById", h.svc.GetByID).
			REST(http.MethodGet, generations+"/:generationId"),
		procedure.NewMutation("ai.toggleSaved", h.svc.ToggleSaved).
			REST(http.MethodPatch, generations+"/:generationId/saved").
			Describe("Set the saved flag; omit saved to flip it"),
		procedure.NewMutation("ai.delete", h.svc.Delete).
			REST(http.MethodDelete, generations+"/:generationId"),
	}
}
