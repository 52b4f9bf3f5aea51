package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/character/service"
	"storyforge-backend/internal/transport/procedure"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	const base = "/projects/:id/characters"

	return []*procedure.Procedure{
		procedure.NewMutation("character.create", h.svc.Create).
			REST(http.MethodPost, base),
		procedure.NewQuery("character.list", h.svc.List).
			REST(http.MethodGet, base).
			Describe("Characters of a project sorted by name"),
		procedure.NewQuery("character.getById", h.svc.GetByID).
			REST(http.MethodGet, base+"/:characterId"),
		procedure.NewMutation("character.update", h.svc.Update).
			REST(http.MethodPatch, base+"/:characterId"),
		procedure.NewMutation("character.delete", h.svc.Delete).
			REST(http.MethodDelete, base+"/:characterId"),

		// relationships
		procedure.NewMutation("character.addRelationship", h.svc.AddRelationship).
			REST(http.MethodPost, base+"/:characterId/relationships"),
		procedure.NewMutation("character.updateRelationship", h.svc.UpdateRelationship).
			REST(http.MethodPatch, base+"/:characterId/relationships/:targetId"),
		procedure.NewMutation("character.removeRelationship", h.svc.RemoveRelationship).
			REST(http.MethodDelete, base+"/:characterId/relationships/:targetId"),
		procedure.NewQuery("character.getRelationships", h.svc.GetRelationships).
			REST(http.MethodGet, base+"/:characterId/relationships"),

		// possessions
		procedure.NewMutation("character.addPossession", h.svc.AddPossession).
			REST(http.MethodPost, base+"/:characterId/possessions"),
		procedure.NewMutation("character.removePossession", h.svc.RemovePossession).
			REST(http.MethodDelete, base+"/:characterId/possessions/:objectId"),
	}
}
