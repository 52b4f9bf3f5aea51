package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/project/service"
	"storyforge-backend/internal/transport/procedure"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	return []*procedure.Procedure{
		procedure.NewMutation("project.create", h.svc.Create).
			REST(http.MethodPost, "/projects").
			Describe("Create a project owned by the caller"),
		procedure.NewQuery("project.listMine", h.svc.ListMine).
			REST(http.MethodGet, "/projects").
			Describe("Projects the caller owns or collaborates on"),
		procedure.NewQuery("project.getById", h.svc.GetByID).
			REST(http.MethodGet, "/projects/:id"),
		procedure.NewMutation("project.update", h.svc.Update).
			REST(http.MethodPatch, "/projects/:id"),
		procedure.NewMutation("project.delete", h.svc.Delete).
			REST(http.MethodDelete, "/projects/:id").
			Describe("Delete a project and everything inside it"),

		procedure.NewMutation("project.addCollaborator", h.svc.AddCollaborator).
			REST(http.MethodPost, "/projects/:id/collaborators"),
		procedure.NewMutation("project.removeCollaborator", h.svc.RemoveCollaborator).
			REST(http.MethodDelete, "/projects/:id/collaborators/:userId"),
		procedure.NewMutation("project.updateCollaboratorRole", h.svc.UpdateCollaboratorRole).
			REST(http.MethodPatch, "/projects/:id/collaborators/:userId"),
	}
}
