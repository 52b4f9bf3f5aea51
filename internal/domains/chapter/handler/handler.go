package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/chapter/service"
	"storyforge-backend/internal/transport/procedure"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	const base = "/projects/:id/chapters"

	return []*procedure.Procedure{
		procedure.NewMutation("chapter.create", h.svc.Create).
			REST(http.MethodPost, base),
		procedure.NewQuery("chapter.list", h.svc.List).
			REST(http.MethodGet, base).
			Describe("Chapters sorted by position; content only with include_content=true"),
		procedure.NewQuery("chapter.getById", h.svc.GetByID).
			REST(http.MethodGet, base+"/:chapterId"),
		procedure.NewMutation("chapter.update", h.svc.Update).
			REST(http.MethodPatch, base+"/:chapterId"),
		procedure.NewMutation("chapter.updateContent", h.svc.UpdateContent).
			REST(http.MethodPut, base+"/:chapterId/content").
			Describe("Replace content, recompute word count and append an edit"),
		procedure.NewMutation("chapter.delete", h.svc.Delete).
			REST(http.MethodDelete, base+"/:chapterId"),
		procedure.NewMutation("chapter.reorder", h.svc.Reorder).
			REST(http.MethodPut, base+"/order").
			Describe("Apply (id, position) pairs in one transaction"),
		procedure.NewMutation("chapter.addEdit", h.svc.AddEdit).
			REST(http.MethodPost, base+"/:chapterId/edits"),
	}
}
