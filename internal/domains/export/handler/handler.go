package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/export/service"
	"storyforge-backend/internal/transport/procedure"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	const base = "/projects/:id/exports"

	return []*procedure.Procedure{
		procedure.NewMutation("export.create", h.svc.Create).
			REST(http.MethodPost, base).
			WithStatus(http.StatusAccepted).
			Describe("Queue an export; the file is produced by the worker"),
		procedure.NewQuery("export.list", h.svc.List).
			REST(http.MethodGet, base),
		procedure.NewQuery("export.getById", h.svc.GetByID).
			REST(http.MethodGet, base+"/:exportId"),
		procedure.NewQuery("export.download", h.svc.Download).
			REST(http.MethodGet, base+"/:exportId/download").
			Describe("Presigned download URL of a completed export"),
		procedure.NewMutation("export.delete", h.svc.Delete).
			REST(http.MethodDelete, base+"/:exportId"),
	}
}
