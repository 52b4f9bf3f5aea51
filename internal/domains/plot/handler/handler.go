package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/plot/service"
	"storyforge-backend/internal/transport/procedure"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	const base = "/projects/:id/plots"

	return []*procedure.Procedure{
		procedure.NewMutation("plot.create", h.svc.Create).
			REST(http.MethodPost, base),
		procedure.NewQuery("plot.list", h.svc.List).
			REST(http.MethodGet, base),
		procedure.NewQuery("plot.getById", h.svc.GetByID).
			REST(http.MethodGet, base+"/:plotId"),
		procedure.NewMutation("plot.update", h.svc.Update).
			REST(http.MethodPatch, base+"/:plotId"),
		procedure.NewMutation("plot.delete", h.svc.Delete).
			REST(http.MethodDelete, base+"/:plotId"),

		procedure.NewMutation("plot.addPlotPoint", h.svc.AddPlotPoint).
			REST(http.MethodPost, base+"/:plotId/points").
			WithStatus(http.StatusCreated),
		procedure.NewMutation("plot.updatePlotPoint", h.svc.UpdatePlotPoint).
			REST(http.MethodPatch, base+"/:plotId/points/:pointId"),
		procedure.NewMutation("plot.deletePlotPoint", h.svc.DeletePlotPoint).
			REST(http.MethodDelete, base+"/:plotId/points/:pointId"),
		procedure.NewMutation("plot.reorderPlotPoints", h.svc.ReorderPlotPoints).
			REST(http.MethodPut, base+"/:plotId/points/order").
			Describe("Apply (id, order) pairs; elements come back sorted by order"),
	}
}
