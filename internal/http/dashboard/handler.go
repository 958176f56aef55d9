package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicebox/internal/report"
)

type Handler struct {
	reports *report.Service
}

func NewHandler(reports *report.Service) *Handler {
	return &Handler{reports: reports}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.dashboard)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	d, err := h.reports.Dashboard(r.Context(), a)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, d)
}
