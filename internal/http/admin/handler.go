package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/account"
	invoicehttp "github.com/MrJamesThe3rd/invoicebox/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/report"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type Handler struct {
	users    *user.Service
	auth     *auth.Service
	invoices *invoice.Service
	reports  *report.Service
	activity *activity.Service
	now      func() time.Time
}

type Deps struct {
	Users    *user.Service
	Auth     *auth.Service
	Invoices *invoice.Service
	Reports  *report.Service
	Activity *activity.Service
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		users:    deps.Users,
		auth:     deps.Auth,
		invoices: deps.Invoices,
		reports:  deps.Reports,
		activity: deps.Activity,
		now:      time.Now,
	}
}

// Routes expects the admin role to be enforced by the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Put("/users/{id}/status", h.setUserStatus)
	r.Delete("/users/{id}", h.deleteUser)
	r.Get("/invoices", h.listInvoices)
	r.Post("/invoices/mark-overdue", h.markOverdue)
	r.Get("/stats", h.stats)
	r.Get("/activity", h.recentActivity)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	var filter user.ListFilter

	if s := r.URL.Query().Get("role"); s != "" {
		filter.Role = new(user.Role(s))
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(user.Status(s))
	}

	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, account.ToUserResponseList(users))
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, &respond.RequestError{Field: "id", Reason: "invalid id"}
	}

	return id, nil
}

type setStatusRequest struct {
	Status user.Status `json:"status" validate:"required,oneof=active inactive"`
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req setStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if id == a.UserID() && req.Status == user.StatusInactive {
		respond.Error(w, r, &respond.RequestError{Field: "id", Reason: "admins cannot deactivate themselves"})
		return
	}

	if err := h.users.SetStatus(r.Context(), id, req.Status); err != nil {
		respond.Error(w, r, err)
		return
	}

	if req.Status == user.StatusInactive {
		if err := h.auth.RevokeUser(r.Context(), id); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	h.activity.Log(r.Context(), a.UserID(), activity.ActionUserStatusChanged, "set user %s %s", id, req.Status)

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, account.ToUserResponse(u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if id == a.UserID() {
		respond.Error(w, r, &respond.RequestError{Field: "id", Reason: "admins cannot delete themselves"})
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.auth.RevokeUser(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), a.UserID(), activity.ActionUserDeleted, "deleted user %s", id)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	filter, err := invoicehttp.ListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	for param, dst := range map[string]**uuid.UUID{
		"provider_id":  &filter.ProviderID,
		"purchaser_id": &filter.PurchaserID,
	} {
		s := r.URL.Query().Get(param)
		if s == "" {
			continue
		}

		id, err := uuid.Parse(s)
		if err != nil {
			respond.Error(w, r, &respond.RequestError{Field: param, Reason: "invalid id"})
			return
		}

		*dst = &id
	}

	invoices, err := h.invoices.List(r.Context(), a, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, invoicehttp.ToInvoiceResponseList(a, invoices, r))
}

type markOverdueResponse struct {
	AsOf   time.Time `json:"as_of"`
	Marked int       `json:"marked"`
}

// markOverdue runs the overdue sweep on demand.
func (h *Handler) markOverdue(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	asOf := h.now().UTC()

	n, err := h.invoices.MarkOverdue(r.Context(), asOf)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if n > 0 {
		h.activity.Log(r.Context(), a.UserID(), activity.ActionInvoiceStatusChanged, "marked %d invoices overdue", n)
	}

	respond.JSON(w, http.StatusOK, markOverdueResponse{AsOf: asOf, Marked: n})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.AdminStats(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, stats)
}

type activityResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	UserName  string          `json:"user_name"`
	Action    activity.Action `json:"action"`
	Details   string          `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) recentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respond.Error(w, r, &respond.RequestError{Field: "limit", Reason: "must be a positive number"})
			return
		}

		limit = n
	}

	entries, err := h.activity.Recent(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]activityResponse, len(entries))
	for i, e := range entries {
		resp[i] = activityResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			UserName:  e.UserName,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
