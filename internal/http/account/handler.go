package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invoicebox/internal/activity"
	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/guard"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type Handler struct {
	users    *user.Service
	auth     *auth.Service
	activity *activity.Service
}

func NewHandler(users *user.Service, authSvc *auth.Service, activitySvc *activity.Service) *Handler {
	return &Handler{users: users, auth: authSvc, activity: activitySvc}
}

// PublicRoutes are reachable without a token.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/password-strength", h.passwordStrength)
}

// SessionRoutes need an authenticated actor.
func (h *Handler) SessionRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
	r.Get("/profile", h.profile)
}

// UserRoutes serve /users for any authenticated actor.
func (h *Handler) UserRoutes(r chi.Router) {
	r.Get("/role/{role}", h.listByRole)
	r.Put("/profile", h.updateProfile)
	r.Delete("/profile", h.deleteProfile)
}

type registerRequest struct {
	Name     string    `json:"name" validate:"required,max=100"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required"`
	Role     user.Role `json:"role" validate:"required,oneof=provider purchaser"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tok, err := h.auth.Issue(u)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), u.ID, activity.ActionRegister, "registered as %s", u.Role)

	respond.JSON(w, http.StatusCreated, sessionResponse{User: ToUserResponse(u), Token: tok})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tok, err := h.auth.Issue(u)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), u.ID, activity.ActionLogin, "logged in")

	respond.JSON(w, http.StatusOK, sessionResponse{User: ToUserResponse(u), Token: tok})
}

type passwordStrengthRequest struct {
	Password string `json:"password"`
}

func (h *Handler) passwordStrength(w http.ResponseWriter, r *http.Request) {
	var req passwordStrengthRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, user.ScorePassword(req.Password))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := guard.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, r, auth.ErrInvalidToken)
		return
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		respond.Error(w, r, err)
		return
	}

	if a, err := actor.FromContext(r.Context()); err == nil {
		h.activity.Log(r.Context(), a.UserID(), activity.ActionLogout, "logged out")
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.users.Get(r.Context(), a.UserID())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToUserResponse(u))
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListByRole(r.Context(), user.Role(chi.URLParam(r, "role")))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToUserResponseList(users))
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateProfileRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), a.UserID(), user.UpdateProfileParams{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToUserResponse(u))
}

// deleteProfile closes the caller's own account and signs it out everywhere.
func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	a, err := actor.FromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), a.UserID()); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.auth.RevokeUser(r.Context(), a.UserID()); err != nil {
		respond.Error(w, r, err)
		return
	}

	h.activity.Log(r.Context(), a.UserID(), activity.ActionUserDeleted, "closed own account")

	w.WriteHeader(http.StatusNoContent)
}
