package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/middleware"
	"github.com/homebase-app/homebase/session"
)

type Handler struct {
	profiles Repository
	sessions session.Repository
}

func NewHandler(profiles Repository, sessions session.Repository) *Handler {
	return &Handler{profiles: profiles, sessions: sessions}
}

// Routes mounts the auth and profile endpoints. Register/login are public;
// the rest require a session.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Put("/me", h.updateMe)
	})
}

type registerRequest struct {
	Name     string `json:"profile_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.profiles.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch err {
		case ErrEmailExists:
			api.Detail(w, http.StatusConflict, err.Error())
		case ErrBlankPassword, ErrInvalidEmail, ErrBlankName:
			api.Detail(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to register profile", "error", err)
			api.Internal(w)
		}
		return
	}

	sess, err := h.sessions.Create(ctx, p.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		api.Internal(w)
		return
	}

	http.SetCookie(w, session.Cookie(sess))
	api.JSON(w, http.StatusCreated, p)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		slog.Error("failed to fetch profile", "error", err)
		api.Internal(w)
		return
	}
	if p == nil || h.profiles.VerifyPassword(p.PasswordHash, req.Password) != nil {
		api.Detail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(ctx, p.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		api.Internal(w)
		return
	}

	http.SetCookie(w, session.Cookie(sess))
	api.JSON(w, http.StatusOK, p)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, session.ExpiredCookie())
	api.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	p, err := h.profiles.GetByID(r.Context(), profileID)
	if err != nil {
		slog.Error("failed to fetch profile", "error", err)
		api.Internal(w)
		return
	}
	if p == nil {
		api.Detail(w, http.StatusNotFound, "profile not found")
		return
	}

	api.JSON(w, http.StatusOK, p)
}

type updateRequest struct {
	Name    *string `json:"profile_name"`
	Picture *string `json:"picture"`
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, _ := middleware.GetProfileID(ctx)

	var req updateRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		if err := h.profiles.UpdateName(ctx, profileID, *req.Name); err != nil {
			if err == ErrBlankName {
				api.Detail(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to update name", "error", err)
			api.Internal(w)
			return
		}
	}
	if req.Picture != nil {
		if err := h.profiles.UpdatePicture(ctx, profileID, *req.Picture); err != nil {
			slog.Error("failed to update picture", "error", err)
			api.Internal(w)
			return
		}
	}

	p, err := h.profiles.GetByID(ctx, profileID)
	if err != nil || p == nil {
		slog.Error("failed to fetch profile after update", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, p)
}
