package group

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/middleware"
)

type Handler struct {
	groups Repository
}

func NewHandler(groups Repository) *Handler {
	return &Handler{groups: groups}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(middleware.RequireAuth)
	r.Post("/", h.create)
	r.Post("/join", h.join)
	r.Get("/", h.mine)
	r.Get("/{group_id}/members", h.members)
	r.Delete("/{group_id}/members/me", h.leave)
}

type createRequest struct {
	Name  string  `json:"group_name"`
	Photo *string `json:"group_photo"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	var req createRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.groups.Create(r.Context(), req.Name, req.Photo, profileID)
	if err != nil {
		if err == ErrEmptyName {
			api.Detail(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create group", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusCreated, g)
}

type joinRequest struct {
	JoinCode string `json:"join_code"`
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	var req joinRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.groups.JoinByCode(r.Context(), req.JoinCode, profileID)
	if err != nil {
		if err == ErrInvalidJoinCode {
			api.Detail(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to join group", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, g)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	groups, err := h.groups.GroupsForProfile(r.Context(), profileID)
	if err != nil {
		slog.Error("failed to list groups", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, groups)
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "group_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group id")
		return
	}

	g, err := h.groups.GetByID(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to fetch group", "error", err)
		api.Internal(w)
		return
	}
	if g == nil {
		api.Detail(w, http.StatusNotFound, "group not found")
		return
	}

	members, err := h.groups.Members(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to list members", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, members)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	groupID, err := strconv.ParseInt(chi.URLParam(r, "group_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group id")
		return
	}

	if err := h.groups.Leave(r.Context(), groupID, profileID); err != nil {
		slog.Error("failed to leave group", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "left group"})
}
