package chore

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/middleware"
)

type Handler struct {
	chores Repository
}

func NewHandler(chores Repository) *Handler {
	return &Handler{chores: chores}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(middleware.RequireAuth)
	r.Post("/", h.create)
	r.Get("/groups/{group_id}", h.forGroup)
	r.Put("/{chore_id}/status", h.setStatus)
	r.Delete("/{chore_id}", h.delete)
}

type createRequest struct {
	GroupID     int64      `json:"group_id"`
	Name        string     `json:"name"`
	DueDate     *time.Time `json:"due_date"`
	Notes       *string    `json:"notes"`
	AssigneeIDs []int64    `json:"assignee_ids"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.chores.Create(r.Context(), req.GroupID, req.Name, req.DueDate, req.Notes, req.AssigneeIDs)
	if err != nil {
		switch err {
		case ErrEmptyName, ErrNoAssignees:
			api.Detail(w, http.StatusBadRequest, err.Error())
		case ErrGroupNotFound:
			api.Detail(w, http.StatusNotFound, err.Error())
		default:
			slog.Error("failed to create chore", "error", err)
			api.Internal(w)
		}
		return
	}

	api.JSON(w, http.StatusCreated, c)
}

func (h *Handler) forGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "group_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group id")
		return
	}

	chores, err := h.chores.ForGroup(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to list chores", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, chores)
}

type statusRequest struct {
	Status string `json:"individual_status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	choreID, err := strconv.ParseInt(chi.URLParam(r, "chore_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid chore id")
		return
	}

	var req statusRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chores.SetStatus(r.Context(), choreID, profileID, req.Status); err != nil {
		switch err {
		case ErrBadStatus:
			api.Detail(w, http.StatusBadRequest, err.Error())
		case ErrNotFound:
			api.Detail(w, http.StatusNotFound, "chore assignment not found")
		default:
			slog.Error("failed to update chore status", "error", err)
			api.Internal(w)
		}
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	choreID, err := strconv.ParseInt(chi.URLParam(r, "chore_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid chore id")
		return
	}

	deleted, err := h.chores.Delete(r.Context(), choreID)
	if err != nil {
		slog.Error("failed to delete chore", "error", err)
		api.Internal(w)
		return
	}
	if !deleted {
		api.Detail(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "chore deleted"})
}
