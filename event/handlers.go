package event

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/middleware"
)

type Handler struct {
	events Repository
}

func NewHandler(events Repository) *Handler {
	return &Handler{events: events}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(middleware.RequireAuth)
	r.Post("/", h.create)
	r.Get("/{event_id}", h.get)
	r.Delete("/{event_id}", h.delete)
	r.Get("/groups/{group_id}", h.forGroup)
	r.Put("/{event_id}/attendees/me", h.attend)
}

type createRequest struct {
	Event
	AttendeeIDs []int64 `json:"attendee_ids"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.events.Create(r.Context(), &req.Event, req.AttendeeIDs)
	if err != nil {
		switch err {
		case ErrEmptyName, ErrMissingStart:
			api.Detail(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to create event", "error", err)
			api.Internal(w)
		}
		return
	}

	api.JSON(w, http.StatusCreated, e)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "event_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid event id")
		return
	}

	e, err := h.events.GetByID(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to fetch event", "error", err)
		api.Internal(w)
		return
	}
	if e == nil {
		api.Detail(w, http.StatusNotFound, "event not found")
		return
	}

	api.JSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "event_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid event id")
		return
	}

	deleted, err := h.events.Delete(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to delete event", "error", err)
		api.Internal(w)
		return
	}
	if !deleted {
		api.Detail(w, http.StatusNotFound, "event not found")
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func (h *Handler) forGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "group_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group id")
		return
	}

	events, err := h.events.ForGroup(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, events)
}

func (h *Handler) attend(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	eventID, err := strconv.ParseInt(chi.URLParam(r, "event_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid event id")
		return
	}

	e, err := h.events.GetByID(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to fetch event", "error", err)
		api.Internal(w)
		return
	}
	if e == nil {
		api.Detail(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.events.AddAttendee(r.Context(), eventID, profileID); err != nil {
		slog.Error("failed to add attendee", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "attending"})
}
