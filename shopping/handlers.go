package shopping

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/middleware"
)

type Handler struct {
	lists Repository
}

func NewHandler(lists Repository) *Handler {
	return &Handler{lists: lists}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(middleware.RequireAuth)
	r.Post("/lists", h.createList)
	r.Get("/groups/{group_id}/lists", h.groupLists)
	r.Post("/lists/{list_id}/items", h.addItem)
	r.Get("/lists/{list_id}/items", h.listItems)
	r.Put("/items/{item_id}/bought", h.setBought)
	r.Delete("/items/{item_id}", h.deleteItem)
}

type createListRequest struct {
	GroupID int64  `json:"group_id"`
	Name    string `json:"list_name"`
}

func (h *Handler) createList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, err := h.lists.CreateList(r.Context(), req.GroupID, req.Name)
	if err != nil {
		switch err {
		case ErrEmptyName:
			api.Detail(w, http.StatusBadRequest, err.Error())
		case ErrListNotFound:
			api.Detail(w, http.StatusNotFound, "group not found")
		default:
			slog.Error("failed to create shopping list", "error", err)
			api.Internal(w)
		}
		return
	}

	api.JSON(w, http.StatusCreated, list)
}

func (h *Handler) groupLists(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "group_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group id")
		return
	}

	lists, err := h.lists.ListsForGroup(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to list shopping lists", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, lists)
}

type addItemRequest struct {
	Name     string `json:"item_name"`
	Quantity int    `json:"item_quantity"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	profileID, _ := middleware.GetProfileID(r.Context())

	listID, err := strconv.ParseInt(chi.URLParam(r, "list_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid list id")
		return
	}

	req := addItemRequest{Quantity: 1}
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.lists.AddItem(r.Context(), listID, req.Name, req.Quantity, profileID)
	if err != nil {
		switch err {
		case ErrEmptyName, ErrBadQuantity:
			api.Detail(w, http.StatusBadRequest, err.Error())
		case ErrListNotFound:
			api.Detail(w, http.StatusNotFound, err.Error())
		default:
			slog.Error("failed to add list item", "error", err)
			api.Internal(w)
		}
		return
	}

	api.JSON(w, http.StatusCreated, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(chi.URLParam(r, "list_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid list id")
		return
	}

	items, err := h.lists.ItemsForList(r.Context(), listID)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, items)
}

type setBoughtRequest struct {
	Bought bool `json:"bought"`
}

func (h *Handler) setBought(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req setBoughtRequest
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.lists.SetBought(r.Context(), itemID, req.Bought)
	if err != nil {
		if err == ErrItemNotFound {
			api.Detail(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to update list item", "error", err)
		api.Internal(w)
		return
	}

	api.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid item id")
		return
	}

	deleted, err := h.lists.DeleteItem(r.Context(), itemID)
	if err != nil {
		slog.Error("failed to delete list item", "error", err)
		api.Internal(w)
		return
	}
	if !deleted {
		api.Detail(w, http.StatusNotFound, ErrItemNotFound.Error())
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
