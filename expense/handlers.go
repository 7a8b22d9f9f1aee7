package expense

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/middleware"
)

// Recurrence is the calendar side channel invoked after expense writes.
type Recurrence interface {
	Expand(ctx context.Context, item *ItemWithSplits, memberIDs []int64) (int, error)
	Retract(ctx context.Context, itemID int64) (int64, error)
}

// GroupDirectory resolves a group's member ids for attendee registration.
type GroupDirectory interface {
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
}

type Handler struct {
	store      Store
	recurrence Recurrence
	groups     GroupDirectory
}

func NewHandler(store Store, recurrence Recurrence, groups GroupDirectory) *Handler {
	return &Handler{store: store, recurrence: recurrence, groups: groups}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(middleware.RequireAuth)

	r.Post("/lists", h.createList)
	r.Get("/groups/{group_id}/lists", h.groupLists)

	r.Post("/", h.createExpense)
	r.Get("/groups/{group_id}/expenses", h.groupExpenses)
	r.Get("/{item_id}", h.getExpense)
	r.Delete("/{item_id}", h.deleteExpense)

	r.Put("/splits/{split_id}/settle", h.settleSplit)
	r.Get("/users/{profile_id}/splits", h.userSplits)
	r.Get("/users/{profile_id}/balance", h.userBalance)
	r.Get("/users/{profile_id}/balances", h.userBalances)
	r.Get("/users/{profile_id}/recent", h.userRecent)
	r.Get("/users/{profile_id}/stats", h.userStats)
}

// respondError maps the package's sentinel errors onto the API taxonomy.
// Anything unrecognized is a store failure and reported as a generic 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrEmptyListName),
		errors.Is(err, ErrNegativeCost),
		errors.Is(err, ErrNoSplits),
		errors.Is(err, ErrNegativeSplit),
		errors.Is(err, ErrSplitSumMismatch),
		errors.Is(err, ErrBadFrequency):
		api.Detail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrListNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrSplitNotFound),
		errors.Is(err, ErrBadReference):
		api.Detail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateSplit),
		errors.Is(err, ErrListNameTaken):
		api.Detail(w, http.StatusConflict, err.Error())
	default:
		slog.Error("expense store error", "error", err)
		api.Internal(w)
	}
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

	list, err := h.store.CreateList(r.Context(), req.GroupID, req.Name)
	if err != nil {
		respondError(w, err)
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

	lists, err := h.store.ListsForGroup(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, lists)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateItem
	if err := api.Decode(r, &req); err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.CreateExpense(ctx, req)
	if err != nil {
		respondError(w, err)
		return
	}

	// Calendar sync is best effort: the expense is already committed, so an
	// expansion failure is logged and never surfaced as an API error.
	if item.IsRecurring {
		memberIDs, err := h.groups.MemberIDs(ctx, item.GroupID)
		if err == nil {
			_, err = h.recurrence.Expand(ctx, item, memberIDs)
		}
		if err != nil {
			slog.Error("recurring expense calendar sync failed",
				"item_id", item.ID,
				"error", err,
			)
		}
	}

	api.JSON(w, http.StatusCreated, item)
}

func (h *Handler) groupExpenses(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "group_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group id")
		return
	}
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	items, err := h.store.ExpensesForGroup(r.Context(), groupID, includeDeleted)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, items)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.store.GetExpense(r.Context(), itemID)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid item id")
		return
	}

	deleted, err := h.store.SoftDelete(ctx, itemID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !deleted {
		api.Detail(w, http.StatusNotFound, ErrItemNotFound.Error())
		return
	}

	// Cleanup runs whether or not the item was recurring; the marker scan is
	// a harmless no-op for one-off expenses.
	removed, err := h.recurrence.Retract(ctx, itemID)
	if err != nil {
		slog.Error("calendar cleanup failed", "item_id", itemID, "error", err)
	} else if removed > 0 {
		slog.Info("removed calendar occurrences", "item_id", itemID, "count", removed)
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

func (h *Handler) settleSplit(w http.ResponseWriter, r *http.Request) {
	splitID, err := strconv.ParseInt(chi.URLParam(r, "split_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid split id")
		return
	}

	detail, err := h.store.SettleSplit(r.Context(), splitID)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, detail)
}

func (h *Handler) userSplits(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	groupID, err := optionalInt64(r, "group_id")
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group_id filter")
		return
	}
	settled, err := optionalBool(r, "settled")
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid settled filter")
		return
	}

	splits, err := h.store.SplitsForProfile(r.Context(), profileID, groupID, settled)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, splits)
}

func (h *Handler) userBalance(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	groupID, err := optionalInt64(r, "group_id")
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group_id filter")
		return
	}

	balance, err := h.store.NetBalance(r.Context(), profileID, groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, balance)
}

func (h *Handler) userBalances(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	groupID, err := optionalInt64(r, "group_id")
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group_id filter")
		return
	}

	balances, err := h.store.BalancesByCounterparty(r.Context(), profileID, groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, balances)
}

func (h *Handler) userRecent(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	limit := 3
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 50 {
			api.Detail(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
	}

	expenses, err := h.store.RecentExpenses(r.Context(), profileID, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, expenses)
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	groupID, err := optionalInt64(r, "group_id")
	if err != nil {
		api.Detail(w, http.StatusBadRequest, "invalid group_id filter")
		return
	}

	weeks := 12
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		weeks, err = strconv.Atoi(raw)
		if err != nil || weeks < 1 || weeks > 52 {
			api.Detail(w, http.StatusBadRequest, "weeks must be between 1 and 52")
			return
		}
	}

	stats, err := h.store.Statistics(r.Context(), profileID, groupID, weeks)
	if err != nil {
		respondError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, stats)
}

func optionalInt64(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
