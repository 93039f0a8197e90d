package inventory

import (
	"net/http"

	inventorydomain "fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/response"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type groupRemovalRequest struct {
	GroupID  string           `json:"group_id" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}

type bulkRemoveRequest struct {
	Groups []groupRemovalRequest `json:"groups" validate:"required,min=1,dive"`
}

type bulkRemoveResponse struct {
	Groups       []response.GroupRemoval `json:"groups"`
	TotalRemoved decimal.Decimal         `json:"total_removed"`
}

type historyListResponse struct {
	Items []response.History `json:"items"`
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	filter, err := inventorydomain.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		common.WriteDomainError(w, h.log, "groups.list", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}

	view, err := h.Inventory.Groups(r.Context(), user.ID, fridgeID, filter)
	if err != nil {
		common.WriteDomainError(w, h.log, "groups.list", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromGroupsView(view))
}

func (h *Handlers) BulkRemove(w http.ResponseWriter, r *http.Request) {
	var req bulkRemoveRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	requests := make([]inventorydomain.GroupRemoval, 0, len(req.Groups))
	for _, group := range req.Groups {
		requests = append(requests, inventorydomain.GroupRemoval{GroupID: group.GroupID, Quantity: *group.Quantity})
	}

	result, err := h.Inventory.BulkRemove(r.Context(), fridgeID, actorFrom(user), requests)
	if err != nil {
		if result != nil {
			common.WritePartialError(w, h.log, "groups.remove", err, toBulkRemoveResponse(result), "user_id", user.ID, "fridge_id", fridgeID)
			return
		}
		common.WriteDomainError(w, h.log, "groups.remove", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, toBulkRemoveResponse(result))
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")
	groupID, err := pathParam(r, "group_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "group_id is not a valid path segment")
		return
	}

	result, err := h.Inventory.DeleteGroup(r.Context(), fridgeID, actorFrom(user), groupID)
	if err != nil {
		if result != nil {
			common.WritePartialError(w, h.log, "groups.delete", err, response.FromGroupRemoval(*result), "user_id", user.ID, "fridge_id", fridgeID, "group_id", groupID)
			return
		}
		common.WriteDomainError(w, h.log, "groups.delete", err, "user_id", user.ID, "fridge_id", fridgeID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromGroupRemoval(*result))
}

func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	limit, err := common.ParseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
		return
	}

	entries, err := h.Inventory.ListHistory(r.Context(), user.ID, fridgeID, limit)
	if err != nil {
		common.WriteDomainError(w, h.log, "history.list", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, historyListResponse{Items: response.FromHistory(entries)})
}

func toBulkRemoveResponse(result *inventorydomain.BulkRemoveResult) bulkRemoveResponse {
	groups := make([]response.GroupRemoval, 0, len(result.Groups))
	for _, group := range result.Groups {
		groups = append(groups, response.FromGroupRemoval(group))
	}
	return bulkRemoveResponse{Groups: groups, TotalRemoved: result.TotalRemoved()}
}
