package shopping

import (
	"net/http"
	"strings"

	"fridge-app-go/internal/domain/inventory"
	shoppingdomain "fridge-app-go/internal/domain/shopping"
	"fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/response"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type selectionRequest struct {
	GroupID  string          `json:"group_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type promoteRequest struct {
	Source     string             `json:"source" validate:"omitempty,oneof=fridge threshold"`
	Selections []selectionRequest `json:"selections" validate:"required,min=1"`
}

type updateEntryRequest struct {
	Quantity         *decimal.Decimal `json:"quantity"`
	TargetExpireDate *string          `json:"target_expire_date"`
}

type entryListResponse struct {
	Items []response.ShoppingEntry `json:"items"`
}

func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	entries, err := h.Shopping.ListEntries(r.Context(), user.ID, fridgeID)
	if err != nil {
		common.WriteDomainError(w, h.log, "shopping.list", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, entryListResponse{Items: response.FromShoppingEntries(entries)})
}

// Promote skips invalid selections, so they are not validated here.
func (h *Handlers) Promote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	selections := make([]shoppingdomain.Selection, 0, len(req.Selections))
	for _, selection := range req.Selections {
		selections = append(selections, shoppingdomain.Selection{GroupID: strings.TrimSpace(selection.GroupID), Quantity: selection.Quantity})
	}

	entries, err := h.Shopping.Promote(r.Context(), fridgeID, user.ID, shoppingdomain.Source(req.Source), selections)
	if err != nil {
		common.WriteDomainError(w, h.log, "shopping.promote", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusCreated, entryListResponse{Items: response.FromShoppingEntries(entries)})
}

func (h *Handlers) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if !common.Bind(w, r, &req) {
		return
	}
	in := shoppingdomain.UpdateInput{Quantity: req.Quantity}
	if req.TargetExpireDate != nil {
		target, err := common.ParseDate(*req.TargetExpireDate)
		if err != nil || target == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "target_expire_date must be YYYY-MM-DD or RFC 3339")
			return
		}
		in.TargetExpireDate = target
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")
	entryID := chi.URLParam(r, "entry_id")

	entry, err := h.Shopping.UpdateEntry(r.Context(), user.ID, fridgeID, entryID, in)
	if err != nil {
		common.WriteDomainError(w, h.log, "shopping.update", err, "user_id", user.ID, "fridge_id", fridgeID, "entry_id", entryID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromShoppingEntry(entry))
}

func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")
	entryID := chi.URLParam(r, "entry_id")

	if err := h.Shopping.DeleteEntry(r.Context(), user.ID, fridgeID, entryID); err != nil {
		common.WriteDomainError(w, h.log, "shopping.delete", err, "user_id", user.ID, "fridge_id", fridgeID, "entry_id", entryID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkPurchased(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")
	entryID := chi.URLParam(r, "entry_id")

	actor := inventory.Actor{ID: user.ID, Name: user.Label()}
	item, err := h.Shopping.MarkPurchased(r.Context(), fridgeID, actor, entryID)
	if err != nil {
		common.WriteDomainError(w, h.log, "shopping.purchase", err, "user_id", user.ID, "fridge_id", fridgeID, "entry_id", entryID)
		return
	}

	h.log.Info("shopping.purchase: restocked", "user_id", user.ID, "fridge_id", fridgeID, "stock_id", item.ID)
	writeJSON(w, http.StatusCreated, response.FromStockItem(item))
}

func (h *Handlers) Candidates(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.Shopping.Candidates(r.Context(), user.ID)
	if err != nil {
		common.WriteDomainError(w, h.log, "shopping.candidates", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromCandidates(view))
}
