package fridges

import (
	"net/http"

	"fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/response"
	"github.com/go-chi/chi/v5"
)

type createFridgeRequest struct {
	Name string `json:"name" validate:"max=80"`
}

type joinFridgeRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

type renameFridgeRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type transferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id" validate:"required"`
}

type fridgeListResponse struct {
	Items []response.Fridge `json:"items"`
}

type memberListResponse struct {
	Items []response.Member `json:"items"`
}

func (h *Handlers) ListFridges(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	fridges, err := h.Fridges.ListFridges(r.Context(), user.ID)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.list", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, fridgeListResponse{Items: response.FromUserFridges(fridges)})
}

func (h *Handlers) CreateFridge(w http.ResponseWriter, r *http.Request) {
	var req createFridgeRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Fridges.CreateFridge(r.Context(), user.ID, req.Name)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.create", err, "user_id", user.ID)
		return
	}

	h.log.Info("fridges.create: fridge created", "user_id", user.ID, "fridge_id", result.ID)
	writeJSON(w, http.StatusCreated, response.FromFridge(result))
}

func (h *Handlers) JoinFridge(w http.ResponseWriter, r *http.Request) {
	var req joinFridgeRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Fridges.Join(r.Context(), user.ID, req.Code)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.join", err, "user_id", user.ID, "code", req.Code)
		return
	}

	h.log.Info("fridges.join: member joined", "user_id", user.ID, "fridge_id", result.ID)
	writeJSON(w, http.StatusOK, response.FromFridge(result))
}

func (h *Handlers) GetFridge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	result, err := h.Fridges.GetFridge(r.Context(), user.ID, fridgeID)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.get", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromFridge(result))
}

func (h *Handlers) RenameFridge(w http.ResponseWriter, r *http.Request) {
	var req renameFridgeRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	result, err := h.Fridges.RenameFridge(r.Context(), user.ID, fridgeID, req.Name)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.rename", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromFridge(result))
}

func (h *Handlers) DeleteFridge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	if err := h.Fridges.DeleteFridge(r.Context(), user.ID, fridgeID); err != nil {
		common.WriteDomainError(w, h.log, "fridges.delete", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}

	h.log.Info("fridges.delete: fridge deleted", "user_id", user.ID, "fridge_id", fridgeID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LeaveFridge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	if err := h.Fridges.Leave(r.Context(), user.ID, fridgeID); err != nil {
		common.WriteDomainError(w, h.log, "fridges.leave", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}

	h.log.Info("fridges.leave: member left", "user_id", user.ID, "fridge_id", fridgeID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req transferOwnershipRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	result, err := h.Fridges.TransferOwnership(r.Context(), user.ID, fridgeID, req.NewOwnerID)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.transfer", err, "user_id", user.ID, "fridge_id", fridgeID, "new_owner_id", req.NewOwnerID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromFridge(result))
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	members, err := h.Fridges.ListMembers(r.Context(), user.ID, fridgeID)
	if err != nil {
		common.WriteDomainError(w, h.log, "fridges.list_members", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, memberListResponse{Items: response.FromMembers(members)})
}
