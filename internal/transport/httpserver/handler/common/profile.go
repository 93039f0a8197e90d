package common

import (
	"net/http"
	"strings"

	"fridge-app-go/internal/transport/httpserver/handler/response"
	"fridge-app-go/internal/transport/httpserver/middleware"
)

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

type setCurrentFridgeRequest struct {
	FridgeID *string `json:"fridge_id" validate:"omitempty,uuid"`
}

type currentFridgeResponse struct {
	FridgeID *string `json:"fridge_id"`
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	p, err := h.Profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		WriteDomainError(w, h.log, "profile.get", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromProfile(p))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !Bind(w, r, &req) {
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	p, err := h.Profiles.UpdateProfile(r.Context(), user.ID, req.DisplayName)
	if err != nil {
		WriteDomainError(w, h.log, "profile.update", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromProfile(p))
}

func (h *Handlers) SetCurrentFridge(w http.ResponseWriter, r *http.Request) {
	var req setCurrentFridgeRequest
	if !Bind(w, r, &req) {
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Fridges.SetCurrentFridge(r.Context(), user.ID, req.FridgeID); err != nil {
		WriteDomainError(w, h.log, "profile.current_fridge", err, "user_id", user.ID)
		return
	}
	current := req.FridgeID
	if current != nil && strings.TrimSpace(*current) == "" {
		current = nil
	}
	writeJSON(w, http.StatusOK, currentFridgeResponse{FridgeID: current})
}
