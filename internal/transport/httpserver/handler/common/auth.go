package common

import (
	"net/http"

	"fridge-app-go/internal/transport/httpserver/handler/response"
	"fridge-app-go/internal/transport/httpserver/middleware"
)

type authMeResponse struct {
	ID      string            `json:"id"`
	Email   string            `json:"email"`
	Name    string            `json:"name"`
	Profile *response.Profile `json:"profile"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result := authMeResponse{ID: user.ID, Email: user.Email, Name: user.Name}
	p, err := h.Profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		WriteDomainError(w, h.log, "auth.me", err, "user_id", user.ID)
		return
	}
	view := response.FromProfile(p)
	result.Profile = &view

	writeJSON(w, http.StatusOK, result)
}

// SignOut stops every live session of the caller. Token revocation stays
// with the identity provider.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	closed := 0
	if h.Sessions != nil {
		closed = h.Sessions.CloseUser(user.ID)
	}
	h.log.Info("auth.signout: sessions closed", "user_id", user.ID, "sessions", closed)
	w.WriteHeader(http.StatusNoContent)
}
