package inventory

import (
	"net/http"
	"net/url"

	inventorydomain "fridge-app-go/internal/domain/inventory"
	commonhandler "fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func currentUser(w http.ResponseWriter, r *http.Request) (middleware.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	}
	return user, ok
}

func actorFrom(user middleware.User) inventorydomain.Actor {
	return inventorydomain.Actor{ID: user.ID, Name: user.Label()}
}

// pathParam decodes a route parameter exactly once. chi matches on RawPath
// when the request has one, which leaves escapes such as %2F in the value.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}
