package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"fridge-app-go/internal/config"
	profiledomain "fridge-app-go/internal/domain/profile"
	"fridge-app-go/pkg/logger"
)

type SupabaseAuth struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	profiles ProfileEnsurer
	log      logger.Logger
	skipAuth bool
	mockUser User
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type userResponse struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Sub          string                 `json:"sub"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	User         struct {
		ID  string `json:"id"`
		Sub string `json:"sub"`
	} `json:"user"`
}

// User is the verified caller. DisplayName comes from the stored profile.
type User struct {
	ID          string
	Email       string
	Name        string
	DisplayName string
}

// Label is the name shown in audit records.
func (u User) Label() string {
	return firstNonEmpty(u.DisplayName, u.Name, u.Email, u.ID)
}

// ProfileEnsurer bootstraps the profile of every authenticated user.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID, email, name string) (*profiledomain.Profile, error)
}

func NewSupabaseAuth(cfg config.SupabaseConfig, profiles ProfileEnsurer, log logger.Logger) *SupabaseAuth {
	baseURL := strings.TrimRight(cfg.URL, "/")
	timeout := cfg.AuthTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &SupabaseAuth{
		baseURL: baseURL,
		apiKey:  cfg.PublishableKey,
		client: &http.Client{
			Timeout: timeout,
		},
		profiles: profiles,
		log:      log,
		skipAuth: cfg.SkipAuth,
		mockUser: User{
			ID:    strings.TrimSpace(cfg.MockUserID),
			Email: strings.TrimSpace(cfg.MockUserEmail),
			Name:  strings.TrimSpace(cfg.MockUserName),
		},
	}
}

func (a *SupabaseAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			user := a.mockUser
			if user.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			a.serve(next, w, r, user)
			return
		}

		if a.baseURL == "" || a.apiKey == "" {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			token, ok = queryToken(r)
		}
		if !ok {
			unauthorized(w)
			return
		}

		user, ok := a.verify(r.Context(), token)
		if !ok {
			unauthorized(w)
			return
		}
		a.serve(next, w, r, user)
	})
}

func (a *SupabaseAuth) verify(ctx context.Context, token string) (User, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("auth: identity provider unreachable", "err", err)
		return User{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, false
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return User{}, false
	}

	userID := firstNonEmpty(payload.ID, payload.Sub, payload.User.ID, payload.User.Sub)
	if userID == "" {
		return User{}, false
	}

	return User{
		ID:    userID,
		Email: payload.Email,
		Name:  firstNonEmpty(stringFromMap(payload.UserMetadata, "name"), stringFromMap(payload.UserMetadata, "full_name")),
	}, true
}

func (a *SupabaseAuth) serve(next http.Handler, w http.ResponseWriter, r *http.Request, user User) {
	if a.profiles != nil {
		p, err := a.profiles.EnsureProfile(r.Context(), user.ID, user.Email, user.Name)
		if err != nil {
			a.log.InternalError("auth: ensure profile failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "transient", "something went wrong, please retry")
			return
		}
		user.DisplayName = p.DisplayName
	}
	next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// queryToken lets EventSource clients, which cannot set headers, authenticate
// the stream endpoint.
func queryToken(r *http.Request) (string, bool) {
	if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/stream") {
		return "", false
	}
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func stringFromMap(values map[string]interface{}, key string) string {
	if values == nil {
		return ""
	}
	value, ok := values[key]
	if !ok {
		return ""
	}
	parsed, ok := value.(string)
	if !ok {
		return ""
	}
	return parsed
}
