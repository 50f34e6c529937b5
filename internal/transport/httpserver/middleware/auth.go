package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"inspire-orcid/pkg/logger"
)

// APITokenAuth guards the API with one shared bearer token. With an empty
// token every request is let through, which is meant for local development.
type APITokenAuth struct {
	token []byte
	log   logger.Logger
}

func NewAPITokenAuth(token string, log logger.Logger) *APITokenAuth {
	token = strings.TrimSpace(token)
	if token == "" {
		log.Warn("auth: API_TOKEN not set, api is unauthenticated")
	}
	return &APITokenAuth{token: []byte(token), log: log}
}

func (a *APITokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.token) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), a.token) != 1 {
			a.log.Warn("auth: rejected request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
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

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
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
