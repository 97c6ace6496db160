package api

import (
	"crypto/subtle"
	"net/http"

	"deskhive/internal/config"
)

// HTTPAuth validates the API key header against the configured client keys
// using constant-time comparison.
type HTTPAuth struct {
	cfg config.APIAuthConfig
}

func NewHTTPAuth(cfg config.APIAuthConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg}
}

// clientName returns the matching client's name, or false when the key is
// unknown.
func (a *HTTPAuth) clientName(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, client := range a.cfg.APIKeys {
		if subtle.ConstantTimeCompare([]byte(client.Key), []byte(key)) == 1 {
			return client.Name, true
		}
	}
	return "", false
}

// Wrap enforces API-key auth on every request except the health and metrics
// endpoints.
func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled || r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(a.cfg.HeaderAPIKey)
		name, ok := a.clientName(key)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClientName(r.Context(), name)))
	})
}
