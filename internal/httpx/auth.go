package httpx

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
)

// BasicAuth is a middleware that guards a handler with HTTP Basic
// credentials checked against a fixed username and password. Failures
// get a 401 with a challenge header so browsers prompt for credentials.
func BasicAuth(username, password, realm string, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()

			// Constant-time comparison to avoid leaking credential
			// length or prefix through response timing.
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

			if !ok || !userMatch || !passMatch {
				logger.WarnContext(r.Context(), "rejected admin request",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
				WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
