package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newAuthTestHandler(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BasicAuth("admin", "sekret", "linkrotor admin", logger)(next)
}

func TestBasicAuth(t *testing.T) {
	t.Run("allows valid credentials", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.SetBasicAuth("admin", "sekret")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("rejects missing credentials with challenge", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		challenge := rec.Header().Get("WWW-Authenticate")
		if !strings.HasPrefix(challenge, "Basic realm=") {
			t.Errorf("WWW-Authenticate = %q, want Basic realm challenge", challenge)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if resp.Error != "unauthorized" {
			t.Errorf("error code = %q, want %q", resp.Error, "unauthorized")
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.SetBasicAuth("admin", "wrong")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("rejects wrong username", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.SetBasicAuth("intruder", "sekret")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
