package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChain(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(tag("first"), tag("second"), tag("third"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "third", "handler"}
	if len(order) != len(want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID when header absent", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("no request ID in context")
		}
		if got := rec.Header().Get(RequestIDHeader); got != seen {
			t.Errorf("response header %q = %q, want %q", RequestIDHeader, got, seen)
		}
	})

	t.Run("reuses inbound header", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "req-42" {
			t.Errorf("request ID = %q, want %q", seen, "req-42")
		}
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("returns empty string when absent", func(t *testing.T) {
		if got := GetRequestID(context.Background()); got != "" {
			t.Errorf("GetRequestID() = %q, want empty", got)
		}
	})

	t.Run("round trips through WithRequestID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-7")
		if got := GetRequestID(ctx); got != "req-7" {
			t.Errorf("GetRequestID() = %q, want %q", got, "req-7")
		}
	})
}

func TestRecovery(t *testing.T) {
	var logs strings.Builder
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Error("panic was not logged")
	}
}

func TestLogger(t *testing.T) {
	var logs strings.Builder
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	out := logs.String()
	if !strings.Contains(out, "status=418") {
		t.Errorf("log output missing status: %s", out)
	}
	if !strings.Contains(out, "path=/brew") {
		t.Errorf("log output missing path: %s", out)
	}
}

func TestCORS(t *testing.T) {
	t.Run("allows all origins by default", func(t *testing.T) {
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
		}
	})

	t.Run("answers preflight with 204", func(t *testing.T) {
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler should not run on preflight")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("echoes only allowed origins when configured", func(t *testing.T) {
		handler := CORS([]string{"https://admin.example.com"})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})
}
