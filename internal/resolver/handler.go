package resolver

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/chidiebere/linkrotor/internal/errx"
	"github.com/chidiebere/linkrotor/internal/httpx"
)

// Handler serves the public redirect surface.
type Handler struct {
	resolver *Resolver
	logger   *slog.Logger
	target   string
}

// HandlerConfig holds configuration for the redirect handler.
type HandlerConfig struct {
	Resolver *Resolver
	Logger   *slog.Logger

	// TargetBaseURL is the destination prefix; the selected account's
	// id is appended as the final path segment
	// (e.g. "https://instagram.com" -> "https://instagram.com/alice").
	TargetBaseURL string
}

// NewHandler creates a redirect handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		resolver: cfg.Resolver,
		logger:   logger,
		target:   strings.TrimRight(cfg.TargetBaseURL, "/"),
	}
}

// Redirect handles GET requests for both the root path and alias paths,
// answering with a 302 to the selected account's destination.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segment := r.PathValue("alias")

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"segment", segment,
	)

	acct, err := h.resolver.Resolve(ctx, segment, clientAddr(r))
	if err != nil {
		kind := errx.KindOf(err)
		if kind == errx.NotFound {
			logger.InfoContext(ctx, "no account for path")
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no such link")
			return
		}

		logger.ErrorContext(ctx, "resolution failed",
			"error", err.Error(),
			"error_kind", kind,
			"operation", errx.OpOf(err),
		)
		httpx.WriteError(w, httpx.ErrorKindToStatus(kind), httpx.ErrorKindToCode(kind),
			"unable to resolve this link at this time")
		return
	}

	destination := fmt.Sprintf("%s/%s", h.target, acct.ID)

	logger.InfoContext(ctx, "redirecting",
		"account_id", acct.ID,
		"destination", destination,
	)

	http.Redirect(w, r, destination, http.StatusFound)
}

// clientAddr extracts the requesting client's address, preferring the
// first hop recorded by an upstream proxy.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
