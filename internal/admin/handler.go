// Package admin exposes the authenticated management API over the
// account registry. Authentication itself is middleware; handlers here
// assume the caller is already trusted.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chidiebere/linkrotor/aliasgen"
	"github.com/chidiebere/linkrotor/internal/accesslog"
	"github.com/chidiebere/linkrotor/internal/errx"
	"github.com/chidiebere/linkrotor/internal/httpx"
	"github.com/chidiebere/linkrotor/internal/registry"
)

const (
	// DefaultCreateRetries is how many generated aliases are tried
	// before giving up on a create without a custom alias.
	DefaultCreateRetries = 3

	defaultLogLimit = 50
	maxLogLimit     = 500
)

// AccountStore is the registry surface the admin API needs.
type AccountStore interface {
	Create(ctx context.Context, id, alias string) (registry.Account, error)
	List(ctx context.Context) ([]registry.Account, error)
	Delete(ctx context.Context, id string) error
	ResetAllStats(ctx context.Context) error
}

// AccessLog reads back recorded accesses.
type AccessLog interface {
	Recent(ctx context.Context, limit int) ([]accesslog.Entry, error)
}

// CreateAccountRequest is the JSON request body for creating an account.
type CreateAccountRequest struct {
	ID    string `json:"id"`
	Alias string `json:"alias,omitempty"`
}

// AccountResponse is the JSON shape of an account.
type AccountResponse struct {
	ID         string     `json:"id"`
	Alias      string     `json:"alias,omitempty"`
	ShortURL   string     `json:"short_url,omitempty"`
	ClickCount int64      `json:"click_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Handler provides the admin HTTP handlers.
type Handler struct {
	store       AccountStore
	accessLog   AccessLog // nil when access recording is disabled
	aliases     aliasgen.Generator
	aliasLength int
	retries     int
	logger      *slog.Logger
	baseURL     string
}

// HandlerConfig holds configuration for the admin handler.
type HandlerConfig struct {
	Store       AccountStore
	AccessLog   AccessLog // optional
	Aliases     aliasgen.Generator
	AliasLength int
	Retries     int // attempts when generating a unique alias
	Logger      *slog.Logger
	BaseURL     string // public base URL for constructing short links
}

// NewHandler creates an admin Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	aliases := cfg.Aliases
	if aliases == nil {
		aliases = aliasgen.NewLowerAlnum()
	}

	aliasLength := cfg.AliasLength
	if aliasLength <= 0 {
		aliasLength = aliasgen.DefaultLength
	}

	retries := cfg.Retries
	if retries <= 0 {
		retries = DefaultCreateRetries
	}

	return &Handler{
		store:       cfg.Store,
		accessLog:   cfg.AccessLog,
		aliases:     aliases,
		aliasLength: aliasLength,
		retries:     retries,
		logger:      logger,
		baseURL:     cfg.BaseURL,
	}
}

// CreateAccount handles POST /api/accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", httpx.GetRequestID(ctx))

	req, err := httpx.DecodeJSON[CreateAccountRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode create request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.ID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "id is required")
		return
	}

	var acct registry.Account
	if req.Alias != "" {
		acct, err = h.store.Create(ctx, req.ID, req.Alias)
	} else {
		acct, err = h.createWithGeneratedAlias(ctx, req.ID)
	}
	if err != nil {
		h.writeAccountError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "account created",
		"account_id", acct.ID,
		"alias", acct.Alias,
		"custom_alias", req.Alias != "",
	)

	httpx.WriteJSON(w, http.StatusCreated, h.toResponse(acct))
}

// createWithGeneratedAlias retries alias generation on conflicts, the
// same way generated slugs are retried: a collision against an existing
// alias just means rolling again.
func (h *Handler) createWithGeneratedAlias(ctx context.Context, id string) (registry.Account, error) {
	for range h.retries {
		alias, err := h.aliases.Generate(h.aliasLength)
		if err != nil {
			return registry.Account{}, errx.E("admin.createWithGeneratedAlias", errx.Unavailable, err)
		}

		acct, err := h.store.Create(ctx, id, alias)
		if err == nil {
			return acct, nil
		}

		// A duplicate id can never be fixed by a new alias.
		if !errors.Is(err, registry.ErrDuplicateAlias) {
			return registry.Account{}, err
		}
	}

	return registry.Account{}, errx.E("admin.createWithGeneratedAlias", errx.Unavailable,
		errors.New("could not generate unique alias after retries"))
}

// ListAccounts handles GET /api/accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.store.List(ctx)
	if err != nil {
		h.writeAccountError(ctx, w, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, acct := range accounts {
		resp = append(resp, h.toResponse(acct))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// DeleteAccount handles DELETE /api/accounts/{id}.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "id is required")
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		h.writeAccountError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "account deleted",
		"request_id", httpx.GetRequestID(ctx),
		"account_id", id,
	)

	w.WriteHeader(http.StatusNoContent)
}

// ResetStats handles POST /api/stats/reset.
func (h *Handler) ResetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.ResetAllStats(ctx); err != nil {
		h.writeAccountError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "stats reset",
		"request_id", httpx.GetRequestID(ctx),
	)

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RecentAccesses handles GET /api/accesslog.
func (h *Handler) RecentAccesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.accessLog == nil {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "access logging is disabled")
		return
	}

	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxLogLimit)
	}

	entries, err := h.accessLog.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read access log",
			"request_id", httpx.GetRequestID(ctx),
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"unable to read the access log at this time")
		return
	}

	if entries == nil {
		entries = []accesslog.Entry{}
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) toResponse(acct registry.Account) AccountResponse {
	resp := AccountResponse{
		ID:         acct.ID,
		Alias:      acct.Alias,
		ClickCount: acct.ClickCount,
		LastUsedAt: acct.LastUsedAt,
		CreatedAt:  acct.CreatedAt,
	}
	if acct.Alias != "" && h.baseURL != "" {
		resp.ShortURL = h.baseURL + "/" + acct.Alias
	}
	return resp
}

// writeAccountError maps registry errors onto admin API responses.
func (h *Handler) writeAccountError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"request_id", httpx.GetRequestID(ctx),
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Conflict:
		h.logger.WarnContext(ctx, "account conflict", logAttrs...)
		message := "this identifier is already taken"
		if errors.Is(err, registry.ErrDuplicateAlias) {
			message = "this alias is already taken"
		}
		httpx.WriteError(w, http.StatusConflict, "conflict", message)

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid account request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())

	case errx.NotFound:
		h.logger.WarnContext(ctx, "account not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found", "account doesn't exist")

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "storage unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"unable to complete the operation at this time")

	default:
		h.logger.ErrorContext(ctx, "unexpected admin error", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"unable to complete the operation at this time")
	}
}
