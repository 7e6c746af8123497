// Package accesslog appends an immutable usage entry for every
// successful redirect. Entries are audit data: written once, never
// updated, and a write failure must never surface to the request that
// triggered it.
package accesslog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chidiebere/linkrotor/internal/idgen"
	"github.com/chidiebere/linkrotor/internal/kv"
)

const entryKeyPrefix = "access:"

// Entry is a single recorded access.
type Entry struct {
	AccountID     string    `json:"account_id"`
	SourceAddress string    `json:"source_address"`
	Timestamp     time.Time `json:"timestamp"`
}

// Recorder appends access entries to the shared key-value store.
type Recorder struct {
	store  kv.Store
	logger *slog.Logger
	ids    idgen.Generator
	now    func() time.Time
}

// Config holds optional Recorder dependencies.
type Config struct {
	Logger *slog.Logger
	IDs    idgen.Generator
	Now    func() time.Time // test hook; defaults to time.Now
}

// New creates a Recorder over the given store.
func New(store kv.Store, cfg *Config) *Recorder {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids := cfg.IDs
	if ids == nil {
		// V7 keeps the random suffix roughly time-ordered too.
		ids = idgen.NewV7()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Recorder{
		store:  store,
		logger: logger,
		ids:    ids,
		now:    now,
	}
}

// Record appends one entry. The key carries the timestamp for ordering
// plus a unique suffix, so concurrent recordings in the same
// millisecond never collide. Storage failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, accountID, sourceAddr string) {
	ts := r.now().UTC()

	entry := Entry{
		AccountID:     accountID,
		SourceAddress: sourceAddr,
		Timestamp:     ts,
	}

	value, err := json.Marshal(entry)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to encode access entry",
			"account_id", accountID,
			"error", err,
		)
		return
	}

	suffix, err := r.ids.Generate()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to generate access entry suffix",
			"account_id", accountID,
			"error", err,
		)
		return
	}

	key := fmt.Sprintf("%s%020d:%s", entryKeyPrefix, ts.UnixNano(), suffix)
	if err := r.store.Put(ctx, key, value); err != nil {
		r.logger.ErrorContext(ctx, "failed to record access",
			"account_id", accountID,
			"key", key,
			"error", err,
		)
	}
}

// Recent returns up to limit entries, newest first. Entries that fail
// to decode are skipped.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	keys, err := r.store.List(ctx, entryKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list access entries: %w", err)
	}

	// Keys sort ascending by timestamp; walk from the end.
	entries := make([]Entry, 0, min(limit, len(keys)))
	for i := len(keys) - 1; i >= 0 && len(entries) < limit; i-- {
		value, err := r.store.Get(ctx, keys[i])
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(value, &entry); err != nil {
			r.logger.WarnContext(ctx, "skipping undecodable access entry",
				"key", keys[i],
				"error", err,
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
