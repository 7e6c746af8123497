// Package registry owns the account set and the invariant that every
// account is reachable both by its primary identifier and, when set, by
// its alias. The backing store is a flat key-value namespace with no
// transactions, so multi-key consistency comes from write ordering, not
// atomicity: the alias entry is written before the primary on create
// (with a compensating delete on failure) and removed before the
// primary on delete. A crash between the two writes can leave a stray
// alias entry for a moment; the ordering keeps that window from ever
// producing an account that resolves by alias after its primary record
// is gone.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chidiebere/linkrotor/internal/errx"
	"github.com/chidiebere/linkrotor/internal/kv"
)

const (
	accountKeyPrefix = "account:"
	aliasKeyPrefix   = "alias:"
)

var (
	// ErrDuplicateID is returned when creating an account whose primary
	// identifier is already taken.
	ErrDuplicateID = errors.New("primary identifier already in use")

	// ErrDuplicateAlias is returned when creating an account whose
	// alias is already taken.
	ErrDuplicateAlias = errors.New("alias already in use")

	// ErrNotFound is returned when no account matches the given key.
	ErrNotFound = errors.New("account not found")
)

// Registry maintains the two-way account index on top of a kv.Store.
type Registry struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time
}

// Config holds optional Registry dependencies.
type Config struct {
	Logger *slog.Logger
	Now    func() time.Time // test hook; defaults to time.Now
}

// New creates a Registry over the given store.
func New(store kv.Store, cfg *Config) *Registry {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Registry{
		store:  store,
		logger: logger,
		now:    now,
	}
}

func accountKey(id string) string  { return accountKeyPrefix + id }
func aliasKey(alias string) string { return aliasKeyPrefix + alias }

// Create registers a new account under id, with an optional alias.
// Fails with a Conflict kind if either key is already claimed.
func (r *Registry) Create(ctx context.Context, id, alias string) (Account, error) {
	const op = "registry.Create"

	if err := ValidateID(id); err != nil {
		return Account{}, errx.E(op, errx.Invalid, err)
	}
	if alias != "" {
		if err := ValidateAlias(alias); err != nil {
			return Account{}, errx.E(op, errx.Invalid, err)
		}
	}

	taken, err := r.exists(ctx, accountKey(id))
	if err != nil {
		return Account{}, errx.E(op, errx.Unavailable, err)
	}
	if taken {
		return Account{}, errx.E(op, errx.Conflict, ErrDuplicateID)
	}

	if alias != "" {
		taken, err = r.exists(ctx, aliasKey(alias))
		if err != nil {
			return Account{}, errx.E(op, errx.Unavailable, err)
		}
		if taken {
			return Account{}, errx.E(op, errx.Conflict, ErrDuplicateAlias)
		}
	}

	acct := Account{
		ID:        id,
		Alias:     alias,
		CreatedAt: r.now().UTC(),
	}

	value, err := EncodeAccount(acct)
	if err != nil {
		return Account{}, errx.E(op, errx.Internal, err)
	}

	// Alias entry goes in first. If the primary write then fails, the
	// compensating delete below frees the alias again, so no alias ever
	// stays claimed without its account being readable.
	if alias != "" {
		if err := r.store.Put(ctx, aliasKey(alias), value); err != nil {
			return Account{}, errx.E(op, errx.Unavailable, err)
		}
	}

	if err := r.store.Put(ctx, accountKey(id), value); err != nil {
		if alias != "" {
			if delErr := r.store.Delete(ctx, aliasKey(alias)); delErr != nil {
				r.logger.ErrorContext(ctx, "failed to roll back alias entry",
					"alias", alias,
					"account_id", id,
					"error", delErr,
				)
			}
		}
		return Account{}, errx.E(op, errx.Unavailable, err)
	}

	return acct, nil
}

// Get returns the account stored under the primary identifier.
func (r *Registry) Get(ctx context.Context, id string) (Account, error) {
	const op = "registry.Get"
	return r.load(ctx, op, accountKey(id))
}

// ResolveByAlias returns the account stored under the alias key.
func (r *Registry) ResolveByAlias(ctx context.Context, alias string) (Account, error) {
	const op = "registry.ResolveByAlias"
	return r.load(ctx, op, aliasKey(alias))
}

// List returns every account, in no guaranteed order. Alias entries and
// records that fail to decode are skipped; a skipped record is logged
// since it indicates store corruption.
func (r *Registry) List(ctx context.Context) ([]Account, error) {
	const op = "registry.List"

	keys, err := r.store.List(ctx, accountKeyPrefix)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}

	accounts := make([]Account, 0, len(keys))
	for _, key := range keys {
		value, err := r.store.Get(ctx, key)
		if errors.Is(err, kv.ErrKeyNotFound) {
			// Deleted between List and Get; not our problem.
			continue
		}
		if err != nil {
			return nil, errx.E(op, errx.Unavailable, err)
		}

		acct, err := DecodeAccount(value)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping undecodable account record",
				"key", key,
				"error", err,
			)
			continue
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// Update rewrites both index entries from the given record. Identity
// must not change through Update; callers model that as delete+create.
func (r *Registry) Update(ctx context.Context, acct Account) error {
	const op = "registry.Update"

	value, err := EncodeAccount(acct)
	if err != nil {
		return errx.E(op, errx.Invalid, err)
	}

	// Source of truth first, alias pointer second.
	if err := r.store.Put(ctx, accountKey(acct.ID), value); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	if acct.Alias != "" {
		if err := r.store.Put(ctx, aliasKey(acct.Alias), value); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
	}
	return nil
}

// Delete removes an account and its alias entry. The alias entry goes
// first so a partial failure cannot leave an alias resolving to a
// deleted account; the primary removal is attempted even when the
// record no longer decodes.
func (r *Registry) Delete(ctx context.Context, id string) error {
	const op = "registry.Delete"

	value, err := r.store.Get(ctx, accountKey(id))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return errx.E(op, errx.NotFound, ErrNotFound)
	}
	if err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	acct, decErr := DecodeAccount(value)
	if decErr != nil {
		r.logger.WarnContext(ctx, "deleting account with undecodable record",
			"account_id", id,
			"error", decErr,
		)
	} else if acct.Alias != "" {
		if err := r.store.Delete(ctx, aliasKey(acct.Alias)); err != nil {
			// Keep going: removing the primary record matters more than
			// a dangling alias entry, which the ordering note above
			// already accounts for.
			r.logger.ErrorContext(ctx, "failed to delete alias entry",
				"account_id", id,
				"alias", acct.Alias,
				"error", err,
			)
		}
	}

	if err := r.store.Delete(ctx, accountKey(id)); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

// ResetAllStats zeroes click counts and clears last-used timestamps on
// every account. Running it twice is the same as running it once.
func (r *Registry) ResetAllStats(ctx context.Context) error {
	const op = "registry.ResetAllStats"

	accounts, err := r.List(ctx)
	if err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}

	var failed []error
	for _, acct := range accounts {
		acct.ClickCount = 0
		acct.LastUsedAt = nil
		if err := r.Update(ctx, acct); err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return errx.E(op, errx.Unavailable, errors.Join(failed...))
	}
	return nil
}

func (r *Registry) load(ctx context.Context, op, key string) (Account, error) {
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return Account{}, errx.E(op, errx.NotFound, ErrNotFound)
	}
	if err != nil {
		return Account{}, errx.E(op, errx.Unavailable, err)
	}

	acct, err := DecodeAccount(value)
	if err != nil {
		return Account{}, errx.E(op, errx.Internal, err)
	}
	return acct, nil
}

func (r *Registry) exists(ctx context.Context, key string) (bool, error) {
	_, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
