// Package resolver decides which account an inbound path denotes and
// applies the usage side effects of a successful resolution.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chidiebere/linkrotor/internal/errx"
	"github.com/chidiebere/linkrotor/internal/registry"
)

// ErrNoMatch is returned when no account satisfies the requested path.
// The transport maps it to a 404; it is an expected miss, not a fault.
var ErrNoMatch = errors.New("no account matches the requested path")

// Directory is the account lookup surface the resolver needs.
type Directory interface {
	Get(ctx context.Context, id string) (registry.Account, error)
	ResolveByAlias(ctx context.Context, alias string) (registry.Account, error)
	List(ctx context.Context) ([]registry.Account, error)
	Update(ctx context.Context, acct registry.Account) error
}

// Recorder appends access entries. Implementations never return errors
// to the resolution path.
type Recorder interface {
	Record(ctx context.Context, accountID, sourceAddr string)
}

// Resolver maps path segments to accounts.
type Resolver struct {
	directory   Directory
	recorder    Recorder // nil disables access recording
	policy      Policy
	logger      *slog.Logger
	resolveIDs  bool
	unaliasedOK bool
	now         func() time.Time
}

// Config holds Resolver dependencies and deployment choices.
type Config struct {
	Directory Directory
	Recorder  Recorder // optional
	Policy    Policy   // defaults to uniform random
	Logger    *slog.Logger

	// ResolvePrimaryIDs also matches path segments against primary
	// identifiers when no alias matches.
	ResolvePrimaryIDs bool

	// RotateUnaliasedOnly restricts root-path rotation to accounts
	// without an alias, so aliased accounts are reached only through
	// their direct link.
	RotateUnaliasedOnly bool

	Now func() time.Time // test hook; defaults to time.Now
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.Policy
	if policy == nil {
		policy = NewRandomPolicy()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Resolver{
		directory:   cfg.Directory,
		recorder:    cfg.Recorder,
		policy:      policy,
		logger:      logger,
		resolveIDs:  cfg.ResolvePrimaryIDs,
		unaliasedOK: cfg.RotateUnaliasedOnly,
		now:         now,
	}
}

// Resolve maps segment to an account. An empty segment selects one
// account from the eligible set per the configured policy. On success
// the account's click count and last-used timestamp are updated and the
// access is recorded; failures of either side effect are logged and do
// not fail the resolution.
func (r *Resolver) Resolve(ctx context.Context, segment, sourceAddr string) (registry.Account, error) {
	const op = "resolver.Resolve"

	var (
		acct registry.Account
		err  error
	)

	if segment != "" {
		acct, err = r.resolveSegment(ctx, segment)
	} else {
		acct, err = r.selectFromRotation(ctx)
	}
	if err != nil {
		return registry.Account{}, errx.E(op, errx.KindOf(err), err)
	}

	return r.touch(ctx, acct, sourceAddr), nil
}

func (r *Resolver) resolveSegment(ctx context.Context, segment string) (registry.Account, error) {
	acct, err := r.directory.ResolveByAlias(ctx, segment)
	if err == nil {
		return acct, nil
	}
	if errx.KindOf(err) != errx.NotFound {
		return registry.Account{}, err
	}

	if r.resolveIDs {
		acct, err = r.directory.Get(ctx, segment)
		if err == nil {
			return acct, nil
		}
		if errx.KindOf(err) != errx.NotFound {
			return registry.Account{}, err
		}
	}

	return registry.Account{}, errx.E("resolver.resolveSegment", errx.NotFound, ErrNoMatch)
}

func (r *Resolver) selectFromRotation(ctx context.Context) (registry.Account, error) {
	accounts, err := r.directory.List(ctx)
	if err != nil {
		return registry.Account{}, err
	}

	eligible := accounts
	if r.unaliasedOK {
		eligible = eligible[:0:0]
		for _, acct := range accounts {
			if acct.Alias == "" {
				eligible = append(eligible, acct)
			}
		}
	}

	if len(eligible) == 0 {
		return registry.Account{}, errx.E("resolver.selectFromRotation", errx.NotFound, ErrNoMatch)
	}

	acct, err := r.policy.Select(eligible)
	if err != nil {
		return registry.Account{}, errx.E("resolver.selectFromRotation", errx.Internal, err)
	}
	return acct, nil
}

// touch applies the usage side effects. The context is detached from
// request cancellation: a client that disconnects after the redirect
// decision should still be counted.
func (r *Resolver) touch(ctx context.Context, acct registry.Account, sourceAddr string) registry.Account {
	detached := context.WithoutCancel(ctx)

	now := r.now().UTC()
	acct.ClickCount++
	acct.LastUsedAt = &now

	if err := r.directory.Update(detached, acct); err != nil {
		r.logger.WarnContext(ctx, "failed to update account stats",
			"account_id", acct.ID,
			"error", err,
		)
	}

	if r.recorder != nil {
		r.recorder.Record(detached, acct.ID, sourceAddr)
	}

	return acct
}
