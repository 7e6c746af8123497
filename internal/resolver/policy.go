package resolver

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/chidiebere/linkrotor/internal/registry"
)

// Policy names accepted in configuration.
const (
	PolicyRandom            = "random"
	PolicyRoundRobin        = "round_robin"
	PolicyLeastRecentlyUsed = "least_recently_used"
)

// Policy picks one account from a non-empty eligible set when a request
// names no alias. A deployment runs exactly one policy.
type Policy interface {
	Select(accounts []registry.Account) (registry.Account, error)
}

// NewPolicy returns the policy registered under name.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case PolicyRandom:
		return NewRandomPolicy(), nil
	case PolicyRoundRobin:
		return NewRoundRobinPolicy(), nil
	case PolicyLeastRecentlyUsed:
		return NewLeastRecentlyUsedPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown rotation policy %q", name)
	}
}

var errEmptySet = errors.New("cannot select from empty account set")

/***************
 * Uniform random
 ***************/

type randomPolicy struct{}

// NewRandomPolicy returns a policy choosing uniformly at random.
func NewRandomPolicy() Policy {
	return randomPolicy{}
}

func (randomPolicy) Select(accounts []registry.Account) (registry.Account, error) {
	if len(accounts) == 0 {
		return registry.Account{}, errEmptySet
	}
	return accounts[rand.IntN(len(accounts))], nil
}

/***************
 * Round robin
 ***************/

// roundRobinPolicy advances a cursor over the set sorted by id. The
// cursor lives in process memory: two replicas serving root requests
// concurrently may pick the same account or skip one. That is accepted
// as best-effort rotation, not a correctness violation.
type roundRobinPolicy struct {
	mu     sync.Mutex
	cursor int
}

// NewRoundRobinPolicy returns a policy rotating through the set in
// stable id order.
func NewRoundRobinPolicy() Policy {
	return &roundRobinPolicy{}
}

func (p *roundRobinPolicy) Select(accounts []registry.Account) (registry.Account, error) {
	if len(accounts) == 0 {
		return registry.Account{}, errEmptySet
	}

	ordered := make([]registry.Account, len(accounts))
	copy(ordered, accounts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	p.mu.Lock()
	defer p.mu.Unlock()

	selected := ordered[p.cursor%len(ordered)]
	p.cursor = (p.cursor + 1) % len(ordered)
	return selected, nil
}

/***************
 * Least recently used
 ***************/

type leastRecentlyUsedPolicy struct{}

// NewLeastRecentlyUsedPolicy returns a policy choosing the account with
// the oldest last use. Never-used accounts come first; ties break on id
// so the choice is deterministic.
func NewLeastRecentlyUsedPolicy() Policy {
	return leastRecentlyUsedPolicy{}
}

func (leastRecentlyUsedPolicy) Select(accounts []registry.Account) (registry.Account, error) {
	if len(accounts) == 0 {
		return registry.Account{}, errEmptySet
	}

	selected := accounts[0]
	for _, candidate := range accounts[1:] {
		if lruLess(candidate, selected) {
			selected = candidate
		}
	}
	return selected, nil
}

func lruLess(a, b registry.Account) bool {
	switch {
	case a.LastUsedAt == nil && b.LastUsedAt == nil:
		return a.ID < b.ID
	case a.LastUsedAt == nil:
		return true
	case b.LastUsedAt == nil:
		return false
	case a.LastUsedAt.Equal(*b.LastUsedAt):
		return a.ID < b.ID
	default:
		return a.LastUsedAt.Before(*b.LastUsedAt)
	}
}
