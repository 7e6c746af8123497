package registry

import (
	"errors"
	"fmt"
	"time"
)

const (
	MaxIDLength    = 64
	MaxAliasLength = 64
)

// Account is a redirect destination. ID is the stable handle the
// service redirects to and doubles as the primary storage key; Alias is
// an optional short token that reaches the same account directly.
type Account struct {
	ID         string     `json:"id"`
	Alias      string     `json:"alias,omitempty"`
	ClickCount int64      `json:"click_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ValidateID checks that id is usable as a primary identifier.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id too long (maximum %d characters)", MaxIDLength)
	}
	return validateToken(id, "id")
}

// ValidateAlias checks that alias is usable as an alias key. Empty is
// not allowed here; callers treat "no alias" as the absence of a call.
func ValidateAlias(alias string) error {
	if alias == "" {
		return errors.New("alias cannot be empty")
	}
	if len(alias) > MaxAliasLength {
		return fmt.Errorf("alias too long (maximum %d characters)", MaxAliasLength)
	}
	return validateToken(alias, "alias")
}

func validateToken(s, what string) error {
	if s[0] == '-' || s[0] == '_' || s[len(s)-1] == '-' || s[len(s)-1] == '_' {
		return fmt.Errorf("%s cannot start or end with dash or underscore", what)
	}
	for _, c := range s {
		if !isTokenChar(c) {
			return fmt.Errorf("%s contains invalid characters (only alphanumeric, dash, and underscore allowed)", what)
		}
	}
	return nil
}

func isTokenChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
