package registry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EncodeAccount serializes an account into its stored value form.
func EncodeAccount(acct Account) ([]byte, error) {
	if err := ValidateID(acct.ID); err != nil {
		return nil, fmt.Errorf("cannot encode account: %w", err)
	}
	return json.Marshal(acct)
}

// DecodeAccount parses a stored value back into an account. A record
// without an id is corrupt regardless of how it got there.
func DecodeAccount(data []byte) (Account, error) {
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return Account{}, fmt.Errorf("malformed account record: %w", err)
	}
	if acct.ID == "" {
		return Account{}, errors.New("account record missing id")
	}
	return acct, nil
}
