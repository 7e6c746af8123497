// Package aliasgen provides alias generation for account short links.
// Generators are safe for concurrent use.
package aliasgen

import (
	"crypto/rand"
	"errors"
)

// DefaultLength is the alias length used when a deployment does not
// configure one. Matches the historical 8-character short codes.
const DefaultLength = 8

const aliasChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generator generates URL-safe aliases.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

// lowerAlnumGenerator implements Generator over the lowercase
// alphanumeric alphabet.
type lowerAlnumGenerator struct{}

// NewLowerAlnum returns a generator producing lowercase alphanumeric
// aliases from crypto/rand.
func NewLowerAlnum() Generator {
	return &lowerAlnumGenerator{}
}

// Generate generates a random alias of the specified length.
func (g *lowerAlnumGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = aliasChars[int(b[i])%len(aliasChars)]
	}

	return string(b), nil
}
