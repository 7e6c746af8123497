// Package idgen generates unique identifiers for storage keys.
// Implementations are safe for concurrent use.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator generates unique identifiers.
type Generator interface {
	Generate() (uuid.UUID, error)
}

type v4Gen struct{}

// NewV4 returns a Generator that produces UUID v4 values.
func NewV4() Generator { return v4Gen{} }

func (v4Gen) Generate() (uuid.UUID, error) {
	return uuid.New(), nil
}

// v7Gen produces UUID v7 values, which sort by creation time. That
// property keeps time-keyed storage entries in append order.
type v7Gen struct {
	maxRetries int
}

// NewV7 returns a Generator that produces UUID v7 values, retrying
// once on entropy failure.
func NewV7() Generator {
	return &v7Gen{maxRetries: 1}
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	var last error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		id, err := uuid.NewV7()
		if err == nil {
			return id, nil
		}
		last = err
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.maxRetries+1, last)
}
