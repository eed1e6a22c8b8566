package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/ytdeck/internal/shared"
)

// CredentialPool is an ordered, non-empty list of API keys with a rotation cursor.
type CredentialPool struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewCredentialPool builds a pool from keys, ignoring blank entries.
func NewCredentialPool(keys []string) (*CredentialPool, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one youtube api key is required", shared.ErrMissingCredentials)
	}
	return &CredentialPool{keys: cleaned}, nil
}

// Current returns the key at the cursor.
func (p *CredentialPool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys[p.cursor]
}

// Rotate advances the cursor cyclically and returns the new current key.
func (p *CredentialPool) Rotate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rotate()
}

// Advance rotates only if from is still the current key. Otherwise the pool
// has already moved on and the current key is returned unchanged.
func (p *CredentialPool) Advance(from string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.keys[p.cursor] != from {
		return p.keys[p.cursor]
	}
	return p.rotate()
}

// Len returns the number of keys in the pool.
func (p *CredentialPool) Len() int {
	return len(p.keys)
}

// Cursor returns the index of the current key.
func (p *CredentialPool) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *CredentialPool) rotate() string {
	p.cursor = (p.cursor + 1) % len(p.keys)
	return p.keys[p.cursor]
}
