// package services defines the upstream search contracts and their HTTP implementations
//
// YouTube Data API v3
package services

import (
	"context"

	"github.com/desertthunder/ytdeck/internal/models"
)

// Provider performs one upstream search with an explicit credential.
//
// Implementations classify failures by wrapping [shared.ErrQuotaExceeded], [shared.ErrTimeout], or [shared.ErrUpstream].
type Provider interface {
	// Search runs a single request against the provider using key.
	Search(ctx context.Context, key, query string, opts models.SearchOptions) ([]models.Track, error)

	// Name returns the name of the provider (e.g., "YouTube")
	Name() string
}

// Searcher is a credential-agnostic search used by the CLI, the suggestion pipeline, and the TUI.
type Searcher interface {
	Search(ctx context.Context, query string, opts models.SearchOptions) ([]models.Track, error)
}
