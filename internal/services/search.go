package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

const defaultRequestTimeout = 10 * time.Second

// SearchClient is a quota-aware [Searcher]. It issues requests through a [Provider]
// with the pool's current key and rotates keys on quota and timeout failures.
type SearchClient struct {
	pool     *CredentialPool
	provider Provider
	limit    int
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
}

// SearchClientOption configures a [SearchClient].
type SearchClientOption func(*SearchClient)

// WithAttemptLimit sets the maximum number of upstream calls per search.
func WithAttemptLimit(n int) SearchClientOption {
	return func(c *SearchClient) { c.limit = shared.AttemptLimit(n) }
}

// WithRequestTimeout bounds each upstream call.
func WithRequestTimeout(d time.Duration) SearchClientOption {
	return func(c *SearchClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces upstream calls. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) SearchClientOption {
	return func(c *SearchClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithLogger attaches a logger for rotation and exhaustion events.
func WithLogger(l *log.Logger) SearchClientOption {
	return func(c *SearchClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewSearchClient creates a client that shares pool with every other client built from it.
func NewSearchClient(pool *CredentialPool, provider Provider, opts ...SearchClientOption) *SearchClient {
	c := &SearchClient{
		pool:     pool,
		provider: provider,
		limit:    shared.AttemptLimit(0),
		timeout:  defaultRequestTimeout,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of the client with opts applied. The pool, and therefore the
// rotation cursor, stays shared.
func (c *SearchClient) With(opts ...SearchClientOption) *SearchClient {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Limit returns the attempt ceiling.
func (c *SearchClient) Limit() int {
	return c.limit
}

// Search runs query against the provider, rotating credentials on quota or timeout
// failures until the attempt ceiling is reached.
func (c *SearchClient) Search(ctx context.Context, query string, opts models.SearchOptions) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrValidation)
	}

	for attempt := 0; attempt < c.limit; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, ctxErr(ctx, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := c.pool.Current()
		tracks, err := c.do(ctx, key, query, opts)
		if err == nil {
			return tracks, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !errors.Is(err, shared.ErrQuotaExceeded) && !errors.Is(err, shared.ErrTimeout) {
			if !errors.Is(err, shared.ErrUpstream) {
				err = fmt.Errorf("%w: %v", shared.ErrUpstream, err)
			}
			return nil, err
		}

		next := c.pool.Advance(key)
		c.logger.Warn("rotating credential",
			"provider", c.provider.Name(),
			"attempt", attempt+1,
			"limit", c.limit,
			"cursor", c.pool.Cursor(),
			"rotated", next != key,
			"error", err,
		)
	}

	c.logger.Error("credentials exhausted", "provider", c.provider.Name(), "query", query, "attempts", c.limit)
	return nil, fmt.Errorf("%w: %d attempts for %q", shared.ErrExhaustedCredentials, c.limit, query)
}

// do issues a single request bounded by the per-request timeout.
func (c *SearchClient) do(ctx context.Context, key, query string, opts models.SearchOptions) ([]models.Track, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tracks, err := c.provider.Search(reqCtx, key, query, opts)
	if err != nil && ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, shared.ErrTimeout) {
		err = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return tracks, err
}

// ctxErr prefers the context's own error when the limiter gave up because of it.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
