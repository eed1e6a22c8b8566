// package suggest implements the debounced typeahead pipeline behind the search box.
//
// Each keystroke bumps the session's request id. A response is applied only if
// its id is still the latest, so late answers to earlier keystrokes never overwrite
// newer suggestions.
package suggest

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/services"
	"github.com/desertthunder/ytdeck/internal/shared"
)

const (
	updateBuffer = 32

	// maxLiveFlights bounds superseded fetches kept running so a return to an earlier query can join them.
	maxLiveFlights = 3
)

// Config tunes a [Pipeline].
type Config struct {
	Debounce  time.Duration        // Quiet period after the last keystroke
	Keyword   string               // Appended to every query, e.g. "song"
	Options   models.SearchOptions // Passed through to the searcher
	CacheSize int                  // LRU entries; zero disables caching
}

// Update is a snapshot published after every transition.
type Update struct {
	RequestID uint64               // Request the transition belongs to
	State     models.SessionState  // Transition that happened
	Session   models.SearchSession // Session after the transition
}

// Pipeline turns keystrokes into suggestion lists.
type Pipeline struct {
	mu       sync.Mutex
	searcher services.Searcher
	cfg      Config
	logger   *log.Logger

	session models.SearchSession
	timer   *time.Timer
	flights []*flight

	cache   *lru.Cache[string, []models.Track]
	group   singleflight.Group
	updates chan Update

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// flight is one upstream search per normalized query, shared by every request that asks for it while it runs.
type flight struct {
	key    string
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
}

// New creates a pipeline that fetches through searcher.
func New(searcher services.Searcher, cfg Config, logger *log.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	p := &Pipeline{
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
		updates:  make(chan Update, updateBuffer),
	}
	p.ctx, p.stop = context.WithCancel(context.Background())

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []models.Track](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Updates delivers transitions. When the reader falls behind, intermediate updates are dropped
// and a terminal update (resolved, failed, idle) replaces the oldest buffered one.
func (p *Pipeline) Updates() <-chan Update {
	return p.updates
}

// Session returns a copy of the current session.
func (p *Pipeline) Session() models.SearchSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Input handles a keystroke-driven query change.
func (p *Pipeline) Input(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimer()
	p.session.Query = q
	if strings.TrimSpace(q) == "" {
		p.reset(true)
		return
	}

	p.session.RequestID++
	id := p.session.RequestID
	p.session.State = models.SessionDebouncing
	p.session.Visible = true
	p.timer = time.AfterFunc(p.cfg.Debounce, func() { p.fire(id) })
	p.publish(id, models.SessionDebouncing)
}

// Voice replaces the query with a recognised phrase and fetches immediately.
func (p *Pipeline) Voice(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimer()
	p.session.Query = q
	if strings.TrimSpace(q) == "" {
		p.reset(true)
		return
	}

	p.session.RequestID++
	p.session.Visible = true
	p.startFetch(p.session.RequestID, q)
}

// Close hides the suggestion list. In-flight requests finish but their results are discarded.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimer()
	p.session.RequestID++
	p.reset(false)
}

// Shutdown cancels outstanding work and waits for fetch goroutines to exit.
func (p *Pipeline) Shutdown() {
	p.mu.Lock()
	p.stopTimer()
	p.session.RequestID++
	p.mu.Unlock()

	p.stop()
	p.wg.Wait()
}

// Wait blocks until every started fetch has returned.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// reset moves to Idle and clears suggestions. Caller holds mu.
func (p *Pipeline) reset(bump bool) {
	if bump {
		p.session.RequestID++
	}
	p.session.State = models.SessionIdle
	p.session.Suggestions = nil
	p.session.Visible = false
	p.publish(p.session.RequestID, models.SessionIdle)
}

func (p *Pipeline) fire(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id != p.session.RequestID || p.session.State != models.SessionDebouncing {
		return
	}
	p.startFetch(id, p.session.Query)
}

// startFetch joins the live flight for q or starts a new one. Caller holds mu.
//
// Superseded flights keep running so their results reach the cache; only the oldest
// beyond maxLiveFlights are cancelled.
func (p *Pipeline) startFetch(id uint64, q string) {
	key := shared.NormalizeQuery(q)
	f := p.liveFlight(key)
	if f == nil {
		ctx, cancel := context.WithCancel(p.ctx)
		f = &flight{key: key, ctx: ctx, cancel: cancel}
		p.flights = append(p.flights, f)
		for len(p.flights) > maxLiveFlights {
			oldest := p.flights[0]
			p.flights = p.flights[1:]
			oldest.cancel()
			p.group.Forget(oldest.key)
		}
	} else {
		p.logger.Debug("joining in-flight fetch", "query", key, "request", id)
	}
	f.refs++

	p.session.State = models.SessionFetching
	p.publish(id, models.SessionFetching)

	p.wg.Add(1)
	go p.fetch(f, id, q)
}

func (p *Pipeline) liveFlight(key string) *flight {
	for _, f := range p.flights {
		if f.key == key {
			return f
		}
	}
	return nil
}

// release drops a reference and cancels the flight once nobody waits on it. Caller holds mu.
func (p *Pipeline) release(f *flight) {
	f.refs--
	if f.refs > 0 {
		return
	}
	f.cancel()
	for i, live := range p.flights {
		if live == f {
			p.flights = append(p.flights[:i], p.flights[i+1:]...)
			break
		}
	}
}

func (p *Pipeline) fetch(f *flight, id uint64, q string) {
	defer p.wg.Done()

	tracks, err := p.lookup(f.ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.release(f)
	if id != p.session.RequestID {
		p.logger.Debug("discarding stale suggestions", "request", id, "latest", p.session.RequestID)
		p.publish(id, models.SessionStale)
		return
	}

	if err != nil {
		p.logger.Warn("suggestion fetch failed", "query", q, "request", id, "error", err)
		p.session.State = models.SessionFailed
		p.session.Suggestions = nil
		p.publish(id, models.SessionFailed)
		return
	}

	p.session.State = models.SessionResolved
	p.session.Suggestions = tracks
	p.publish(id, models.SessionResolved)
}

// lookup serves q from the cache, or collapses identical concurrent fetches into one search.
func (p *Pipeline) lookup(ctx context.Context, q string) ([]models.Track, error) {
	key := shared.NormalizeQuery(q)
	if p.cache != nil {
		if tracks, ok := p.cache.Get(key); ok {
			return tracks, nil
		}
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		if p.cache != nil {
			if tracks, ok := p.cache.Get(key); ok {
				return tracks, nil
			}
		}
		tracks, err := p.searcher.Search(ctx, p.query(q), p.cfg.Options)
		if err != nil {
			return nil, err
		}
		if p.cache != nil {
			p.cache.Add(key, tracks)
		}
		return tracks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Track), nil
}

func (p *Pipeline) query(q string) string {
	q = strings.TrimSpace(q)
	if p.cfg.Keyword == "" {
		return q
	}
	return q + " " + p.cfg.Keyword
}

func (p *Pipeline) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Pipeline) snapshot() models.SearchSession {
	s := p.session
	s.Suggestions = append([]models.Track(nil), p.session.Suggestions...)
	return s
}

// publish sends an update without blocking. Caller holds mu.
func (p *Pipeline) publish(id uint64, state models.SessionState) {
	u := Update{RequestID: id, State: state, Session: p.snapshot()}
	select {
	case p.updates <- u:
		return
	default:
	}

	switch state {
	case models.SessionResolved, models.SessionFailed, models.SessionIdle:
	default:
		return
	}

	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- u:
	default:
	}
}
