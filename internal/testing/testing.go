// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

// MemoryStore is an in-memory [models.PlaylistStore] with per-method failure injection.
type MemoryStore struct {
	mu        sync.Mutex
	docs      map[string]models.Playlist
	order     []string
	nextID    int
	calls     map[string]int
	failures  map[string]error
	createdAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      map[string]models.Playlist{},
		calls:     map[string]int{},
		failures:  map[string]error{},
		createdAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Fail makes every later call to method return err. A nil err clears the failure.
func (m *MemoryStore) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// Calls returns how many times method was invoked.
func (m *MemoryStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Seed stores p as-is, bypassing call counting.
func (m *MemoryStore) Seed(p models.Playlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.docs[p.ID] = p.Clone()
}

func (m *MemoryStore) enter(method string) error {
	m.calls[method]++
	if err := m.failures[method]; err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Get"); err != nil {
		return nil, err
	}
	p, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	c := p.Clone()
	return &c, nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListByOwner"); err != nil {
		return nil, err
	}
	var out []models.Playlist
	for _, id := range m.order {
		if p, ok := m.docs[id]; ok && p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) Create(ctx context.Context, p models.Playlist) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Create"); err != nil {
		return nil, err
	}
	m.nextID++
	p.ID = "pl-" + strconv.Itoa(m.nextID)
	p.CreatedAt = m.createdAt.Add(time.Duration(m.nextID) * time.Second)
	p.UpdatedAt = p.CreatedAt
	m.docs[p.ID] = p.Clone()
	m.order = append(m.order, p.ID)
	c := p.Clone()
	return &c, nil
}

func (m *MemoryStore) Rename(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Rename"); err != nil {
		return err
	}
	p, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	p.Name = name
	m.docs[id] = p
	return nil
}

func (m *MemoryStore) ReplaceTracks(ctx context.Context, id string, tracks []models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReplaceTracks"); err != nil {
		return err
	}
	p, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	p.Tracks = append([]models.Track(nil), tracks...)
	m.docs[id] = p
	return nil
}

func (m *MemoryStore) UnionTracks(ctx context.Context, id string, tracks ...models.Track) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UnionTracks"); err != nil {
		return nil, err
	}
	p, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	for _, t := range tracks {
		if p.IndexOf(t.ID) < 0 {
			p.Tracks = append(p.Tracks, t)
		}
	}
	m.docs[id] = p
	return append([]models.Track(nil), p.Tracks...), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Delete"); err != nil {
		return err
	}
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	delete(m.docs, id)
	return nil
}

// MockSearcher answers searches from a fixed map keyed by query.
type MockSearcher struct {
	mu      sync.Mutex
	Results map[string][]models.Track
	Err     error
	Queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string, opts models.SearchOptions) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results[query], nil
}

// Tracks builds tracks whose id and title are the given ids.
func Tracks(ids ...string) []models.Track {
	tracks := make([]models.Track, len(ids))
	for i, id := range ids {
		tracks[i] = models.Track{ID: id, Title: id}
	}
	return tracks
}

// TrackIDs returns the ids of tracks in order.
func TrackIDs(tracks []models.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
