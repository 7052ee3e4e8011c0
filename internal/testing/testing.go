// Package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/services"
	"github.com/desertthunder/mandolin/internal/shared"
)

// CatalogID pads seed into a 22 character id accepted by [services.ParseLink].
func CatalogID(seed string) string {
	if len(seed) >= 22 {
		return seed[:22]
	}
	return seed + strings.Repeat("0", 22-len(seed))
}

// MockCatalog is an in-memory test double for [services.Catalog]
type MockCatalog struct {
	mu            sync.Mutex
	playlists     map[string]services.Collection
	albums        map[string]services.Collection
	userPlaylists map[string][]string
	artistAlbums  map[string][]string
	failures      map[string]error
	calls         []string
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		playlists:     map[string]services.Collection{},
		albums:        map[string]services.Collection{},
		userPlaylists: map[string][]string{},
		artistAlbums:  map[string][]string{},
		failures:      map[string]error{},
	}
}

// AddPlaylist registers c and returns its link. Empty ids are derived from the name.
func (m *MockCatalog) AddPlaylist(c services.Collection) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.Kind = models.KindPlaylist
	c = fill(c)
	m.playlists[c.ID] = c
	return c.Link
}

// AddAlbum registers c and returns its link. Empty ids are derived from the name.
func (m *MockCatalog) AddAlbum(c services.Collection) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.Kind = models.KindAlbum
	c = fill(c)
	m.albums[c.ID] = c
	return c.Link
}

// SetUserPlaylists sets the playlist links listed for user.
func (m *MockCatalog) SetUserPlaylists(user string, links ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userPlaylists[user] = links
}

// SetArtistAlbums sets the album links listed for the artist and returns the artist link.
func (m *MockCatalog) SetArtistAlbums(artistID string, links ...string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artistAlbums[artistID] = links
	return services.CanonicalLink(models.KindArtist, artistID)
}

// Fail makes every lookup of id return err.
func (m *MockCatalog) Fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = err
}

// Calls returns the lookups made so far as "kind:id" strings.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

func (m *MockCatalog) lookup(kind models.Kind, link string) (string, error) {
	id, err := services.ParseLink(kind, link)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("%s:%s", kind, id))
	if err := m.failures[id]; err != nil {
		return "", err
	}
	return id, nil
}

func (m *MockCatalog) FetchPlaylist(ctx context.Context, link string) (*services.Collection, error) {
	return m.fetch(ctx, models.KindPlaylist, link, m.playlists)
}

func (m *MockCatalog) FetchAlbum(ctx context.Context, link string) (*services.Collection, error) {
	return m.fetch(ctx, models.KindAlbum, link, m.albums)
}

func (m *MockCatalog) fetch(ctx context.Context, kind models.Kind, link string, from map[string]services.Collection) (*services.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := m.lookup(kind, link)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := from[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
	}
	c.Tracks = append([]services.Track{}, c.Tracks...)
	return &c, nil
}

func (m *MockCatalog) ListUserPlaylistLinks(ctx context.Context, userID string) ([]string, error) {
	return m.list(ctx, models.KindUser, userID, m.userPlaylists)
}

func (m *MockCatalog) ListArtistAlbumLinks(ctx context.Context, artistLink string) ([]string, error) {
	return m.list(ctx, models.KindArtist, artistLink, m.artistAlbums)
}

func (m *MockCatalog) list(ctx context.Context, kind models.Kind, link string, from map[string][]string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := m.lookup(kind, link)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	links, ok := from[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
	}
	return append([]string{}, links...), nil
}

func (m *MockCatalog) Name() string { return "mock" }

func fill(c services.Collection) services.Collection {
	if c.ID == "" {
		var b strings.Builder
		for _, r := range c.Name {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		c.ID = CatalogID(b.String())
	}
	if c.Link == "" {
		c.Link = services.CanonicalLink(c.Kind, c.ID)
	}
	if c.Total == 0 {
		c.Total = len(c.Tracks)
	}
	return c
}

// Tracks builds catalog tracks titled by names, each credited to artist.
func Tracks(artist string, names ...string) []services.Track {
	tracks := make([]services.Track, 0, len(names))
	for _, n := range names {
		tracks = append(tracks, services.Track{
			ID:      n,
			Title:   n,
			Artists: []string{artist},
			Link:    services.CanonicalLink(models.KindTrack, n),
		})
	}
	return tracks
}

// MockFetcher is a test double for [services.Fetcher] that records every query.
type MockFetcher struct {
	mu       sync.Mutex
	queries  []string
	failures map[string]error

	// OnFetch runs before each fetch is recorded when set.
	OnFetch func(query string)
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{failures: map[string]error{}}
}

// Fail makes fetching query return err.
func (m *MockFetcher) Fail(query string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[query] = err
}

func (m *MockFetcher) Fetch(ctx context.Context, query string) error {
	if m.OnFetch != nil {
		m.OnFetch(query)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if err := m.failures[query]; err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrFetch, query, err)
	}
	return nil
}

// Queries returns the fetched queries in call order.
func (m *MockFetcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.queries...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
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
