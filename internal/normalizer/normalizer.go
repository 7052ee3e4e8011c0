// Package normalizer turns catalog responses into [models.FullCollection] values.
//
// Each request kind has its own [Source]. Single-collection sources make one
// catalog call; multi-collection sources list child links first, then fetch
// every child concurrently while keeping the catalog's order in the result.
package normalizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/services"
	"github.com/desertthunder/mandolin/internal/tracklists"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel child fetches when none is configured.
const DefaultConcurrency = 4

// Source collects the collections a caller reference points at.
type Source interface {
	Collect(ctx context.Context, ref string) ([]models.FullCollection, error)
	Kind() models.Kind
}

// PlaylistSource yields one playlist without an owner prefix.
type PlaylistSource struct {
	Catalog services.Catalog
}

func (s PlaylistSource) Kind() models.Kind { return models.KindPlaylist }

func (s PlaylistSource) Collect(ctx context.Context, link string) ([]models.FullCollection, error) {
	c, err := s.Catalog.FetchPlaylist(ctx, link)
	if err != nil {
		return nil, err
	}
	return []models.FullCollection{Normalize(c, "")}, nil
}

// AlbumSource yields one album owned by its first credited artist.
type AlbumSource struct {
	Catalog services.Catalog
}

func (s AlbumSource) Kind() models.Kind { return models.KindAlbum }

func (s AlbumSource) Collect(ctx context.Context, link string) ([]models.FullCollection, error) {
	c, err := s.Catalog.FetchAlbum(ctx, link)
	if err != nil {
		return nil, err
	}
	return []models.FullCollection{Normalize(c, firstArtist(c))}, nil
}

// UserPlaylistsSource yields every public playlist of a user, owned by that user.
type UserPlaylistsSource struct {
	Catalog     services.Catalog
	Concurrency int
}

func (s UserPlaylistsSource) Kind() models.Kind { return models.KindUser }

func (s UserPlaylistsSource) Collect(ctx context.Context, userID string) ([]models.FullCollection, error) {
	userID = strings.TrimSpace(userID)

	links, err := s.Catalog.ListUserPlaylistLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	return fetchAll(ctx, links, s.Concurrency, func(ctx context.Context, link string) (models.FullCollection, error) {
		c, err := s.Catalog.FetchPlaylist(ctx, link)
		if err != nil {
			return models.FullCollection{}, err
		}
		return Normalize(c, ownerID(userID)), nil
	})
}

// ArtistAlbumsSource yields every album of an artist, each owned by its own first credited artist.
type ArtistAlbumsSource struct {
	Catalog     services.Catalog
	Concurrency int
}

func (s ArtistAlbumsSource) Kind() models.Kind { return models.KindArtist }

func (s ArtistAlbumsSource) Collect(ctx context.Context, artistLink string) ([]models.FullCollection, error) {
	links, err := s.Catalog.ListArtistAlbumLinks(ctx, artistLink)
	if err != nil {
		return nil, err
	}

	return fetchAll(ctx, links, s.Concurrency, func(ctx context.Context, link string) (models.FullCollection, error) {
		c, err := s.Catalog.FetchAlbum(ctx, link)
		if err != nil {
			return models.FullCollection{}, err
		}
		return Normalize(c, firstArtist(c)), nil
	})
}

// fetchAll runs fetch for every link with at most limit calls in flight.
// Results are written by index so the output order matches links.
func fetchAll(ctx context.Context, links []string, limit int, fetch func(context.Context, string) (models.FullCollection, error)) ([]models.FullCollection, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	out := make([]models.FullCollection, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, link := range links {
		g.Go(func() error {
			c, err := fetch(gctx, link)
			if err != nil {
				return fmt.Errorf("%s: %w", link, err)
			}
			out[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Normalize projects a catalog collection into a [models.FullCollection].
func Normalize(c *services.Collection, owner string) models.FullCollection {
	tracks := make([]models.TrackReference, 0, len(c.Tracks))
	for _, t := range c.Tracks {
		if ref := t.Reference(); !ref.IsZero() {
			tracks = append(tracks, ref)
		}
	}

	total := c.Total
	if total == 0 {
		total = len(tracks)
	}

	return models.FullCollection{
		ID:         c.ID,
		Kind:       c.Kind,
		Name:       c.Name,
		SafeName:   tracklists.Sanitize(c.Name),
		OwnerID:    owner,
		TrackCount: total,
		Link:       c.Link,
		Tracks:     tracks,
	}
}

func firstArtist(c *services.Collection) string {
	if len(c.ArtistIDs) == 0 {
		return ""
	}
	return c.ArtistIDs[0]
}

// ownerID reduces a user reference (bare id or profile link) to the id.
func ownerID(user string) string {
	if id, err := services.ParseLink(models.KindUser, user); err == nil {
		return id
	}
	return user
}

// NormalizePlaylist collects the playlist behind link.
func NormalizePlaylist(ctx context.Context, catalog services.Catalog, link string) (models.FullCollection, error) {
	out, err := PlaylistSource{Catalog: catalog}.Collect(ctx, link)
	if err != nil {
		return models.FullCollection{}, err
	}
	return out[0], nil
}

// NormalizeAlbum collects the album behind link.
func NormalizeAlbum(ctx context.Context, catalog services.Catalog, link string) (models.FullCollection, error) {
	out, err := AlbumSource{Catalog: catalog}.Collect(ctx, link)
	if err != nil {
		return models.FullCollection{}, err
	}
	return out[0], nil
}

// NormalizeUserPlaylists collects every public playlist of userID.
func NormalizeUserPlaylists(ctx context.Context, catalog services.Catalog, userID string, concurrency int) ([]models.FullCollection, error) {
	return UserPlaylistsSource{Catalog: catalog, Concurrency: concurrency}.Collect(ctx, userID)
}

// NormalizeArtistAlbums collects every album of the artist behind artistLink.
func NormalizeArtistAlbums(ctx context.Context, catalog services.Catalog, artistLink string, concurrency int) ([]models.FullCollection, error) {
	return ArtistAlbumsSource{Catalog: catalog, Concurrency: concurrency}.Collect(ctx, artistLink)
}
