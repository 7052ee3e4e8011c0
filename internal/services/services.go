package services

import (
	"context"

	"github.com/desertthunder/mandolin/internal/models"
)

// Catalog reads collection metadata from a music catalog.
//
// Links may be anything [ParseLink] accepts for the relevant kind. Errors wrap
// [shared.ErrInvalidLink], [shared.ErrNotFound] or [shared.ErrCatalogUnavailable].
type Catalog interface {
	// FetchPlaylist retrieves a playlist and every one of its tracks.
	FetchPlaylist(ctx context.Context, link string) (*Collection, error)

	// FetchAlbum retrieves an album and every one of its tracks.
	FetchAlbum(ctx context.Context, link string) (*Collection, error)

	// ListUserPlaylistLinks returns the links of a user's public playlists in catalog order.
	ListUserPlaylistLinks(ctx context.Context, userID string) ([]string, error)

	// ListArtistAlbumLinks returns the links of an artist's albums in catalog order.
	ListArtistAlbumLinks(ctx context.Context, artistLink string) ([]string, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

// Fetcher retrieves one track's media given a link or search query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) error
}

// Collection is a playlist or album as the catalog describes it.
type Collection struct {
	ID        string
	Kind      models.Kind
	Name      string
	Link      string
	OwnerID   string   // Playlist owner's user id
	ArtistIDs []string // Album artists, in credit order
	Total     int      // Track total the catalog reports
	Tracks    []Track
}

// Track is a catalog track.
type Track struct {
	ID      string
	Title   string
	Artists []string
	Link    string // Empty for local files
}

// Reference converts the track into what the media fetcher needs.
func (t Track) Reference() models.TrackReference {
	return models.NewTrackReference(t.Link, t.Title, t.Artists...)
}
