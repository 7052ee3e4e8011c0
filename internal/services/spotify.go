// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	pageLimit       = 50
)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a simplified Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	IsLocal      bool            `json:"is_local"`
	Type         string          `json:"type"` // "track" or "episode"
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is
// nil for entries that were removed from the catalog.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// page is a Spotify paging object.
type page[T any] struct {
	Items []T    `json:"items"`
	Total int    `json:"total"`
	Next  string `json:"next"`
}

// SpotifyPlaylist represents a full Spotify playlist with its first page of tracks.
type SpotifyPlaylist struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	Owner        owner                      `json:"owner"`
	ExternalURLs externalURLs               `json:"external_urls"`
	Tracks       page[SpotifyPlaylistTrack] `json:"tracks"`
}

// SpotifyAlbum represents a full Spotify album with its first page of tracks.
type SpotifyAlbum struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Artists      []SpotifyArtist    `json:"artists"`
	TotalTracks  int                `json:"total_tracks"`
	ExternalURLs externalURLs       `json:"external_urls"`
	Tracks       page[SpotifyTrack] `json:"tracks"`
}

// SpotifySimpleEntity is the simplified playlist or album object used in listings.
type SpotifySimpleEntity struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// CatalogOpts configures a [SpotifyCatalog]. It is built once at startup from
// [shared.CatalogConfig].
type CatalogOpts struct {
	ClientID     string
	ClientSecret string
	TokenURL     string       // Defaults to the Spotify accounts service
	BaseURL      string       // Defaults to the Spotify Web API
	Market       string       // Optional ISO 3166-1 country code for track relinking
	RateLimit    float64      // Requests per second, zero disables throttling
	HTTPClient   *http.Client // Base transport for token and API requests
	Logger       *log.Logger
}

// CatalogOptsFromConfig maps the catalog section of the config file onto [CatalogOpts].
func CatalogOptsFromConfig(c shared.CatalogConfig, logger *log.Logger) CatalogOpts {
	return CatalogOpts{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		BaseURL:      c.BaseURL,
		Market:       c.Market,
		RateLimit:    c.RateLimit,
		Logger:       logger,
	}
}

// SpotifyCatalog implements [Catalog] against the Spotify Web API using an app token.
type SpotifyCatalog struct {
	baseURL    string
	market     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyCatalog creates a catalog client authenticated with the client credentials grant.
func NewSpotifyCatalog(opts CatalogOpts) (*SpotifyCatalog, error) {
	if strings.TrimSpace(opts.ClientID) == "" || strings.TrimSpace(opts.ClientSecret) == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &SpotifyCatalog{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		market:     opts.Market,
		httpClient: config.Client(ctx),
		limiter:    limiter,
		logger:     shared.WithLogger(opts.Logger, "component", "catalog"),
	}, nil
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the Spotify API.
//
// endpoint is either a path below the base URL or an absolute "next" link
// returned by a previous page, which must share the base URL.
func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	} else if !strings.HasPrefix(endpoint, s.baseURL+"/") {
		return fmt.Errorf("%w: refusing to follow link outside %s", shared.ErrCatalogUnavailable, s.baseURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: request failed: %v", shared.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		s.logger.Debug("catalog request failed", "url", apiURL, "status", resp.StatusCode)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrCatalogUnavailable, err)
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := apiErrorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: spotify API status %d%s", shared.ErrNotFound, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: spotify API status %d%s", shared.ErrCatalogUnavailable, resp.StatusCode, msg)
	}
}

func apiErrorMessage(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || json.Unmarshal(data, &payload) != nil || payload.Error.Message == "" {
		return ""
	}
	return ": " + payload.Error.Message
}

func (s *SpotifyCatalog) query(extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if s.market != "" {
		q.Set("market", s.market)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Playlist retrieves a playlist by ID, including only its first page of tracks.
func (s *SpotifyCatalog) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := "/playlists/" + url.PathEscape(playlistID) + s.query(nil)
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Album retrieves an album by ID, including only its first page of tracks.
func (s *SpotifyCatalog) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	endpoint := "/albums/" + url.PathEscape(albumID) + s.query(nil)
	if err := s.doRequest(ctx, endpoint, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// collect follows next links from first, appending every item.
func collect[T any](ctx context.Context, s *SpotifyCatalog, first page[T]) ([]T, error) {
	items := append([]T{}, first.Items...)
	next := first.Next

	for next != "" {
		var p page[T]
		if err := s.doRequest(ctx, next, &p); err != nil {
			return nil, err
		}
		items = append(items, p.Items...)
		next = p.Next
	}
	return items, nil
}

// FetchPlaylist retrieves a playlist and pages through all of its tracks.
//
// Removed entries and podcast episodes are skipped. Local files are kept
// without a link so the media fetcher searches for them by name.
func (s *SpotifyCatalog) FetchPlaylist(ctx context.Context, link string) (*Collection, error) {
	id, err := ParseLink(models.KindPlaylist, link)
	if err != nil {
		return nil, err
	}

	sp, err := s.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := collect(ctx, s, sp.Tracks)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil || (item.Track.Type != "" && item.Track.Type != "track") {
			continue
		}
		tracks = append(tracks, convertTrack(*item.Track))
	}

	s.logger.Debug("fetched playlist", "id", sp.ID, "tracks", len(tracks), "total", sp.Tracks.Total)
	return &Collection{
		ID:      sp.ID,
		Kind:    models.KindPlaylist,
		Name:    sp.Name,
		Link:    linkOr(sp.ExternalURLs, models.KindPlaylist, sp.ID),
		OwnerID: sp.Owner.ID,
		Total:   sp.Tracks.Total,
		Tracks:  tracks,
	}, nil
}

// FetchAlbum retrieves an album and pages through all of its tracks.
func (s *SpotifyCatalog) FetchAlbum(ctx context.Context, link string) (*Collection, error) {
	id, err := ParseLink(models.KindAlbum, link)
	if err != nil {
		return nil, err
	}

	sa, err := s.Album(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := collect(ctx, s, sa.Tracks)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, convertTrack(item))
	}

	artistIDs := make([]string, 0, len(sa.Artists))
	for _, a := range sa.Artists {
		artistIDs = append(artistIDs, a.ID)
	}

	total := sa.TotalTracks
	if total == 0 {
		total = sa.Tracks.Total
	}

	s.logger.Debug("fetched album", "id", sa.ID, "tracks", len(tracks), "total", total)
	return &Collection{
		ID:        sa.ID,
		Kind:      models.KindAlbum,
		Name:      sa.Name,
		Link:      linkOr(sa.ExternalURLs, models.KindAlbum, sa.ID),
		ArtistIDs: artistIDs,
		Total:     total,
		Tracks:    tracks,
	}, nil
}

// ListUserPlaylistLinks lists a user's public playlists.
func (s *SpotifyCatalog) ListUserPlaylistLinks(ctx context.Context, userID string) ([]string, error) {
	id, err := ParseLink(models.KindUser, userID)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/users/%s/playlists?limit=%d", url.PathEscape(id), pageLimit)
	return s.listLinks(ctx, endpoint, models.KindPlaylist)
}

// ListArtistAlbumLinks lists an artist's albums, excluding singles, compilations and appearances.
func (s *SpotifyCatalog) ListArtistAlbumLinks(ctx context.Context, artistLink string) ([]string, error) {
	id, err := ParseLink(models.KindArtist, artistLink)
	if err != nil {
		return nil, err
	}

	q := s.query(url.Values{
		"include_groups": {"album"},
		"limit":          {fmt.Sprint(pageLimit)},
	})
	endpoint := "/artists/" + url.PathEscape(id) + "/albums" + q
	return s.listLinks(ctx, endpoint, models.KindAlbum)
}

func (s *SpotifyCatalog) listLinks(ctx context.Context, endpoint string, kind models.Kind) ([]string, error) {
	var first page[*SpotifySimpleEntity]
	if err := s.doRequest(ctx, endpoint, &first); err != nil {
		return nil, err
	}

	items, err := collect(ctx, s, first)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		links = append(links, linkOr(item.ExternalURLs, kind, item.ID))
	}
	return links, nil
}

func convertTrack(t SpotifyTrack) Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	track := Track{ID: t.ID, Title: t.Name, Artists: artists}
	if !t.IsLocal && t.ID != "" {
		track.Link = linkOr(t.ExternalURLs, models.KindTrack, t.ID)
	}
	return track
}

func linkOr(u externalURLs, kind models.Kind, id string) string {
	if u.Spotify != "" {
		return u.Spotify
	}
	return CanonicalLink(kind, id)
}

