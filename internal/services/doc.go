// Package services defines the [Catalog] and [Fetcher] interfaces and implements them for Spotify and spotdl.
//
// # Catalog
//
// [SpotifyCatalog] reads public playlists, albums, user playlist listings and
// artist discographies from the Spotify Web API. It authenticates with the
// client credentials grant; the [oauth2.Client] refreshes the app token on
// its own. Requests share a [rate.Limiter] and paginated listings are followed
// through their "next" links until exhausted.
//
// # Links
//
// [ParseLink] accepts open.spotify.com links (with intl- prefixes, the legacy
// user/<id>/playlist form and share query strings), spotify: URIs and bare
// ids. [CanonicalLink] builds the browsable form back from an id.
//
// # Media Fetcher
//
// [SpotDL] shells out to the spotdl command once per track. The query is
// either a track link or "Artist - Title" search text.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrInvalidLink] : the link could not be parsed
//   - [shared.ErrNotFound] : the catalog answered 400 or 404
//   - [shared.ErrCatalogUnavailable] : transport failure, auth failure, throttling or 5xx
//   - [shared.ErrMissingCredentials] : no client id or secret configured
//   - [shared.ErrFetch] : the media fetcher failed for one track
package services
