package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
)

const openSpotifyURL = "https://open.spotify.com"

// linkPatterns recognize Spotify web links and URIs. The kind is captured so a
// playlist link is never accepted where an album is expected.
var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-zA-Z-]+/)?(?:embed/)?(playlist|album|artist|track|user)/([A-Za-z0-9._-]+)/?(?:\?.*)?(?:#.*)?$`),
	regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-zA-Z-]+/)?user/[^/]+/(playlist)/([A-Za-z0-9]+)/?(?:\?.*)?$`),
	regexp.MustCompile(`^spotify:(playlist|album|artist|track|user):([A-Za-z0-9._-]+)$`),
	regexp.MustCompile(`^spotify:user:[^:]+:(playlist):([A-Za-z0-9]+)$`),
}

var (
	catalogID = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
	userID    = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
)

// ParseLink extracts the catalog id from a link, URI or bare id referring to
// an entity of the given kind.
//
// Accepted forms:
//
//	https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc
//	https://open.spotify.com/intl-de/album/4aawyAB9vmqN3uQ7FjRGTy
//	https://open.spotify.com/user/spotify/playlist/37i9dQZF1DXcBWIGoYBM5M
//	spotify:artist:0OdUWJ0sBjDrqHygGUXeCF
//	37i9dQZF1DXcBWIGoYBM5M
func ParseLink(kind models.Kind, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty %s link", shared.ErrInvalidLink, kind)
	}

	for _, re := range linkPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if models.Kind(m[1]) != kind {
			return "", fmt.Errorf("%w: %q is a %s link, expected %s", shared.ErrInvalidLink, s, m[1], kind)
		}
		if !validID(kind, m[2]) {
			return "", fmt.Errorf("%w: %q has a malformed %s id", shared.ErrInvalidLink, s, kind)
		}
		return m[2], nil
	}

	if validID(kind, s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q is not a %s link", shared.ErrInvalidLink, s, kind)
}

// CanonicalLink builds the browsable link for a catalog entity.
func CanonicalLink(kind models.Kind, id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", openSpotifyURL, kind, id)
}

func validID(kind models.Kind, id string) bool {
	if kind == models.KindUser {
		return userID.MatchString(id)
	}
	return catalogID.MatchString(id)
}
