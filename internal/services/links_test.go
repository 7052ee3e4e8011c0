package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
)

func TestParseLink(t *testing.T) {
	tc := []struct {
		name string
		kind models.Kind
		in   string
		want string
	}{
		{name: "playlist url", kind: models.KindPlaylist, in: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "share query", kind: models.KindPlaylist, in: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=a1b2c3", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "intl prefix", kind: models.KindAlbum, in: "https://open.spotify.com/intl-de/album/4aawyAB9vmqN3uQ7FjRGTy", want: "4aawyAB9vmqN3uQ7FjRGTy"},
		{name: "legacy user playlist", kind: models.KindPlaylist, in: "https://open.spotify.com/user/spotify/playlist/37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "uri", kind: models.KindArtist, in: "spotify:artist:0OdUWJ0sBjDrqHygGUXeCF", want: "0OdUWJ0sBjDrqHygGUXeCF"},
		{name: "legacy uri", kind: models.KindPlaylist, in: "spotify:user:someone:playlist:37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "bare id", kind: models.KindAlbum, in: " 4aawyAB9vmqN3uQ7FjRGTy ", want: "4aawyAB9vmqN3uQ7FjRGTy"},
		{name: "user url", kind: models.KindUser, in: "https://open.spotify.com/user/road.trip_fan", want: "road.trip_fan"},
		{name: "bare user", kind: models.KindUser, in: "spotify", want: "spotify"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLink(tt.kind, tt.in)
			if err != nil {
				t.Fatalf("ParseLink() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLinkErrors(t *testing.T) {
	tc := []struct {
		name string
		kind models.Kind
		in   string
	}{
		{name: "empty", kind: models.KindPlaylist, in: ""},
		{name: "wrong kind", kind: models.KindAlbum, in: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"},
		{name: "wrong uri kind", kind: models.KindPlaylist, in: "spotify:track:37i9dQZF1DXcBWIGoYBM5M"},
		{name: "other host", kind: models.KindPlaylist, in: "https://example.com/playlist/37i9dQZF1DXcBWIGoYBM5M"},
		{name: "short id", kind: models.KindAlbum, in: "https://open.spotify.com/album/abc"},
		{name: "free text", kind: models.KindArtist, in: "some band"},
		{name: "bad user", kind: models.KindUser, in: "not a user!"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLink(tt.kind, tt.in); !errors.Is(err, shared.ErrInvalidLink) {
				t.Errorf("ParseLink(%q) expected ErrInvalidLink, got %v", tt.in, err)
			}
		})
	}
}

func TestCanonicalLink(t *testing.T) {
	if got := CanonicalLink(models.KindTrack, "abc"); got != "https://open.spotify.com/track/abc" {
		t.Errorf("unexpected link %s", got)
	}
	if got := CanonicalLink(models.KindTrack, ""); got != "" {
		t.Errorf("expected empty link for empty id, got %s", got)
	}

	id := "4aawyAB9vmqN3uQ7FjRGTy"
	back, err := ParseLink(models.KindAlbum, CanonicalLink(models.KindAlbum, id))
	if err != nil || back != id {
		t.Errorf("canonical link should parse back, got %q, %v", back, err)
	}
}
