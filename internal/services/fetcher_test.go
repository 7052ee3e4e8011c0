package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mandolin/internal/shared"
)

func TestSpotDL(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	ctx := context.Background()

	t.Run("Runs Command In Output Dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "downloads")
		f := NewSpotDL(FetcherOpts{
			Command:   "/bin/sh",
			Args:      []string{"-c", `printf '%s\n' "$1" >> fetched.txt`},
			OutputDir: dir,
		})

		for _, q := range []string{"https://open.spotify.com/track/t1", "Artist - Title"} {
			if err := f.Fetch(ctx, q); err != nil {
				t.Fatalf("Fetch(%q) error = %v", q, err)
			}
		}

		data, err := os.ReadFile(filepath.Join(dir, "fetched.txt"))
		if err != nil {
			t.Fatalf("expected command output file, got %v", err)
		}
		if string(data) != "https://open.spotify.com/track/t1\nArtist - Title\n" {
			t.Errorf("unexpected queries passed to command: %q", data)
		}
	})

	t.Run("Dash Query Stays Positional", func(t *testing.T) {
		dir := t.TempDir()
		f := NewSpotDL(FetcherOpts{
			Command:   "/bin/sh",
			Args:      []string{"-c", `printf '%s\n' "$0" "$@" > argv.txt`},
			OutputDir: dir,
		})

		if err := f.Fetch(ctx, "--output=/tmp/elsewhere/{title}"); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "argv.txt"))
		if err != nil {
			t.Fatalf("expected argv file, got %v", err)
		}
		if string(data) != "--\n--output=/tmp/elsewhere/{title}\n" {
			t.Errorf("query should follow a -- separator, got argv %q", data)
		}
	})

	t.Run("Nonzero Exit", func(t *testing.T) {
		f := NewSpotDL(FetcherOpts{
			Command:   "/bin/sh",
			Args:      []string{"-c", `echo "no results for $1" >&2; exit 3`},
			OutputDir: t.TempDir(),
		})

		err := f.Fetch(ctx, "Nobody - Nothing")
		if !errors.Is(err, shared.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		if !strings.Contains(err.Error(), "no results for Nobody - Nothing") {
			t.Errorf("expected stderr tail in error, got %v", err)
		}
	})

	t.Run("Missing Command", func(t *testing.T) {
		f := NewSpotDL(FetcherOpts{Command: filepath.Join(t.TempDir(), "nope")})
		if err := f.Fetch(ctx, "x"); !errors.Is(err, shared.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		f := NewSpotDL(FetcherOpts{
			Command: "/bin/sh",
			Args:    []string{"-c", "exec sleep 5"},
			Timeout: 50 * time.Millisecond,
		})

		err := f.Fetch(ctx, "slow")
		if !errors.Is(err, shared.ErrFetch) || !strings.Contains(err.Error(), "timed out") {
			t.Errorf("expected timeout ErrFetch, got %v", err)
		}
	})

	t.Run("Empty Query", func(t *testing.T) {
		f := NewSpotDL(FetcherOpts{Command: "/bin/sh"})
		if err := f.Fetch(ctx, "  "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("FetcherOptsFromConfig", func(t *testing.T) {
		opts := FetcherOptsFromConfig(shared.DefaultConfig().Fetcher, nil)
		if opts.Command != "spotdl" || opts.Timeout != 10*time.Minute || len(opts.Args) != 1 {
			t.Errorf("unexpected opts %+v", opts)
		}
	})
}
