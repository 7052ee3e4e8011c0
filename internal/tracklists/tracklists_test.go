package tracklists

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "lists"), shared.NewLogger(nil))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Persist And Resolve", func(t *testing.T) {
		store := newTestStore(t)
		tracks := []models.TrackReference{
			models.NewTrackReference("https://open.spotify.com/track/1", "Highway", "A"),
			models.NewTrackReference("https://open.spotify.com/track/2", "Desert\tRoad", "B", "C"),
			{Query: "Local - Only"},
		}

		if err := store.Persist(ctx, "Road_Trip_1", tracks); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}
		if !store.Exists("Road_Trip_1") {
			t.Error("expected entry to exist after persist")
		}

		got, err := store.Resolve(ctx, "Road_Trip_1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != len(tracks) {
			t.Fatalf("expected %d tracks, got %d", len(tracks), len(got))
		}
		for i := range tracks {
			if got[i] != tracks[i] {
				t.Errorf("track %d = %+v, want %+v", i, got[i], tracks[i])
			}
		}
	})

	t.Run("Empty List", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.Persist(ctx, "empty_1", nil); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}

		got, err := store.Resolve(ctx, "empty_1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no tracks, got %v", got)
		}
	})

	t.Run("Persist Refuses To Overwrite", func(t *testing.T) {
		store := newTestStore(t)
		first := []models.TrackReference{{Query: "first"}}

		if err := store.Persist(ctx, "dup_1", first); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}

		err := store.Persist(ctx, "dup_1", []models.TrackReference{{Query: "second"}})
		if !errors.Is(err, shared.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}

		got, err := store.Resolve(ctx, "dup_1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 1 || got[0].Query != "first" {
			t.Errorf("original entry was modified: %v", got)
		}
	})

	t.Run("No Temp Files Left Behind", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.Persist(ctx, "a_1", []models.TrackReference{{Query: "x"}}); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}
		_ = store.Persist(ctx, "a_1", []models.TrackReference{{Query: "y"}})

		entries, err := os.ReadDir(store.Dir())
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "a_1" {
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			t.Errorf("unexpected directory contents %v", names)
		}
	})

	t.Run("Resolve Missing", func(t *testing.T) {
		store := newTestStore(t)

		for _, name := range []string{"missing_1", "", "..", "../etc/passwd", "a/b"} {
			if _, err := store.Resolve(ctx, name); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("Resolve(%q) expected ErrNotFound, got %v", name, err)
			}
		}
	})

	t.Run("Persist Rejects Bad Names", func(t *testing.T) {
		store := newTestStore(t)

		for _, name := range []string{"", ".", "..", "x/y", `x\y`, ".tmp-x"} {
			if err := store.Persist(ctx, name, nil); !errors.Is(err, shared.ErrStore) {
				t.Errorf("Persist(%q) expected ErrStore, got %v", name, err)
			}
		}
	})

	t.Run("Resolve Skips Blank Lines", func(t *testing.T) {
		store := newTestStore(t)
		data := "https://open.spotify.com/track/1\tA - One\n\n\tB - Two\r\n"
		if err := os.WriteFile(filepath.Join(store.Dir(), "hand_1"), []byte(data), 0644); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		got, err := store.Resolve(ctx, "hand_1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 2 || got[1].Query != "B - Two" {
			t.Errorf("unexpected tracks %+v", got)
		}
	})

	t.Run("Resolve Corrupt Record", func(t *testing.T) {
		store := newTestStore(t)
		if err := os.WriteFile(filepath.Join(store.Dir(), "bad_1"), []byte("a\tb\tc\n"), 0644); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		if _, err := store.Resolve(ctx, "bad_1"); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore, got %v", err)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		store := newTestStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if err := store.Persist(cctx, "c_1", nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if store.Exists("c_1") {
			t.Error("canceled persist should not write")
		}
	})

	t.Run("Concurrent Distinct Names", func(t *testing.T) {
		store := newTestStore(t)
		namer := NewNamer(nil)

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.Persist(ctx, namer.Next("list", ""), []models.TrackReference{{Query: "q"}})
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("concurrent persist failed: %v", err)
			}
		}
	})
}

func TestNamer(t *testing.T) {
	frozen := time.Unix(1718000000, 0)
	pattern := regexp.MustCompile(`^[A-Za-z0-9_()\[\]{}-]+_[0-9]+$`)

	t.Run("Format", func(t *testing.T) {
		n := NewNamer(func() time.Time { return frozen })

		if got := n.Next("Road_Trip", ""); got != "Road_Trip_1718000000000000000" {
			t.Errorf("unexpected name %q", got)
		}
		if got := n.Next("A", "artist1"); got != "artist1_A_1718000000000000001" {
			t.Errorf("unexpected owner-prefixed name %q", got)
		}
	})

	t.Run("Sequential With Frozen Clock", func(t *testing.T) {
		n := NewNamer(func() time.Time { return frozen })
		seen := map[string]bool{}

		for range 1000 {
			name := n.Next("same", "owner")
			if seen[name] {
				t.Fatalf("duplicate name %q", name)
			}
			if !pattern.MatchString(name) {
				t.Fatalf("name %q has unexpected shape", name)
			}
			seen[name] = true
		}
	})

	t.Run("Clock Going Backwards", func(t *testing.T) {
		times := []time.Time{frozen.Add(time.Second), frozen}
		i := 0
		n := NewNamer(func() time.Time {
			tm := times[i%len(times)]
			i++
			return tm
		})

		first := n.Next("x", "")
		second := n.Next("x", "")
		if first == second || !strings.HasSuffix(second, "1718000001000000001") {
			t.Errorf("expected monotonic tokens, got %q then %q", first, second)
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		n := NewNamer(func() time.Time { return frozen })

		var (
			mu   sync.Mutex
			wg   sync.WaitGroup
			seen = map[string]bool{}
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					name := n.Next("list", "user")
					mu.Lock()
					if seen[name] {
						t.Errorf("duplicate name %q", name)
					}
					seen[name] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(seen) != 5000 {
			t.Errorf("expected 5000 names, got %d", len(seen))
		}
	})
}

func TestSanitize(t *testing.T) {
	tc := []struct {
		in, want string
	}{
		{in: "Road Trip", want: "Road_Trip"},
		{in: "  spaced   out  ", want: "spaced_out"},
		{in: "Rock & Roll!", want: "Rock_Roll"},
		{in: "mix (2024) [live] {v2}", want: "mix_(2024)_[live]_{v2}"},
		{in: "already_safe-name", want: "already_safe-name"},
		{in: "Café del Mar", want: "Café_del_Mar"},
		{in: "../../etc", want: "etc"},
		{in: "___", want: Untitled},
		{in: "!!!", want: Untitled},
		{in: "", want: Untitled},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
