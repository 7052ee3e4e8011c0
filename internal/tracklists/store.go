// Package tracklists persists ordered track lists as flat files keyed by name.
//
// Each file holds one record per line, "<link>\t<query>", in track order.
// Files are written exactly once under a fresh name and never mutated, so
// readers never observe a partial list.
package tracklists

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
)

// maxRecordSize bounds one line of a track-list file.
const maxRecordSize = 64 * 1024

// Store reads and writes track-list files under a single directory.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: store directory is empty", shared.ErrStore)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %v", shared.ErrStore, err)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{dir: dir, logger: shared.WithLogger(logger, "component", "tracklists")}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Persist writes tracks under name.
//
// The records are written to a temp file in the store directory, synced,
// then hard-linked into place; an existing entry under name is an error.
func (s *Store) Persist(ctx context.Context, name string, tracks []models.TrackReference) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", shared.ErrStore, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	for _, t := range tracks {
		if t.IsZero() {
			continue
		}
		if _, err := w.WriteString(t.Record() + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStore, name, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStore, name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync %s: %v", shared.ErrStore, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", shared.ErrStore, name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("%w: failed to set permissions on %s: %v", shared.ErrStore, name, err)
	}

	if err := os.Link(tmpPath, s.path(name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: track list %s already exists", shared.ErrStore, name)
		}
		return fmt.Errorf("%w: failed to publish %s: %v", shared.ErrStore, name, err)
	}

	s.logger.Debug("persisted track list", "name", name, "tracks", len(tracks))
	return nil
}

// Resolve reads the track list stored under name, in order.
func (s *Store) Resolve(ctx context.Context, name string) ([]models.TrackReference, error) {
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("%w: track list %q: %v", shared.ErrNotFound, name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: track list %s", shared.ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: failed to open %s: %v", shared.ErrStore, name, err)
	}
	defer f.Close()

	tracks := []models.TrackReference{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		ref, err := models.ParseRecord(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", shared.ErrStore, name, line, err)
		}
		tracks = append(tracks, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStore, name, err)
	}

	return tracks, nil
}

// Exists reports whether a track list is stored under name.
func (s *Store) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	info, err := os.Stat(s.path(name))
	return err == nil && info.Mode().IsRegular()
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("name is empty")
	case name == "." || name == "..":
		return errors.New("name is a relative path")
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return errors.New("name contains a path separator")
	case strings.HasPrefix(name, ".tmp-"):
		return errors.New("name is reserved")
	}
	return nil
}
