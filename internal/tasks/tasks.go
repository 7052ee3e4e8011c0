package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/codec"
	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/normalizer"
	"github.com/desertthunder/mandolin/internal/services"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/desertthunder/mandolin/internal/tracklists"
)

// Engine defines the job operations exposed to the CLI and HTTP layers.
type Engine interface {
	// PreparePlaylist stores one playlist's tracks and returns its summary and download id.
	PreparePlaylist(ctx context.Context, link string) (*models.CollectionSummary, error)

	// PrepareAlbum stores one album's tracks and returns its summary and download id.
	PrepareAlbum(ctx context.Context, link string) (*models.CollectionSummary, error)

	// PrepareUserPlaylists stores every public playlist of a user under one aggregate download id.
	PrepareUserPlaylists(ctx context.Context, userID string) (*models.PreparedBatch, error)

	// PrepareArtistAlbums stores every album of an artist under one aggregate download id.
	PrepareArtistAlbums(ctx context.Context, artistLink string) (*models.PreparedBatch, error)

	// PrepareTracks stores an ad-hoc list of track links or search queries.
	PrepareTracks(ctx context.Context, name string, refs []string) (*models.CollectionSummary, error)

	// Download resolves a download id and fetches every track it covers, list by list.
	Download(ctx context.Context, downloadID string, progress chan<- ProgressUpdate) (*models.FetchReport, error)

	// DownloadSong fetches a single track by link or search query.
	DownloadSong(ctx context.Context, query string) error

	// Inspect decodes a download id without touching the store.
	Inspect(downloadID string) (models.JobDescriptor, error)

	// Missing lists the names in d that have no stored track list.
	Missing(d models.JobDescriptor) []string
}

// TrackStore persists and resolves track lists. Implemented by [tracklists.Store].
type TrackStore interface {
	Persist(ctx context.Context, name string, tracks []models.TrackReference) error
	Resolve(ctx context.Context, name string) ([]models.TrackReference, error)
	Exists(name string) bool
}

// EngineOpts contains the dependencies of a [JobEngine].
type EngineOpts struct {
	Catalog     services.Catalog // Required by the Prepare operations
	Fetcher     services.Fetcher // Required by the Download operations
	Store       TrackStore
	Namer       *tracklists.Namer // Defaults to a namer on the wall clock
	Codec       *codec.Codec      // Defaults to [codec.Default]
	Logger      *log.Logger
	Concurrency int // Parallel catalog fetches for multi-collection requests
}

// JobEngine implements [Engine].
type JobEngine struct {
	catalog     services.Catalog
	fetcher     services.Fetcher
	store       TrackStore
	namer       *tracklists.Namer
	codec       *codec.Codec
	logger      *log.Logger
	concurrency int
}

// NewJobEngine creates a new JobEngine from opts.
func NewJobEngine(opts EngineOpts) (*JobEngine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: track-list store not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Namer == nil {
		opts.Namer = tracklists.NewNamer(nil)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = normalizer.DefaultConcurrency
	}

	return &JobEngine{
		catalog:     opts.Catalog,
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		namer:       opts.Namer,
		codec:       opts.Codec,
		logger:      shared.WithLogger(opts.Logger, "component", "engine"),
		concurrency: opts.Concurrency,
	}, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *JobEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}

func (e *JobEngine) requireCatalog() error {
	if e.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (e *JobEngine) requireFetcher() error {
	if e.fetcher == nil {
		return fmt.Errorf("%w: media fetcher not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// PreparePlaylist stores one playlist and returns its summary.
func (e *JobEngine) PreparePlaylist(ctx context.Context, link string) (*models.CollectionSummary, error) {
	return e.prepareSingle(ctx, normalizer.PlaylistSource{Catalog: e.catalog}, link)
}

// PrepareAlbum stores one album and returns its summary.
func (e *JobEngine) PrepareAlbum(ctx context.Context, link string) (*models.CollectionSummary, error) {
	return e.prepareSingle(ctx, normalizer.AlbumSource{Catalog: e.catalog}, link)
}

// PrepareUserPlaylists stores every public playlist of userID.
func (e *JobEngine) PrepareUserPlaylists(ctx context.Context, userID string) (*models.PreparedBatch, error) {
	userID = strings.TrimSpace(userID)
	owner, err := services.ParseLink(models.KindUser, userID)
	if err != nil {
		return nil, err
	}

	src := normalizer.UserPlaylistsSource{Catalog: e.catalog, Concurrency: e.concurrency}
	return e.prepareBatch(ctx, src, userID, owner)
}

// PrepareArtistAlbums stores every album of the artist behind artistLink.
func (e *JobEngine) PrepareArtistAlbums(ctx context.Context, artistLink string) (*models.PreparedBatch, error) {
	id, err := services.ParseLink(models.KindArtist, artistLink)
	if err != nil {
		return nil, err
	}

	src := normalizer.ArtistAlbumsSource{Catalog: e.catalog, Concurrency: e.concurrency}
	return e.prepareBatch(ctx, src, artistLink, services.CanonicalLink(models.KindArtist, id))
}

// PrepareTracks stores refs, each a track link or search query, as one list named name.
func (e *JobEngine) PrepareTracks(ctx context.Context, name string, refs []string) (*models.CollectionSummary, error) {
	tracks := make([]models.TrackReference, 0, len(refs))
	for _, r := range refs {
		if ref := models.ParseTrackInput(r); !ref.IsZero() {
			tracks = append(tracks, ref)
		}
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks given", shared.ErrInvalidInput)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Tracks"
	}

	return e.persistCollection(ctx, models.FullCollection{
		Kind:       models.KindAdHoc,
		Name:       name,
		SafeName:   tracklists.Sanitize(name),
		TrackCount: len(tracks),
		Tracks:     tracks,
	})
}

func (e *JobEngine) prepareSingle(ctx context.Context, src normalizer.Source, link string) (*models.CollectionSummary, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}

	colls, err := src.Collect(ctx, link)
	if err != nil {
		e.logger.Warn("prepare failed", "kind", src.Kind(), "link", link, "error", err)
		return nil, err
	}
	if len(colls) != 1 {
		return nil, fmt.Errorf("%w: expected one %s, catalog returned %d", shared.ErrCatalogUnavailable, src.Kind(), len(colls))
	}

	return e.persistCollection(ctx, colls[0])
}

// prepareBatch gathers every collection before writing anything, then
// persists them in catalog order and encodes one aggregate id over all of them.
func (e *JobEngine) prepareBatch(ctx context.Context, src normalizer.Source, ref, owner string) (*models.PreparedBatch, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}

	colls, err := src.Collect(ctx, ref)
	if err != nil {
		e.logger.Warn("prepare failed", "kind", src.Kind(), "ref", ref, "error", err)
		return nil, err
	}

	batch := &models.PreparedBatch{
		Owner:       owner,
		Kind:        src.Kind(),
		Collections: make([]models.CollectionSummary, 0, len(colls)),
	}

	for _, c := range colls {
		summary, err := e.persistCollection(ctx, c)
		if err != nil {
			return nil, err
		}
		batch.Collections = append(batch.Collections, *summary)
	}

	id, err := e.codec.Encode(models.NewJobDescriptor(batch.FileNames()...))
	if err != nil {
		return nil, err
	}
	batch.DownloadID = id

	e.logger.Info("prepared batch", "kind", batch.Kind, "owner", owner, "collections", len(batch.Collections))
	return batch, nil
}

func (e *JobEngine) persistCollection(ctx context.Context, c models.FullCollection) (*models.CollectionSummary, error) {
	name := e.namer.Next(c.SafeName, c.OwnerID)

	if err := e.store.Persist(ctx, name, c.Tracks); err != nil {
		e.logger.Error("failed to persist track list", "name", name, "error", err)
		return nil, err
	}

	id, err := e.codec.Encode(models.NewJobDescriptor(name))
	if err != nil {
		return nil, err
	}

	if c.TrackCount != len(c.Tracks) {
		e.logger.Warn("catalog total differs from stored tracks", "name", c.Name, "file", name, "reported", c.TrackCount, "stored", len(c.Tracks))
	}
	e.logger.Info("prepared collection", "kind", c.Kind, "name", c.Name, "file", name, "tracks", len(c.Tracks))
	return &models.CollectionSummary{
		Name:       c.Name,
		TrackCount: c.TrackCount,
		Link:       c.Link,
		DownloadID: id,
		FileName:   name,
	}, nil
}

// Download decodes downloadID, resolves every list it names, then fetches each track in order.
//
// A list that cannot be resolved fails the whole request before any fetch.
// Per-track failures are recorded in the report and do not stop the run.
// When ctx is canceled between tracks the partial report is returned with the context error.
// Repeated names are fetched once per occurrence.
func (e *JobEngine) Download(ctx context.Context, downloadID string, progress chan<- ProgressUpdate) (*models.FetchReport, error) {
	if err := e.requireFetcher(); err != nil {
		return nil, err
	}

	d, err := e.codec.Decode(downloadID)
	if err != nil {
		return nil, err
	}

	lists := make([][]models.TrackReference, len(d.FileNames))
	total := 0
	for i, name := range d.FileNames {
		e.sendProgress(progress, resolveListUpdate(i+1, len(d.FileNames), name))

		tracks, err := e.store.Resolve(ctx, name)
		if err != nil {
			e.logger.Warn("failed to resolve track list", "name", name, "error", err)
			return nil, err
		}
		lists[i] = tracks
		total += len(tracks)
	}

	report := &models.FetchReport{ID: shared.GenerateID(), Lists: make([]models.ListReport, 0, len(lists))}
	logger := shared.WithLogger(e.logger, "report", report.ID)
	logger.Info("starting download", "lists", len(lists), "tracks", total)

	step := 0
	for i, tracks := range lists {
		report.StartList(d.FileNames[i])

		for _, ref := range tracks {
			if err := ctx.Err(); err != nil {
				logger.Warn("download canceled", "fetched", report.Total, "tracks", total)
				return report, err
			}

			step++
			e.sendProgress(progress, fetchTrackUpdate(step, total, ref))

			err := e.fetcher.Fetch(ctx, ref.Target())
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					logger.Warn("download canceled", "fetched", report.Total, "tracks", total)
					return report, ctxErr
				}
				if !errors.Is(err, shared.ErrFetch) {
					err = fmt.Errorf("%w: %s: %v", shared.ErrFetch, ref.Target(), err)
				}
				logger.Warn("failed to fetch track", "list", d.FileNames[i], "track", ref.String(), "error", err)
			}

			report.Record(ref, err)
			e.sendProgress(progress, trackDoneUpdate(step, total, ref, err))
		}
	}

	logger.Info("download finished", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// DownloadSong passes query straight to the media fetcher.
func (e *JobEngine) DownloadSong(ctx context.Context, query string) error {
	if err := e.requireFetcher(); err != nil {
		return err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: empty song query", shared.ErrInvalidInput)
	}

	if err := e.fetcher.Fetch(ctx, query); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, shared.ErrFetch) {
			err = fmt.Errorf("%w: %s: %v", shared.ErrFetch, query, err)
		}
		e.logger.Warn("failed to fetch song", "query", query, "error", err)
		return err
	}

	e.logger.Info("fetched song", "query", query)
	return nil
}

// Inspect decodes downloadID.
func (e *JobEngine) Inspect(downloadID string) (models.JobDescriptor, error) {
	return e.codec.Decode(downloadID)
}

// Missing lists the names in d without a stored track list, in descriptor order.
func (e *JobEngine) Missing(d models.JobDescriptor) []string {
	missing := []string{}
	for _, name := range d.FileNames {
		if !e.store.Exists(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
