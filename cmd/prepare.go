package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mandolin/internal/formatter"
	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/desertthunder/mandolin/internal/tasks"
	"github.com/urfave/cli/v3"
)

// requireArg returns the named positional argument or an [shared.ErrInvalidInput] error.
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: missing <%s> argument", shared.ErrInvalidInput, name)
	}
	return v, nil
}

// PreparePlaylist stores one playlist and prints its summary.
func (r *Runner) PreparePlaylist(ctx context.Context, cmd *cli.Command) error {
	return r.prepareOne(ctx, cmd, "link", tasks.Engine.PreparePlaylist)
}

// PrepareAlbum stores one album and prints its summary.
func (r *Runner) PrepareAlbum(ctx context.Context, cmd *cli.Command) error {
	return r.prepareOne(ctx, cmd, "link", tasks.Engine.PrepareAlbum)
}

// PrepareUserPlaylists stores every public playlist of a user and prints the batch.
func (r *Runner) PrepareUserPlaylists(ctx context.Context, cmd *cli.Command) error {
	return r.prepareMany(ctx, cmd, "user", tasks.Engine.PrepareUserPlaylists)
}

// PrepareArtistAlbums stores every album of an artist and prints the batch.
func (r *Runner) PrepareArtistAlbums(ctx context.Context, cmd *cli.Command) error {
	return r.prepareMany(ctx, cmd, "link", tasks.Engine.PrepareArtistAlbums)
}

// PrepareTracks stores the positional arguments as one ad-hoc list.
func (r *Runner) PrepareTracks(ctx context.Context, cmd *cli.Command) error {
	refs := cmd.Args().Slice()
	if len(refs) == 0 {
		return fmt.Errorf("%w: at least one track is required", shared.ErrInvalidInput)
	}

	engine, err := r.jobs()
	if err != nil {
		return err
	}

	summary, err := engine.PrepareTracks(ctx, cmd.String("name"), refs)
	if err != nil {
		return err
	}

	r.logger.Info("prepared tracks", "name", summary.Name, "tracks", summary.TrackCount)
	return r.render(cmd, summary, func() []byte { return formatter.SummaryText(summary) })
}

func (r *Runner) prepareOne(ctx context.Context, cmd *cli.Command, arg string, fn func(tasks.Engine, context.Context, string) (*models.CollectionSummary, error)) error {
	link, err := requireArg(cmd, arg)
	if err != nil {
		return err
	}

	engine, err := r.jobs()
	if err != nil {
		return err
	}

	summary, err := fn(engine, ctx, link)
	if err != nil {
		return err
	}

	r.logger.Info("prepared collection", "name", summary.Name, "tracks", summary.TrackCount)
	return r.render(cmd, summary, func() []byte { return formatter.SummaryText(summary) })
}

func (r *Runner) prepareMany(ctx context.Context, cmd *cli.Command, arg string, fn func(tasks.Engine, context.Context, string) (*models.PreparedBatch, error)) error {
	ref, err := requireArg(cmd, arg)
	if err != nil {
		return err
	}

	engine, err := r.jobs()
	if err != nil {
		return err
	}

	batch, err := fn(engine, ctx, ref)
	if err != nil {
		return err
	}

	r.logger.Info("prepared batch", "owner", batch.Owner, "collections", len(batch.Collections))
	return r.render(cmd, batch, func() []byte { return formatter.BatchText(batch) })
}
