package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mandolin/internal/formatter"
	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/desertthunder/mandolin/internal/tasks"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// inspectResult is the JSON form of the inspect command.
type inspectResult struct {
	models.JobDescriptor
	Missing []string `json:"missing"`
}

// Download resolves a download id and fetches its tracks with a progress bar.
//
// A partial report is still printed when the run is interrupted.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	engine, err := r.jobs()
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.watch(progressCh, !cmd.Bool("json"))
	}()

	report, err := engine.Download(ctx, id, progressCh)
	close(progressCh)
	<-done

	if report == nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		written, csvErr := formatter.WriteCSVReport(report, path)
		if csvErr != nil {
			return csvErr
		}
		r.logger.Info("report written", "path", written)
	}

	if renderErr := r.render(cmd, report, func() []byte { return formatter.ReportText(report) }); renderErr != nil {
		return renderErr
	}
	return err
}

// watch drains progress updates, drawing a bar over the fetch phase when bar is set.
func (r *Runner) watch(progress <-chan tasks.ProgressUpdate, bar bool) {
	var pb *progressbar.ProgressBar

	for update := range progress {
		switch update.Phase {
		case tasks.ResolveLists:
			r.logger.Debug(update.Message)
		case tasks.FetchTrack:
			if !bar {
				continue
			}
			if pb == nil {
				pb = progressbar.NewOptions(update.Total,
					progressbar.OptionSetWriter(r.output),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(30),
					progressbar.OptionClearOnFinish(),
					progressbar.OptionSetPredictTime(false),
				)
			}
			if ref, ok := update.Data.(models.TrackReference); ok {
				label := ref.Query
				if label == "" {
					label = ref.Target()
				}
				pb.Describe(truncate(label, 40))
			}
		case tasks.TrackDone:
			if res, ok := update.Data.(models.TrackResult); ok && !res.OK() {
				r.logger.Warn("track failed", "track", res.Reference.String(), "error", res.Error)
			}
			if pb != nil {
				_ = pb.Set(update.Step)
			}
		}
	}

	if pb != nil {
		_ = pb.Finish()
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// Song fetches a single track. Arguments are joined so unquoted queries work.
func (r *Runner) Song(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: missing <link or query> argument", shared.ErrInvalidInput)
	}

	engine, err := r.jobs()
	if err != nil {
		return err
	}

	if err := engine.DownloadSong(ctx, query); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", query)
}

// Inspect decodes a download id and lists its track-list names.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	engine, err := r.jobs()
	if err != nil {
		return err
	}

	d, err := engine.Inspect(id)
	if err != nil {
		return err
	}

	missing := engine.Missing(d)
	return r.render(cmd, inspectResult{JobDescriptor: d, Missing: missing}, func() []byte {
		return formatter.DescriptorText(d, missing)
	})
}
