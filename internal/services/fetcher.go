package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/shared"
)

const (
	stderrTail = 512
	waitDelay  = 2 * time.Second // Grace period for child processes holding stderr open after a kill
)

// FetcherOpts configures a [SpotDL] fetcher.
type FetcherOpts struct {
	Command   string        // Executable, defaults to "spotdl"
	Args      []string      // Arguments placed before the query
	OutputDir string        // Working directory for the command, created if missing
	Timeout   time.Duration // Per-track limit, zero disables it
	Logger    *log.Logger
}

// FetcherOptsFromConfig maps the fetcher section of the config file onto [FetcherOpts].
func FetcherOptsFromConfig(c shared.FetcherConfig, logger *log.Logger) FetcherOpts {
	return FetcherOpts{
		Command:   c.Command,
		Args:      c.Args,
		OutputDir: c.OutputDir,
		Timeout:   c.Timeout.Duration,
		Logger:    logger,
	}
}

// SpotDL implements [Fetcher] by running the spotdl command once per track.
type SpotDL struct {
	command        string
	args           []string
	outputDir      string
	timeout        time.Duration
	logger         *log.Logger
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewSpotDL creates a fetcher from opts.
func NewSpotDL(opts FetcherOpts) *SpotDL {
	if opts.Command == "" {
		opts.Command = "spotdl"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotDL{
		command:        opts.Command,
		args:           append([]string{}, opts.Args...),
		outputDir:      opts.OutputDir,
		timeout:        opts.Timeout,
		logger:         shared.WithLogger(opts.Logger, "component", "fetcher"),
		commandContext: exec.CommandContext,
	}
}

// Fetch runs "<command> <args...> -- <query>" and waits for it to exit.
//
// The "--" keeps queries that start with a dash from being read as flags.
//
// A nonzero exit, a start failure or a timeout is reported as
// [shared.ErrFetch] with the tail of the command's stderr.
func (f *SpotDL) Fetch(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	if f.outputDir != "" {
		if err := os.MkdirAll(f.outputDir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create output directory: %v", shared.ErrFetch, err)
		}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := append(append([]string{}, f.args...), "--", query)
	cmd := f.commandContext(ctx, f.command, args...)
	cmd.Dir = f.outputDir
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	f.logger.Debug("fetching track", "query", query)

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s timed out after %s", shared.ErrFetch, query, f.timeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v%s", shared.ErrFetch, query, err, tail(stderr.String()))
	}

	f.logger.Debug("fetched track", "query", query, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return ": " + s
}
