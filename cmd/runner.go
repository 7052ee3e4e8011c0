package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/services"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/desertthunder/mandolin/internal/tasks"
	"github.com/desertthunder/mandolin/internal/tracklists"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	engine tasks.Engine
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is resolved from the --config file; a nil Engine is built from Config on first use.
type RunnerOpts struct {
	Config *shared.Config
	Engine tasks.Engine
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		engine: opts.Engine,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "mandolin",
		Usage:   "Prepare and resume bulk Spotify downloads with portable download ids",
		Version: version,
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("MANDOLIN_CONFIG"),
			},
		},
		Before:   r.setup,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, prepareCommand, downloadCommand, songCommand, inspectCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup resolves configuration unless it was injected.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config, err := shared.Resolve(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	shared.SetLogLevel(r.logger, r.config.Log.Level)
	return ctx, nil
}

// jobs returns the job engine, building it from config on first use.
func (r *Runner) jobs() (tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	engine, err := newEngine(r.config, r.logger)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return engine, nil
}

// newEngine wires the store, catalog and media fetcher described by config.
//
// Missing catalog credentials leave the catalog unset; prepare commands then fail
// with [shared.ErrServiceUnavailable] while download and inspect keep working.
func newEngine(config *shared.Config, logger *log.Logger) (*tasks.JobEngine, error) {
	store, err := tracklists.NewStore(config.Store.Dir, logger)
	if err != nil {
		return nil, err
	}

	var catalog services.Catalog
	if config.Catalog.HasCredentials() {
		spotify, err := services.NewSpotifyCatalog(services.CatalogOptsFromConfig(config.Catalog, logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify catalog: %w", err)
		}
		catalog = spotify
	} else {
		logger.Debug("catalog credentials not set, prepare commands disabled")
	}

	return tasks.NewJobEngine(tasks.EngineOpts{
		Catalog:     catalog,
		Fetcher:     services.NewSpotDL(services.FetcherOptsFromConfig(config.Fetcher, logger)),
		Store:       store,
		Logger:      logger,
		Concurrency: config.Catalog.Concurrency,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// output flags shared by every command that prints a result
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// render writes data as JSON when --json is set and as plain text otherwise.
func (r *Runner) render(cmd *cli.Command, data any, plain func() []byte) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return r.writeBytes(plain())
}
