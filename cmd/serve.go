package main

import (
	"context"
	"os"

	"github.com/desertthunder/mandolin/internal/server"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.jobs()
	if err != nil {
		return err
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := server.OptsFromConfig(r.config.Server, engine, r.logger)
	opts.Version = version
	if addr := cmd.String("addr"); addr != "" {
		opts.Addr = addr
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// ConfigInit writes the example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// ConfigCheck validates the resolved configuration and reports whether catalog credentials are set.
func (r *Runner) ConfigCheck(ctx context.Context, cmd *cli.Command) error {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	if err := r.writePlain("✓ Configuration is valid\n"); err != nil {
		return err
	}
	if !r.config.Catalog.HasCredentials() {
		return r.writePlain("! Catalog credentials missing (set %s and %s); prepare commands are disabled\n",
			shared.EnvClientID, shared.EnvClientSecret)
	}
	return r.writePlain("✓ Catalog credentials set\n")
}

