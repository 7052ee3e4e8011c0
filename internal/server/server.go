package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/desertthunder/mandolin/internal/tasks"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Opts contains configuration options for creating a [Server].
type Opts struct {
	Engine      tasks.Engine
	Logger      *log.Logger
	Addr        string
	CORSOrigins []string
	Version     string
}

// OptsFromConfig builds server options from the [shared.ServerConfig] section.
func OptsFromConfig(cfg shared.ServerConfig, engine tasks.Engine, logger *log.Logger) Opts {
	return Opts{
		Engine:      engine,
		Logger:      logger,
		Addr:        cfg.Addr(),
		CORSOrigins: cfg.CORSOrigins,
	}
}

// Server wires the gin router to a [tasks.Engine].
type Server struct {
	engine  tasks.Engine
	logger  *log.Logger
	addr    string
	version string
	router  *gin.Engine
}

// New creates a Server with its routes and middleware registered.
func New(opts Opts) (*Server, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("%w: job engine not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		engine:  opts.Engine,
		logger:  shared.WithLogger(opts.Logger, "component", "server"),
		addr:    opts.Addr,
		version: opts.Version,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.Use(CORS(opts.CORSOrigins))
	s.routes(r)
	s.router = r

	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/playlists", s.preparePlaylist)
		api.POST("/albums", s.prepareAlbum)
		api.POST("/users/:user_id/playlists", s.prepareUserPlaylists)
		api.POST("/artists", s.prepareArtistAlbums)
		api.POST("/tracks", s.prepareTracks)

		downloads := api.Group("/downloads")
		{
			downloads.GET("/:download_id", s.inspect)
			downloads.POST("/:download_id", s.download)
		}

		api.POST("/songs", s.song)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// Run listens on the configured address until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
