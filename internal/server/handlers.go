package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/gin-gonic/gin"
)

type linkRequest struct {
	Link string `json:"link" binding:"required"`
}

type tracksRequest struct {
	Name   string   `json:"name"`
	Tracks []string `json:"tracks" binding:"required"`
}

type songRequest struct {
	Query string `json:"query" binding:"required"`
}

// inspectResponse is the decoded download id along with names that no longer resolve.
type inspectResponse struct {
	models.JobDescriptor
	Missing []string `json:"missing"`
}

// statusFor maps err onto an HTTP status using the shared error taxonomy.
func statusFor(err error) int {
	switch {
	case shared.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrCatalogUnavailable), errors.Is(err, shared.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail records err on the context and writes it as a JSON error body.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

// bind decodes the JSON body into req, failing the request with 400 on bad input.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return false
	}
	return true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "mandolin",
		"version":   s.version,
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) preparePlaylist(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}

	summary, err := s.engine.PreparePlaylist(c.Request.Context(), req.Link)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (s *Server) prepareAlbum(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}

	summary, err := s.engine.PrepareAlbum(c.Request.Context(), req.Link)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (s *Server) prepareUserPlaylists(c *gin.Context) {
	batch, err := s.engine.PrepareUserPlaylists(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (s *Server) prepareArtistAlbums(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}

	batch, err := s.engine.PrepareArtistAlbums(c.Request.Context(), req.Link)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (s *Server) prepareTracks(c *gin.Context) {
	var req tracksRequest
	if !bind(c, &req) {
		return
	}

	summary, err := s.engine.PrepareTracks(c.Request.Context(), req.Name, req.Tracks)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (s *Server) inspect(c *gin.Context) {
	d, err := s.engine.Inspect(c.Param("download_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inspectResponse{JobDescriptor: d, Missing: s.engine.Missing(d)})
}

func (s *Server) download(c *gin.Context) {
	report, err := s.engine.Download(c.Request.Context(), c.Param("download_id"), nil)
	if err != nil {
		if report != nil {
			s.logger.Warn("download interrupted", "report", report.ID, "fetched", report.Total)
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) song(c *gin.Context) {
	var req songRequest
	if !bind(c, &req) {
		return
	}

	if err := s.engine.DownloadSong(c.Request.Context(), req.Query); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "downloaded", "query": req.Query})
}
