// Package api exposes the public HTTP surface of the animeloop server.
package api

import (
	"fmt"
	"net/http"

	"github.com/OrcaXS/animeloop-server/internal/api/handler"
	"github.com/OrcaXS/animeloop-server/internal/config"
	"github.com/OrcaXS/animeloop-server/internal/engine"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Server is the HTTP API server.
type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
	files     *storage.FileStore
}

// New creates a new API server.
func New(cfg *config.Config, e *engine.Engine, files *storage.FileStore, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:       cfg,
		ginEngine: gin.Default(),
		engine:    e,
		files:     files,
	}, nil
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))

	// Rendition files are served straight from the data directory.
	s.ginEngine.Static("/files", s.cfg.Storage.DataDir)

	h := handler.New(s.engine, s.cfg.Storage.UploadDir)

	v2 := s.ginEngine.Group("/api/v2")
	v2.GET("/loops", h.Loops)
	v2.GET("/loop/:id", h.Loop)
	v2.GET("/loop/:id/tags", h.TagsByLoop)
	v2.GET("/rand/loop", h.RandomLoops)
	v2.GET("/episodes", h.Episodes)
	v2.GET("/episode/:id", h.Episode)
	v2.GET("/episode/:id/loops", h.LoopsByEpisode)
	v2.GET("/series", h.SeriesList)
	v2.GET("/series/:id", h.Series)
	v2.GET("/series/:id/loops", h.LoopsBySeries)
	v2.GET("/series/:id/episodes", h.EpisodesBySeries)
	v2.GET("/search/series", h.SearchSeries)
	v2.GET("/tags", h.Tags)

	v2.GET("/group/loops", h.LoopsGroup)
	v2.GET("/group/loops/count", h.LoopsGroupCount)
	v2.GET("/group/episodes", h.EpisodesGroup)
	v2.GET("/group/episodes/count", h.EpisodesGroupCount)
	v2.GET("/group/series", h.SeriesGroup)
	v2.GET("/group/series/count", h.SeriesGroupCount)

	admin := v2.Group("/", s.requireAPIKey())
	admin.POST("/loops", h.IngestLoops)
	admin.PUT("/series/:id", h.UpdateSeries)
	admin.DELETE("/loop/:id", h.DeleteLoop)
}

// requireAPIKey guards the mutating endpoints. With no key configured they
// are disabled entirely.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey == "" || c.GetHeader("X-Api-Key") != s.cfg.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

// Run starts the API server.
func (s *Server) Run() error {
	s.setupRoutes()
	return s.ginEngine.Run(s.cfg.Listen)
}
