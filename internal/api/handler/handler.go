// Package handler implements the HTTP handlers of the public API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/engine"
	"github.com/OrcaXS/animeloop-server/internal/query"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Handler holds the dependencies of the API handlers.
type Handler struct {
	engine    *engine.Engine
	uploadDir string
}

// New creates a new Handler. uploadDir is the directory ingest batches
// reference their artifact files in.
func New(eng *engine.Engine, uploadDir string) *Handler {
	return &Handler{engine: eng, uploadDir: uploadDir}
}

// respondError maps core errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var validationErr *query.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, database.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathObjectID parses the :id path parameter.
func pathObjectID(c *gin.Context) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path parameter [id] was not correct, please provide a 24 length ObjectId hex string."})
		return bson.ObjectID{}, false
	}
	return id, true
}

func fullRequested(c *gin.Context) bool {
	return c.Query("full") == "true"
}

func cdnRequested(c *gin.Context) bool {
	return c.Query("cdn") == "true"
}

// Loops handles GET /api/v2/loops.
func (h *Handler) Loops(c *gin.Context) {
	res, err := query.Loop(c.Request.Context(), c.Request.URL.Query(), h.engine)
	if err != nil {
		respondError(c, err)
		return
	}

	loops, err := h.engine.QueryLoops(c.Request.Context(), res)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loops)
}

// Loop handles GET /api/v2/loop/:id.
func (h *Handler) Loop(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	var err error
	var loop any
	if fullRequested(c) {
		loop, err = h.engine.GetFullLoop(c.Request.Context(), id, cdnRequested(c))
	} else {
		loop, err = h.engine.GetLoop(c.Request.Context(), id, cdnRequested(c))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loop)
}

// RandomLoops handles GET /api/v2/rand/loop.
func (h *Handler) RandomLoops(c *gin.Context) {
	n := 1
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter [n] parse failed, please provide a positive integer number."})
			return
		}
		n = parsed
	}

	var err error
	var loops any
	if fullRequested(c) {
		loops, err = h.engine.GetRandomFullLoops(c.Request.Context(), n, cdnRequested(c))
	} else {
		loops, err = h.engine.GetRandomLoops(c.Request.Context(), n, cdnRequested(c))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loops)
}

// DeleteLoop handles DELETE /api/v2/loop/:id. It removes the loop document
// and its rendition files.
func (h *Handler) DeleteLoop(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	if err := h.engine.RemoveLoopsAndFiles(c.Request.Context(), []bson.ObjectID{id}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id.Hex()})
}

// Episodes handles GET /api/v2/episodes.
func (h *Handler) Episodes(c *gin.Context) {
	res, err := query.Episode(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	episodes, err := h.engine.QueryEpisodes(c.Request.Context(), res)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, episodes)
}

// Episode handles GET /api/v2/episode/:id.
func (h *Handler) Episode(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	episode, err := h.engine.GetEpisode(c.Request.Context(), id, fullRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, episode)
}

// SeriesList handles GET /api/v2/series.
func (h *Handler) SeriesList(c *gin.Context) {
	res, err := query.Series(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	series, err := h.engine.QuerySeries(c.Request.Context(), res)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// Series handles GET /api/v2/series/:id.
func (h *Handler) Series(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	series, err := h.engine.GetSeries(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// SearchSeries handles GET /api/v2/search/series.
func (h *Handler) SearchSeries(c *gin.Context) {
	value := c.Query("value")
	if value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter [value] is required."})
		return
	}

	series, err := h.engine.SearchSeries(c.Request.Context(), value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// Tags handles GET /api/v2/tags.
func (h *Handler) Tags(c *gin.Context) {
	res, err := query.Tag(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	tags, err := h.engine.QueryTags(c.Request.Context(), res)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}
