package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParam parses the optional "page" query parameter of the grouped
// listings. Pages are zero-based.
func pageParam(c *gin.Context) (int64, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 0, true
	}
	page, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter [page] parse failed, please provide an integer number."})
		return 0, false
	}
	return page, true
}

// LoopsBySeries handles GET /api/v2/series/:id/loops.
func (h *Handler) LoopsBySeries(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	loops, err := h.engine.GetLoopsBySeries(c.Request.Context(), id, fullRequested(c), cdnRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loops)
}

// LoopsByEpisode handles GET /api/v2/episode/:id/loops.
func (h *Handler) LoopsByEpisode(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	loops, err := h.engine.GetLoopsByEpisode(c.Request.Context(), id, fullRequested(c), cdnRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loops)
}

// EpisodesBySeries handles GET /api/v2/series/:id/episodes.
func (h *Handler) EpisodesBySeries(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	episodes, err := h.engine.GetEpisodesBySeries(c.Request.Context(), id, fullRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, episodes)
}

// TagsByLoop handles GET /api/v2/loop/:id/tags.
func (h *Handler) TagsByLoop(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	tags, err := h.engine.GetTagsByLoop(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// LoopsGroup handles GET /api/v2/group/loops.
func (h *Handler) LoopsGroup(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}

	loops, err := h.engine.GetLoopsByGroup(c.Request.Context(), page, fullRequested(c), cdnRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loops)
}

// LoopsGroupCount handles GET /api/v2/group/loops/count.
func (h *Handler) LoopsGroupCount(c *gin.Context) {
	count, err := h.engine.GetLoopsCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	groups, err := h.engine.GetLoopsGroupCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count, "groups": groups})
}

// EpisodesGroup handles GET /api/v2/group/episodes.
func (h *Handler) EpisodesGroup(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}

	episodes, err := h.engine.GetEpisodesByGroup(c.Request.Context(), page, fullRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, episodes)
}

// EpisodesGroupCount handles GET /api/v2/group/episodes/count.
func (h *Handler) EpisodesGroupCount(c *gin.Context) {
	count, err := h.engine.GetEpisodesCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	groups, err := h.engine.GetEpisodesGroupCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count, "groups": groups})
}

// SeriesGroup handles GET /api/v2/group/series.
func (h *Handler) SeriesGroup(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}

	series, err := h.engine.GetSeriesByGroup(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// SeriesGroupCount handles GET /api/v2/group/series/count.
func (h *Handler) SeriesGroupCount(c *gin.Context) {
	count, err := h.engine.GetSeriesCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	groups, err := h.engine.GetSeriesGroupCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count, "groups": groups})
}
