package handler

import (
	"net/http"
	"path/filepath"

	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/engine"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type seriesPayload struct {
	Title          string   `json:"title" binding:"required"`
	TitleRomaji    string   `json:"title_romaji"`
	TitleEnglish   string   `json:"title_english"`
	TitleJapanese  string   `json:"title_japanese"`
	Description    string   `json:"description"`
	Genres         []string `json:"genres"`
	Type           string   `json:"type"`
	TotalEpisodes  int      `json:"total_episodes"`
	StartDateFuzzy int      `json:"start_date_fuzzy"`
	EndDateFuzzy   int      `json:"end_date_fuzzy"`
	AnilistID      int      `json:"anilist_id"`
	ImageURLLarge  string   `json:"image_url_large"`
	ImageURLBanner string   `json:"image_url_banner"`
}

func (p *seriesPayload) toSeries() *database.Series {
	return &database.Series{
		Title:          p.Title,
		TitleRomaji:    p.TitleRomaji,
		TitleEnglish:   p.TitleEnglish,
		TitleJapanese:  p.TitleJapanese,
		Description:    p.Description,
		Genres:         p.Genres,
		Type:           p.Type,
		TotalEpisodes:  p.TotalEpisodes,
		StartDateFuzzy: p.StartDateFuzzy,
		EndDateFuzzy:   p.EndDateFuzzy,
		AnilistID:      p.AnilistID,
		ImageURLLarge:  p.ImageURLLarge,
		ImageURLBanner: p.ImageURLBanner,
	}
}

type episodePayload struct {
	Title string `json:"title" binding:"required"`
	No    string `json:"no"`
}

type loopPayload struct {
	Duration    float64 `json:"duration"`
	PeriodBegin string  `json:"period_begin"`
	PeriodEnd   string  `json:"period_end"`
	FrameBegin  int     `json:"frame_begin"`
	FrameEnd    int     `json:"frame_end"`
	SourceFrom  string  `json:"source_from"`
	R18         bool    `json:"r18"`
}

type ingestItemPayload struct {
	Series  *seriesPayload  `json:"series" binding:"required"`
	Episode *episodePayload `json:"episode" binding:"required"`
	Loop    *loopPayload    `json:"loop" binding:"required"`
	// Files maps rendition names to file names inside the upload directory.
	Files map[string]string `json:"files"`
}

type ingestRequest struct {
	Loops []ingestItemPayload `json:"loops" binding:"required,min=1,dive"`
}

// IngestLoops handles POST /api/v2/loops. It accepts a batch produced by the
// extraction pipeline: loop metadata plus rendition file names relative to
// the upload directory.
func (h *Handler) IngestLoops(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingest payload: " + err.Error()})
		return
	}

	items := make([]engine.IngestItem, len(req.Loops))
	for i, payload := range req.Loops {
		artifacts := make([]storage.Artifact, 0, len(payload.Files))
		for rendition, name := range payload.Files {
			// Base strips any path components an uploader might sneak in.
			artifacts = append(artifacts, storage.Artifact{
				Rendition:  rendition,
				SourcePath: filepath.Join(h.uploadDir, filepath.Base(name)),
			})
		}

		items[i] = engine.IngestItem{
			Entity: &engine.Entity{
				Series: payload.Series.toSeries(),
				Episode: &database.Episode{
					Title: payload.Episode.Title,
					No:    payload.Episode.No,
				},
				Loop: &database.Loop{
					Duration:   payload.Loop.Duration,
					Period:     database.Period{Begin: payload.Loop.PeriodBegin, End: payload.Loop.PeriodEnd},
					Frame:      database.Frame{Begin: payload.Loop.FrameBegin, End: payload.Loop.FrameEnd},
					SourceFrom: payload.Loop.SourceFrom,
					R18:        payload.Loop.R18,
				},
			},
			Artifacts: artifacts,
		}
	}

	if err := h.engine.AddBatch(c.Request.Context(), items); err != nil {
		respondError(c, err)
		return
	}

	ids := lo.Map(items, func(item engine.IngestItem, _ int) string {
		return item.Entity.Loop.ID.Hex()
	})
	c.JSON(http.StatusOK, gin.H{"ingested": len(ids), "loops": ids})
}

// UpdateSeries handles PUT /api/v2/series/:id.
func (h *Handler) UpdateSeries(c *gin.Context) {
	id, ok := pathObjectID(c)
	if !ok {
		return
	}

	var payload seriesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid series payload: " + err.Error()})
		return
	}

	if err := h.engine.UpdateSeries(c.Request.Context(), id, payload.toSeries()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id.Hex()})
}
