package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/OrcaXS/animeloop-server/internal/api/models"
	"github.com/OrcaXS/animeloop-server/internal/config"
	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/database/mock"
	"github.com/OrcaXS/animeloop-server/internal/engine"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestServer(t *testing.T, db database.DB) *Server {
	t.Helper()

	dataDir := t.TempDir()
	files, err := storage.New(dataDir, "https://animeloop.local", "https://cdn.animeloop.local")
	require.NoError(t, err)

	cfg := &config.Config{
		Listen:    "127.0.0.1:0",
		ServerURL: "https://animeloop.local",
		CDNURL:    "https://cdn.animeloop.local",
		APIKey:    "secret",
		Storage:   &config.StorageConfig{DataDir: dataDir, UploadDir: t.TempDir()},
	}

	eng, err := engine.New(cfg, db, files)
	require.NoError(t, err)

	srv, err := New(cfg, eng, files, false)
	require.NoError(t, err)
	srv.setupRoutes()
	return srv
}

func doRequest(srv *Server, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	return doJSONRequest(srv, method, target, nil, headers)
}

func doJSONRequest(srv *Server, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.ginEngine.ServeHTTP(w, req)
	return w
}

func ingestLoop(t *testing.T, eng *engine.Engine, seriesTitle, episodeNo string) *engine.Entity {
	t.Helper()
	entity, err := eng.AddLoop(context.Background(), &engine.Entity{
		Series:  &database.Series{Title: seriesTitle, Type: "TV", StartDateFuzzy: 20121001},
		Episode: &database.Episode{Title: episodeNo, No: episodeNo},
		Loop: &database.Loop{
			Duration: 2.5,
			Period:   database.Period{Begin: "00:01:30.000", End: "00:01:32.500"},
		},
	})
	require.NoError(t, err)
	return entity
}

func TestGetLoop(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	entity := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	id := entity.Loop.ID.Hex()

	w := doRequest(srv, http.MethodGet, "/api/v2/loop/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loop models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loop))
	assert.Equal(t, id, loop.ID)
	assert.Equal(t, entity.Series.ID.Hex(), loop.SeriesID)
	assert.Nil(t, loop.Series)
	assert.Equal(t, "https://animeloop.local/files/mp4_1080p/"+id+".mp4", loop.Files["mp4_1080p"])
}

func TestGetLoopFull(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	entity := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")

	w := doRequest(srv, http.MethodGet, "/api/v2/loop/"+entity.Loop.ID.Hex()+"?full=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loop models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loop))
	assert.Empty(t, loop.SeriesID)
	require.NotNil(t, loop.Series)
	assert.Equal(t, "Shinsekai Yori", loop.Series.Title)
	assert.Equal(t, "2012-10", loop.Series.Season)
	require.NotNil(t, loop.Episode)
	assert.Equal(t, "1", loop.Episode.No)
}

func TestGetLoopCDNOption(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	entity := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	id := entity.Loop.ID.Hex()

	w := doRequest(srv, http.MethodGet, "/api/v2/loop/"+id+"?cdn=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loop models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loop))
	assert.Equal(t, "https://cdn.animeloop.local/files/mp4_1080p/"+id+".mp4", loop.Files["mp4_1080p"])

	w = doRequest(srv, http.MethodGet, "/api/v2/series/"+entity.Series.ID.Hex()+"/loops?cdn=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loops []models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loops))
	require.Len(t, loops, 1)
	assert.Equal(t, "https://cdn.animeloop.local/files/gif_360p/"+id+".gif", loops[0].Files["gif_360p"])
}

func TestGetLoopNotFound(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	w := doRequest(srv, http.MethodGet, "/api/v2/loop/"+bson.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLoopBadID(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	w := doRequest(srv, http.MethodGet, "/api/v2/loop/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "id")
}

func TestLoopsRejectsBadSeriesID(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	w := doRequest(srv, http.MethodGet, "/api/v2/loops?seriesid=bad-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "seriesid")
}

func TestLoopsFiltersBySeries(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	first := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	ingestLoop(t, srv.engine, "Kemono no Souja Erin", "1")

	w := doRequest(srv, http.MethodGet, "/api/v2/loops?seriesid="+first.Series.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loops []models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loops))
	require.Len(t, loops, 1)
	assert.Equal(t, first.Loop.ID.Hex(), loops[0].ID)
}

func TestRandomLoops(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	ingestLoop(t, srv.engine, "Shinsekai Yori", "2")

	w := doRequest(srv, http.MethodGet, "/api/v2/rand/loop?n=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loops []models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loops))
	assert.Len(t, loops, 2)

	w = doRequest(srv, http.MethodGet, "/api/v2/rand/loop?n=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEpisodesSortedByNo(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	ingestLoop(t, srv.engine, "Shinsekai Yori", "10")
	ingestLoop(t, srv.engine, "Shinsekai Yori", "2")
	ingestLoop(t, srv.engine, "Shinsekai Yori", "1")

	w := doRequest(srv, http.MethodGet, "/api/v2/episodes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var episodes []models.Episode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &episodes))
	require.Len(t, episodes, 3)
	assert.Equal(t, "1", episodes[0].No)
	assert.Equal(t, "10", episodes[1].No)
	assert.Equal(t, "2", episodes[2].No)
}

func TestSearchSeriesRequiresValue(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	w := doRequest(srv, http.MethodGet, "/api/v2/search/series", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "value")
}

func TestSearchSeries(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	ingestLoop(t, srv.engine, "Kemono no Souja Erin", "1")

	w := doRequest(srv, http.MethodGet, "/api/v2/search/series?value=shinsekai", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var series []models.Series
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	require.Len(t, series, 1)
	assert.Equal(t, "Shinsekai Yori", series[0].Title)
}

func TestIngestLoops(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	uploadDir := srv.cfg.Storage.UploadDir
	require.NoError(t, os.WriteFile(filepath.Join(uploadDir, "clip.mp4"), []byte("payload"), 0o644))

	body := map[string]any{
		"loops": []map[string]any{
			{
				"series":  map[string]any{"title": "Shinsekai Yori", "type": "TV"},
				"episode": map[string]any{"title": "1", "no": "1"},
				"loop": map[string]any{
					"duration":     2.5,
					"period_begin": "00:01:30.000",
					"period_end":   "00:01:32.500",
				},
				"files": map[string]string{"mp4_1080p": "clip.mp4"},
			},
		},
	}

	w := doJSONRequest(srv, http.MethodPost, "/api/v2/loops", body, map[string]string{"X-Api-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Ingested int      `json:"ingested"`
		Loops    []string `json:"loops"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Ingested)
	require.Len(t, resp.Loops, 1)

	// The loop is queryable and its artifact was moved into the store.
	w = doRequest(srv, http.MethodGet, "/api/v2/loop/"+resp.Loops[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, filepath.Join(srv.cfg.Storage.DataDir, "mp4_1080p", resp.Loops[0]+".mp4"))
}

func TestIngestLoopsRejectsMissingSeries(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	body := map[string]any{
		"loops": []map[string]any{
			{
				"episode": map[string]any{"title": "1"},
				"loop":    map[string]any{"duration": 1.0},
			},
		},
	}

	w := doJSONRequest(srv, http.MethodPost, "/api/v2/loops", body, map[string]string{"X-Api-Key": "secret"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestLoopsRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())

	w := doJSONRequest(srv, http.MethodPost, "/api/v2/loops", map[string]any{"loops": []any{}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateSeries(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	entity := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	id := entity.Series.ID.Hex()

	body := map[string]any{
		"title":            "Shinsekai Yori",
		"title_english":    "From the New World",
		"type":             "TV",
		"start_date_fuzzy": 20121001,
	}
	w := doJSONRequest(srv, http.MethodPut, "/api/v2/series/"+id, body, map[string]string{"X-Api-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(srv, http.MethodGet, "/api/v2/series/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var series models.Series
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	assert.Equal(t, "From the New World", series.TitleEnglish)

	w = doJSONRequest(srv, http.MethodPut, "/api/v2/series/"+bson.NewObjectID().Hex(), body, map[string]string{"X-Api-Key": "secret"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingsByParent(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	first := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	ingestLoop(t, srv.engine, "Shinsekai Yori", "2")
	ingestLoop(t, srv.engine, "Kemono no Souja Erin", "1")

	w := doRequest(srv, http.MethodGet, "/api/v2/series/"+first.Series.ID.Hex()+"/loops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loops []models.Loop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loops))
	assert.Len(t, loops, 2)

	w = doRequest(srv, http.MethodGet, "/api/v2/series/"+first.Series.ID.Hex()+"/episodes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var episodes []models.Episode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &episodes))
	assert.Len(t, episodes, 2)

	w = doRequest(srv, http.MethodGet, "/api/v2/episode/"+first.Episode.ID.Hex()+"/loops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loops))
	assert.Len(t, loops, 1)
}

func TestGroupListings(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	ingestLoop(t, srv.engine, "Kemono no Souja Erin", "1")

	w := doRequest(srv, http.MethodGet, "/api/v2/group/series", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var series []models.Series
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	assert.Len(t, series, 2)

	w = doRequest(srv, http.MethodGet, "/api/v2/group/loops/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var counts struct {
		Count  int64 `json:"count"`
		Groups int64 `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.EqualValues(t, 2, counts.Count)
	assert.EqualValues(t, 1, counts.Groups)

	w = doRequest(srv, http.MethodGet, "/api/v2/group/loops?page=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteLoopRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t, mock.NewMockDB())
	entity := ingestLoop(t, srv.engine, "Shinsekai Yori", "1")
	id := entity.Loop.ID.Hex()

	w := doRequest(srv, http.MethodDelete, "/api/v2/loop/"+id, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(srv, http.MethodDelete, "/api/v2/loop/"+id, map[string]string{"X-Api-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(srv, http.MethodDelete, "/api/v2/loop/"+id, map[string]string{"X-Api-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(srv, http.MethodGet, "/api/v2/loop/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
