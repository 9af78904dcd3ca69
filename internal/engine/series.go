package engine

import (
	"context"

	"github.com/OrcaXS/animeloop-server/internal/api/models"
	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GetSeries returns one series.
func (e *Engine) GetSeries(ctx context.Context, id bson.ObjectID) (*models.Series, error) {
	series, err := e.db.FindSeriesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := models.ToSeries(*series)
	return &out, nil
}

// QuerySeries runs a validated series query and denormalizes the result.
func (e *Engine) QuerySeries(ctx context.Context, res *query.Result) ([]models.Series, error) {
	series, err := e.db.FindSeries(ctx, res.Query, findOptions(res.Opts))
	if err != nil {
		return nil, err
	}
	return models.ToSeriesList(series), nil
}

// SearchSeries matches the free-text value against titles, description,
// type and genres.
func (e *Engine) SearchSeries(ctx context.Context, value string) ([]models.Series, error) {
	series, err := e.db.SearchSeries(ctx, value)
	if err != nil {
		return nil, err
	}
	return models.ToSeriesList(series), nil
}

// UpdateSeries replaces the attributes of a series.
func (e *Engine) UpdateSeries(ctx context.Context, id bson.ObjectID, series *database.Series) error {
	return e.db.UpdateSeries(ctx, id, series)
}

// GetSeriesByGroup returns one fixed-size page of the series listing.
func (e *Engine) GetSeriesByGroup(ctx context.Context, group int64) ([]models.Series, error) {
	series, err := e.db.FindSeries(ctx, bson.M{}, database.FindOptions{Page: group, Limit: SeriesPerGroup})
	if err != nil {
		return nil, err
	}
	return models.ToSeriesList(series), nil
}

// GetSeriesCount returns the number of stored series.
func (e *Engine) GetSeriesCount(ctx context.Context) (int64, error) {
	return e.db.CountSeries(ctx)
}

// GetSeriesGroupCount returns the number of fixed-size series pages.
func (e *Engine) GetSeriesGroupCount(ctx context.Context) (int64, error) {
	count, err := e.db.CountSeries(ctx)
	if err != nil {
		return 0, err
	}
	return (count + SeriesPerGroup - 1) / SeriesPerGroup, nil
}

// GetEpisode returns one episode, optionally with its series populated.
func (e *Engine) GetEpisode(ctx context.Context, id bson.ObjectID, full bool) (*models.Episode, error) {
	episode, err := e.db.FindEpisodeByID(ctx, id, full)
	if err != nil {
		return nil, err
	}
	out := models.ToEpisode(*episode)
	return &out, nil
}

// QueryEpisodes runs a validated episode query and denormalizes the result.
// Episodes are sorted by episode-number string.
func (e *Engine) QueryEpisodes(ctx context.Context, res *query.Result) ([]models.Episode, error) {
	episodes, err := e.db.FindEpisodes(ctx, res.Query, boolOpt(res.Opts.Full), findOptions(res.Opts))
	if err != nil {
		return nil, err
	}
	return models.ToEpisodes(episodes), nil
}

// GetEpisodesBySeries returns the episodes of a series, sorted by
// episode-number string.
func (e *Engine) GetEpisodesBySeries(ctx context.Context, id bson.ObjectID, full bool) ([]models.Episode, error) {
	episodes, err := e.db.FindEpisodes(ctx, bson.M{"series": id}, full, database.FindOptions{})
	if err != nil {
		return nil, err
	}
	return models.ToEpisodes(episodes), nil
}

// GetEpisodesByGroup returns one fixed-size page of the episode listing.
func (e *Engine) GetEpisodesByGroup(ctx context.Context, group int64, full bool) ([]models.Episode, error) {
	episodes, err := e.db.FindEpisodes(ctx, bson.M{}, full, database.FindOptions{Page: group, Limit: EpisodesPerGroup})
	if err != nil {
		return nil, err
	}
	return models.ToEpisodes(episodes), nil
}

// GetEpisodesCount returns the number of stored episodes.
func (e *Engine) GetEpisodesCount(ctx context.Context) (int64, error) {
	return e.db.CountEpisodes(ctx)
}

// GetEpisodesGroupCount returns the number of fixed-size episode pages.
func (e *Engine) GetEpisodesGroupCount(ctx context.Context) (int64, error) {
	count, err := e.db.CountEpisodes(ctx)
	if err != nil {
		return 0, err
	}
	return (count + EpisodesPerGroup - 1) / EpisodesPerGroup, nil
}

// QueryTags runs a validated tag query.
func (e *Engine) QueryTags(ctx context.Context, res *query.Result) ([]models.Tag, error) {
	tags, err := e.db.FindTags(ctx, res.Query, findOptions(res.Opts))
	if err != nil {
		return nil, err
	}
	return models.ToTags(tags), nil
}

// GetTagsByLoop returns the tags of one loop.
func (e *Engine) GetTagsByLoop(ctx context.Context, loopID bson.ObjectID) ([]models.Tag, error) {
	tags, err := e.db.FindTagsByLoop(ctx, loopID)
	if err != nil {
		return nil, err
	}
	return models.ToTags(tags), nil
}
