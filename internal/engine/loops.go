package engine

import (
	"context"
	"fmt"

	"github.com/OrcaXS/animeloop-server/internal/api/models"
	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GetLoop returns one loop with bare parent references.
func (e *Engine) GetLoop(ctx context.Context, id bson.ObjectID, cdn bool) (*models.Loop, error) {
	return e.getLoop(ctx, id, false, cdn)
}

// GetFullLoop returns one loop with its series and episode populated.
func (e *Engine) GetFullLoop(ctx context.Context, id bson.ObjectID, cdn bool) (*models.Loop, error) {
	return e.getLoop(ctx, id, true, cdn)
}

func (e *Engine) getLoop(ctx context.Context, id bson.ObjectID, full, cdn bool) (*models.Loop, error) {
	loop, err := e.db.FindLoopByID(ctx, id, full)
	if err != nil {
		return nil, err
	}
	out := models.ToLoop(*loop, e.files, cdn)
	return &out, nil
}

// QueryLoops runs a validated loop query and denormalizes the result.
func (e *Engine) QueryLoops(ctx context.Context, res *query.Result) ([]models.Loop, error) {
	loops, err := e.db.FindLoops(ctx, res.Query, boolOpt(res.Opts.Full), findOptions(res.Opts))
	if err != nil {
		return nil, err
	}
	return models.ToLoops(loops, e.files, boolOpt(res.Opts.CDN)), nil
}

// GetLoopsBySeries returns the loops belonging to a series.
func (e *Engine) GetLoopsBySeries(ctx context.Context, id bson.ObjectID, full, cdn bool) ([]models.Loop, error) {
	loops, err := e.db.FindLoops(ctx, bson.M{"series": id}, full, database.FindOptions{})
	if err != nil {
		return nil, err
	}
	return models.ToLoops(loops, e.files, cdn), nil
}

// GetLoopsByEpisode returns the loops belonging to an episode.
func (e *Engine) GetLoopsByEpisode(ctx context.Context, id bson.ObjectID, full, cdn bool) ([]models.Loop, error) {
	loops, err := e.db.FindLoops(ctx, bson.M{"episode": id}, full, database.FindOptions{})
	if err != nil {
		return nil, err
	}
	return models.ToLoops(loops, e.files, cdn), nil
}

// GetRandomLoops returns up to n uniformly sampled loops with bare parent
// references. A population smaller than n yields the whole population.
func (e *Engine) GetRandomLoops(ctx context.Context, n int, cdn bool) ([]models.Loop, error) {
	return e.randomLoops(ctx, n, false, cdn)
}

// GetRandomFullLoops returns up to n uniformly sampled loops with their
// series and episode populated.
func (e *Engine) GetRandomFullLoops(ctx context.Context, n int, cdn bool) ([]models.Loop, error) {
	return e.randomLoops(ctx, n, true, cdn)
}

func (e *Engine) randomLoops(ctx context.Context, n int, full, cdn bool) ([]models.Loop, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample size must be at least 1, got %d", n)
	}
	loops, err := e.db.RandomLoops(ctx, n, full)
	if err != nil {
		return nil, err
	}
	return models.ToLoops(loops, e.files, cdn), nil
}

// GetLoopsByGroup returns one fixed-size page of the loop listing.
func (e *Engine) GetLoopsByGroup(ctx context.Context, group int64, full, cdn bool) ([]models.Loop, error) {
	loops, err := e.db.FindLoops(ctx, bson.M{}, full, database.FindOptions{Page: group, Limit: LoopsPerGroup})
	if err != nil {
		return nil, err
	}
	return models.ToLoops(loops, e.files, cdn), nil
}

// GetLoopsCount returns the number of stored loops.
func (e *Engine) GetLoopsCount(ctx context.Context) (int64, error) {
	return e.db.CountLoops(ctx)
}

// GetLoopsGroupCount returns the number of fixed-size loop pages.
func (e *Engine) GetLoopsGroupCount(ctx context.Context) (int64, error) {
	count, err := e.db.CountLoops(ctx)
	if err != nil {
		return 0, err
	}
	return (count + LoopsPerGroup - 1) / LoopsPerGroup, nil
}
