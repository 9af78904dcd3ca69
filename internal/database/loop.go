package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Period is a display time range within the source episode ("00:01:02.345").
type Period struct {
	Begin string `bson:"begin"`
	End   string `bson:"end"`
}

// Frame is the frame range of the loop within the source episode.
type Frame struct {
	Begin int `bson:"begin"`
	End   int `bson:"end"`
}

// Loop represents one extracted looping clip. Loops carry no natural dedup
// key; their identity is the generated id.
type Loop struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Duration   float64       `bson:"duration"`
	Period     Period        `bson:"period"`
	Frame      Frame         `bson:"frame"`
	Series     Ref[Series]   `bson:"series,omitempty"`
	Episode    Ref[Episode]  `bson:"episode,omitempty"`
	R18        bool          `bson:"r18"`
	Review     bool          `bson:"review"`
	Tags       []string      `bson:"tags,omitempty"`
	SourceFrom string        `bson:"sourceFrom,omitempty"`
	UploadDate time.Time     `bson:"uploadDate"`
}

// InsertLoops inserts the loops in order, assigning ids to any loop that has
// none. On partial failure the already-assigned ids let the caller roll back
// with DeleteLoopsByIDs.
func (c *Client) InsertLoops(ctx context.Context, loops []*Loop) error {
	if len(loops) == 0 {
		return nil
	}
	for _, loop := range loops {
		if loop.ID.IsZero() {
			loop.ID = bson.NewObjectID()
		}
	}
	_, err := c.loops.InsertMany(ctx, loops)
	return wrapErr(err)
}

// DeleteLoopsByIDs deletes the loops with the given ids. Ids that do not
// exist are skipped, so the call is safe as a compensating rollback.
func (c *Client) DeleteLoopsByIDs(ctx context.Context, ids []bson.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.loops.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return wrapErr(err)
}

func (c *Client) FindLoopByID(ctx context.Context, id bson.ObjectID, full bool) (*Loop, error) {
	if !full {
		var out Loop
		if err := c.loops.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
			return nil, wrapErr(err)
		}
		return &out, nil
	}

	loops, err := c.FindLoops(ctx, bson.M{"_id": id}, true, FindOptions{})
	if err != nil {
		return nil, err
	}
	if len(loops) == 0 {
		return nil, ErrNotFound
	}
	return &loops[0], nil
}

// FindLoops returns the loops matching filter. With full set, the series and
// episode references of every loop are populated.
func (c *Client) FindLoops(ctx context.Context, filter bson.M, full bool, opts FindOptions) ([]Loop, error) {
	if filter == nil {
		filter = bson.M{}
	}

	var (
		cursor *mongo.Cursor
		err    error
	)
	if full {
		pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: filter}}}
		pipeline = append(pipeline, lookupStages("series", "series")...)
		pipeline = append(pipeline, lookupStages("episode", "episodes")...)
		pipeline = pageStages(pipeline, opts)
		cursor, err = c.loops.Aggregate(ctx, pipeline)
	} else {
		cursor, err = c.loops.Find(ctx, filter, findOpts(opts))
	}
	if err != nil {
		return nil, wrapErr(err)
	}

	var out []Loop
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

// RandomLoops returns up to n loops sampled uniformly over the whole loop
// population via $sample. Fewer than n documents is not an error.
func (c *Client) RandomLoops(ctx context.Context, n int, full bool) ([]Loop, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}},
	}
	if full {
		pipeline = append(pipeline, lookupStages("series", "series")...)
		pipeline = append(pipeline, lookupStages("episode", "episodes")...)
	}

	cursor, err := c.loops.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err)
	}

	var out []Loop
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (c *Client) CountLoops(ctx context.Context) (int64, error) {
	n, err := c.loops.CountDocuments(ctx, bson.M{})
	return n, wrapErr(err)
}
