package database

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Episode represents one episode of a series. The episode number is kept as a
// display string ("1", "OVA", "SP2"). Episodes are unique per (series, title).
type Episode struct {
	ID     bson.ObjectID `bson:"_id,omitempty"`
	Title  string        `bson:"title"`
	No     string        `bson:"no,omitempty"`
	Series Ref[Series]   `bson:"series,omitempty"`
}

// FindOrCreateEpisode atomically finds the episode with the same title within
// its series or inserts it. The series reference must already be stamped.
func (c *Client) FindOrCreateEpisode(ctx context.Context, episode *Episode) (*Episode, error) {
	filter := bson.M{
		"series": episode.Series.ID,
		"title":  episode.Title,
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out Episode
	err := c.episodes.FindOneAndUpdate(ctx, filter, bson.M{"$setOnInsert": episode}, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		err = c.episodes.FindOne(ctx, filter).Decode(&out)
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return &out, nil
}

func (c *Client) FindEpisodeByID(ctx context.Context, id bson.ObjectID, full bool) (*Episode, error) {
	if !full {
		var out Episode
		if err := c.episodes.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
			return nil, wrapErr(err)
		}
		return &out, nil
	}

	episodes, err := c.FindEpisodes(ctx, bson.M{"_id": id}, true, FindOptions{})
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, ErrNotFound
	}
	return &episodes[0], nil
}

// FindEpisodes returns the episodes matching filter. With full set, the series
// reference of every episode is populated.
func (c *Client) FindEpisodes(ctx context.Context, filter bson.M, full bool, opts FindOptions) ([]Episode, error) {
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
		pipeline = pageStages(pipeline, opts)
		cursor, err = c.episodes.Aggregate(ctx, pipeline)
	} else {
		cursor, err = c.episodes.Find(ctx, filter, findOpts(opts))
	}
	if err != nil {
		return nil, wrapErr(err)
	}

	var out []Episode
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (c *Client) CountEpisodes(ctx context.Context) (int64, error) {
	n, err := c.episodes.CountDocuments(ctx, bson.M{})
	return n, wrapErr(err)
}
