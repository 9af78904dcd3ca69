// Package database implements the document store for series, episodes, loops
// and tags on top of MongoDB.
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

// DB defines the interface for document store operations.
type DB interface {
	// Series
	FindOrCreateSeries(ctx context.Context, series *Series) (*Series, error)
	UpdateSeries(ctx context.Context, id bson.ObjectID, series *Series) error
	FindSeriesByID(ctx context.Context, id bson.ObjectID) (*Series, error)
	FindSeries(ctx context.Context, filter bson.M, opts FindOptions) ([]Series, error)
	SearchSeries(ctx context.Context, value string) ([]Series, error)
	CountSeries(ctx context.Context) (int64, error)

	// Episodes
	FindOrCreateEpisode(ctx context.Context, episode *Episode) (*Episode, error)
	FindEpisodeByID(ctx context.Context, id bson.ObjectID, full bool) (*Episode, error)
	FindEpisodes(ctx context.Context, filter bson.M, full bool, opts FindOptions) ([]Episode, error)
	CountEpisodes(ctx context.Context) (int64, error)

	// Loops
	InsertLoops(ctx context.Context, loops []*Loop) error
	DeleteLoopsByIDs(ctx context.Context, ids []bson.ObjectID) error
	FindLoopByID(ctx context.Context, id bson.ObjectID, full bool) (*Loop, error)
	FindLoops(ctx context.Context, filter bson.M, full bool, opts FindOptions) ([]Loop, error)
	RandomLoops(ctx context.Context, n int, full bool) ([]Loop, error)
	CountLoops(ctx context.Context) (int64, error)

	// Tags
	InsertTags(ctx context.Context, tags []*Tag) error
	FindTags(ctx context.Context, filter bson.M, opts FindOptions) ([]Tag, error)
	FindTagsByLoop(ctx context.Context, loopID bson.ObjectID) ([]Tag, error)

	// Collections (externally maintained loop groupings, read-only here)
	CollectionLoopIDs(ctx context.Context, collectionID int64) ([]bson.ObjectID, error)

	Close(ctx context.Context) error
}

// FindOptions carries pagination and sorting for list queries.
// Zero values mean "no limit", "first page" and "natural order".
type FindOptions struct {
	Page  int64
	Limit int64
	Sort  bson.D
}

func (o FindOptions) skip() int64 {
	if o.Limit <= 0 || o.Page <= 0 {
		return 0
	}
	return o.Page * o.Limit
}

// Client wraps the mongo client and the collection handles.
type Client struct {
	client *mongo.Client

	series      *mongo.Collection
	episodes    *mongo.Collection
	loops       *mongo.Collection
	tags        *mongo.Collection
	collections *mongo.Collection
}

// New connects to the document store and ensures the uniqueness indexes
// the find-or-create operations rely on.
func New(ctx context.Context, url, dbName string) (*Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	c := &Client{
		client:      client,
		series:      db.Collection("series"),
		episodes:    db.Collection("episodes"),
		loops:       db.Collection("loops"),
		tags:        db.Collection("tags"),
		collections: db.Collection("collections"),
	}

	if err := c.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return c, nil
}

// seriesIndexes returns the indexes backing the series find-or-create keys.
// Both business keys need a unique index: the upsert in FindOrCreateSeries is
// only duplicate-safe when its filter field is uniquely indexed, so without
// the anilist_id index two concurrent ingests of the same catalog id with
// differing titles would both insert. The anilist_id index is partial on
// positive values so title-keyed series don't collide on the absent field.
func seriesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "anilist_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "anilist_id", Value: bson.D{{Key: "$gt", Value: 0}}}}),
		},
	}
}

// ensureIndexes creates the indexes backing the find-or-create keys.
// Episode titles are unique per series, not globally.
func (c *Client) ensureIndexes(ctx context.Context) error {
	if _, err := c.series.Indexes().CreateMany(ctx, seriesIndexes()); err != nil {
		return err
	}

	if _, err := c.episodes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "series", Value: 1}, {Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	if _, err := c.loops.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "series", Value: 1}}},
		{Keys: bson.D{{Key: "episode", Value: 1}}},
	}); err != nil {
		return err
	}

	if _, err := c.tags.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "loopid", Value: 1}},
	}); err != nil {
		return err
	}

	_, err := c.collections.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collectionid", Value: 1}},
	})
	return err
}

// Close disconnects from the document store.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// findOpts translates FindOptions into driver options.
func findOpts(o FindOptions) *options.FindOptionsBuilder {
	fo := options.Find()
	if o.Limit > 0 {
		fo.SetLimit(o.Limit).SetSkip(o.skip())
	}
	if o.Sort != nil {
		fo.SetSort(o.Sort)
	}
	return fo
}

// pageStages appends $sort/$skip/$limit stages to an aggregation pipeline.
func pageStages(pipeline mongo.Pipeline, o FindOptions) mongo.Pipeline {
	if o.Sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: o.Sort}})
	}
	if o.Limit > 0 {
		if skip := o.skip(); skip > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: skip}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: o.Limit}})
	}
	return pipeline
}

// lookupStages populates a stored ObjectID reference field with the referenced
// document, replacing the field in place so the Ref decoder sees either form.
func lookupStages(field, from string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: field},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: field},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + field},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}
