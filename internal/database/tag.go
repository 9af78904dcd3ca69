package database

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Tag is a label attached to a loop by one of the tagging sources, with the
// confidence the source reported.
type Tag struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	LoopID     bson.ObjectID `bson:"loopid"`
	Name       string        `bson:"name"`
	Type       string        `bson:"type,omitempty"`
	Source     string        `bson:"source,omitempty"`
	Confidence float64       `bson:"confidence,omitempty"`
}

func (c *Client) InsertTags(ctx context.Context, tags []*Tag) error {
	if len(tags) == 0 {
		return nil
	}
	for _, tag := range tags {
		if tag.ID.IsZero() {
			tag.ID = bson.NewObjectID()
		}
	}
	_, err := c.tags.InsertMany(ctx, tags)
	return wrapErr(err)
}

func (c *Client) FindTags(ctx context.Context, filter bson.M, opts FindOptions) ([]Tag, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cursor, err := c.tags.Find(ctx, filter, findOpts(opts))
	if err != nil {
		return nil, wrapErr(err)
	}
	var out []Tag
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (c *Client) FindTagsByLoop(ctx context.Context, loopID bson.ObjectID) ([]Tag, error) {
	return c.FindTags(ctx, bson.M{"loopid": loopID}, FindOptions{})
}
