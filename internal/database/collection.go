package database

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CollectionEntry is one membership record of an externally maintained loop
// collection. This service only reads these records.
type CollectionEntry struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	CollectionID int64         `bson:"collectionid"`
	LoopID       bson.ObjectID `bson:"loopid"`
}

// CollectionLoopIDs returns the loop ids belonging to the given collection.
// An unknown collection yields an empty set, not an error.
func (c *Client) CollectionLoopIDs(ctx context.Context, collectionID int64) ([]bson.ObjectID, error) {
	cursor, err := c.collections.Find(ctx, bson.M{"collectionid": collectionID})
	if err != nil {
		return nil, wrapErr(err)
	}

	var entries []CollectionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, wrapErr(err)
	}

	ids := make([]bson.ObjectID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.LoopID)
	}
	return ids, nil
}
