package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func buildIndexOptions(t *testing.T, lister options.Lister[options.IndexOptions]) *options.IndexOptions {
	t.Helper()
	opts := &options.IndexOptions{}
	for _, set := range lister.List() {
		require.NoError(t, set(opts))
	}
	return opts
}

// Both series business keys must be uniquely indexed: the find-or-create
// upsert is only duplicate-safe on a uniquely indexed filter field, so a
// missing anilist_id index would let two concurrent ingests of the same
// catalog id with differing titles insert two documents.
func TestSeriesIndexesCoverBothBusinessKeys(t *testing.T) {
	indexes := seriesIndexes()
	require.Len(t, indexes, 2)

	assert.Equal(t, bson.D{{Key: "title", Value: 1}}, indexes[0].Keys)
	title := buildIndexOptions(t, indexes[0].Options)
	require.NotNil(t, title.Unique)
	assert.True(t, *title.Unique)

	assert.Equal(t, bson.D{{Key: "anilist_id", Value: 1}}, indexes[1].Keys)
	anilist := buildIndexOptions(t, indexes[1].Options)
	require.NotNil(t, anilist.Unique)
	assert.True(t, *anilist.Unique)
	// Partial on positive ids so title-keyed series don't collide on the
	// absent field.
	require.NotNil(t, anilist.PartialFilterExpression)
	assert.Equal(t,
		bson.D{{Key: "anilist_id", Value: bson.D{{Key: "$gt", Value: 0}}}},
		anilist.PartialFilterExpression)
}
