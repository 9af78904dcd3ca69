package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestRefMarshalsAsBareID(t *testing.T) {
	id := bson.NewObjectID()
	doc := struct {
		Series Ref[Series] `bson:"series"`
	}{Series: NewRef[Series](id)}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	// On disk the reference is always a bare id, resolved or not.
	var stored struct {
		Series bson.ObjectID `bson:"series"`
	}
	require.NoError(t, bson.Unmarshal(raw, &stored))
	assert.Equal(t, id, stored.Series)
}

func TestRefUnmarshalsBareID(t *testing.T) {
	id := bson.NewObjectID()
	raw, err := bson.Marshal(bson.M{"series": id})
	require.NoError(t, err)

	var doc struct {
		Series Ref[Series] `bson:"series"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, id, doc.Series.ID)
	assert.False(t, doc.Series.Resolved())
}

func TestRefUnmarshalsPopulatedDocument(t *testing.T) {
	series := Series{ID: bson.NewObjectID(), Title: "Shinsekai Yori", Type: "TV"}
	raw, err := bson.Marshal(bson.M{"series": series})
	require.NoError(t, err)

	var doc struct {
		Series Ref[Series] `bson:"series"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))

	require.True(t, doc.Series.Resolved())
	assert.Equal(t, series.ID, doc.Series.ID)
	assert.Equal(t, "Shinsekai Yori", doc.Series.Doc.Title)
}

func TestRefUnmarshalsNull(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"series": nil})
	require.NoError(t, err)

	var doc struct {
		Series Ref[Series] `bson:"series"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.True(t, doc.Series.IsZero())
}

func TestRefIsZero(t *testing.T) {
	assert.True(t, Ref[Series]{}.IsZero())
	assert.False(t, NewRef[Series](bson.NewObjectID()).IsZero())

	resolved := ResolvedRef(bson.NewObjectID(), &Series{})
	assert.False(t, resolved.IsZero())
	assert.True(t, resolved.Resolved())
}
