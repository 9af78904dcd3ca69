package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Series represents one anime series. The unique business key is the anilist
// catalog id when present, otherwise the title. Start and end dates are fuzzy
// dates (year*10000 + month*100) so season queries stay simple integer ranges.
type Series struct {
	ID               bson.ObjectID `bson:"_id,omitempty"`
	Title            string        `bson:"title"`
	TitleTChinese    string        `bson:"title_t_chinese,omitempty"`
	TitleRomaji      string        `bson:"title_romaji,omitempty"`
	TitleEnglish     string        `bson:"title_english,omitempty"`
	TitleJapanese    string        `bson:"title_japanese,omitempty"`
	Description      string        `bson:"description,omitempty"`
	Genres           []string      `bson:"genres,omitempty"`
	Type             string        `bson:"type,omitempty"`
	TotalEpisodes    int           `bson:"total_episodes,omitempty"`
	StartDateFuzzy   int           `bson:"start_date_fuzzy,omitempty"`
	EndDateFuzzy     int           `bson:"end_date_fuzzy,omitempty"`
	Adult            bool          `bson:"adult,omitempty"`
	Hashtag          string        `bson:"hashtag,omitempty"`
	ImageURLLarge    string        `bson:"image_url_large,omitempty"`
	ImageURLBanner   string        `bson:"image_url_banner,omitempty"`
	AnilistID        int           `bson:"anilist_id,omitempty"`
	AnilistUpdatedAt time.Time     `bson:"anilist_updated_at,omitempty"`
	UpdatedAt        time.Time     `bson:"updated_at,omitempty"`
}

// Key returns the find-or-create filter for this series: the external catalog
// id when present, the title otherwise.
func (s *Series) Key() bson.M {
	if s.AnilistID != 0 {
		return bson.M{"anilist_id": s.AnilistID}
	}
	return bson.M{"title": s.Title}
}

// searchFields are the fields the free-text series search matches against.
var searchFields = []string{
	"title",
	"title_romaji",
	"title_english",
	"title_japanese",
	"description",
	"type",
	"genres",
}

// FindOrCreateSeries atomically finds the series matching its business key or
// inserts it. Concurrent callers with the same key always converge on a single
// document; a duplicate-key race lost against another upsert is retried and
// resolves to the winner's document.
func (c *Client) FindOrCreateSeries(ctx context.Context, series *Series) (*Series, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out Series
	err := c.series.FindOneAndUpdate(ctx, series.Key(), bson.M{"$setOnInsert": series}, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race, the winner's document exists now.
		err = c.series.FindOne(ctx, series.Key()).Decode(&out)
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return &out, nil
}

// UpdateSeries replaces the mutable attributes of a series.
func (c *Client) UpdateSeries(ctx context.Context, id bson.ObjectID, series *Series) error {
	series.UpdatedAt = time.Now()
	res, err := c.series.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": series})
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) FindSeriesByID(ctx context.Context, id bson.ObjectID) (*Series, error) {
	var out Series
	if err := c.series.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return nil, wrapErr(err)
	}
	return &out, nil
}

func (c *Client) FindSeries(ctx context.Context, filter bson.M, opts FindOptions) ([]Series, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cursor, err := c.series.Find(ctx, filter, findOpts(opts))
	if err != nil {
		return nil, wrapErr(err)
	}
	var out []Series
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

// SearchSeries matches every whitespace-separated word of value against the
// title, description, type and genre fields, case-insensitively. A document
// matches when each word matches at least one field.
func (c *Client) SearchSeries(ctx context.Context, value string) ([]Series, error) {
	words := strings.Fields(value)
	if len(words) == 0 {
		return nil, nil
	}

	and := make([]bson.M, 0, len(words))
	for _, word := range words {
		or := make([]bson.M, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: bson.M{"$regex": word, "$options": "i"}})
		}
		and = append(and, bson.M{"$or": or})
	}

	return c.FindSeries(ctx, bson.M{"$and": and}, FindOptions{})
}

func (c *Client) CountSeries(ctx context.Context) (int64, error) {
	n, err := c.series.CountDocuments(ctx, bson.M{})
	return n, wrapErr(err)
}
