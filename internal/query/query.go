// Package query validates the raw, string-typed query parameters of the
// public API and translates them into structured document store filters.
package query

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ValidationError names the offending query parameter of a rejected request.
// It maps to a 400 response.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query parameter [%s] %s", e.Param, e.Reason)
}

// Options carries the caller-facing knobs that are not document filters.
// Nil fields were absent from the request; the caller applies its defaults.
type Options struct {
	CDN   *bool
	Full  *bool
	Page  *int64
	Limit *int64
}

// Result is the validated outcome of a query-parameter family: a document
// store filter plus the pagination/shape options.
type Result struct {
	Query bson.M
	Opts  Options
}

// CollectionResolver looks up the member loop ids of an externally maintained
// collection.
type CollectionResolver interface {
	CollectionLoopIDs(ctx context.Context, collectionID int64) ([]bson.ObjectID, error)
}

// Loop validates the loop query family: cdn, seriesid, episodeid, duration,
// source_from, full, limit, page, collectionid.
func Loop(ctx context.Context, values url.Values, collections CollectionResolver) (*Result, error) {
	res := &Result{Query: bson.M{}}

	res.Opts.CDN = paramBool(values, "cdn")

	if err := paramObjectID(values, "seriesid", "series", res.Query); err != nil {
		return nil, err
	}
	if err := paramObjectID(values, "episodeid", "episode", res.Query); err != nil {
		return nil, err
	}
	if err := paramFloatRange(values, "duration", "duration", res.Query); err != nil {
		return nil, err
	}
	paramExist(values, "source_from", "sourceFrom", res.Query)

	res.Opts.Full = paramBool(values, "full")
	var err error
	if res.Opts.Limit, err = paramInt(values, "limit"); err != nil {
		return nil, err
	}
	if res.Opts.Page, err = paramInt(values, "page"); err != nil {
		return nil, err
	}

	if err := paramCollection(ctx, values, "collectionid", res.Query, collections); err != nil {
		return nil, err
	}

	return res, nil
}

// Episode validates the episode query family: cdn, seriesid, no, full, limit, page.
func Episode(values url.Values) (*Result, error) {
	res := &Result{Query: bson.M{}}

	res.Opts.CDN = paramBool(values, "cdn")

	if err := paramObjectID(values, "seriesid", "series", res.Query); err != nil {
		return nil, err
	}
	paramExist(values, "no", "no", res.Query)

	res.Opts.Full = paramBool(values, "full")
	var err error
	if res.Opts.Limit, err = paramInt(values, "limit"); err != nil {
		return nil, err
	}
	if res.Opts.Page, err = paramInt(values, "page"); err != nil {
		return nil, err
	}

	return res, nil
}

// Series validates the series query family: cdn, type, season, limit, page.
func Series(values url.Values) (*Result, error) {
	res := &Result{Query: bson.M{}}

	res.Opts.CDN = paramBool(values, "cdn")

	paramExist(values, "type", "type", res.Query)
	if err := paramSeason(values, "season", "start_date_fuzzy", res.Query); err != nil {
		return nil, err
	}

	var err error
	if res.Opts.Limit, err = paramInt(values, "limit"); err != nil {
		return nil, err
	}
	if res.Opts.Page, err = paramInt(values, "page"); err != nil {
		return nil, err
	}

	return res, nil
}

// Tag validates the tag query family: cdn, loopid, type, source, confidence,
// page, limit.
func Tag(values url.Values) (*Result, error) {
	res := &Result{Query: bson.M{}}

	res.Opts.CDN = paramBool(values, "cdn")

	if err := paramObjectID(values, "loopid", "loopid", res.Query); err != nil {
		return nil, err
	}
	paramExist(values, "type", "type", res.Query)
	paramExist(values, "source", "source", res.Query)
	if err := paramFloatRange(values, "confidence", "confidence", res.Query); err != nil {
		return nil, err
	}

	var err error
	if res.Opts.Page, err = paramInt(values, "page"); err != nil {
		return nil, err
	}
	if res.Opts.Limit, err = paramInt(values, "limit"); err != nil {
		return nil, err
	}

	return res, nil
}

// paramBool never fails: absent means unset, anything but the literal "true"
// means false.
func paramBool(values url.Values, name string) *bool {
	raw := values.Get(name)
	if raw == "" {
		return nil
	}
	b := raw == "true"
	return &b
}

// paramObjectID requires a 24 character hex id and stores it under key.
func paramObjectID(values url.Values, name, key string, query bson.M) error {
	raw := values.Get(name)
	if raw == "" {
		return nil
	}
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return &ValidationError{Param: name, Reason: "was not correct, please provide a 24 length ObjectId hex string."}
	}
	query[key] = id
	return nil
}

// paramExist stores the raw value as an exact-match filter when present.
func paramExist(values url.Values, name, key string, query bson.M) {
	if raw := values.Get(name); raw != "" {
		query[key] = raw
	}
}

// paramInt parses an optional integer parameter.
func paramInt(values url.Values, name string) (*int64, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &ValidationError{Param: name, Reason: "parse failed, please provide an integer number."}
	}
	return &n, nil
}

// paramFloatRange parses "a,b" with a <= b into an exclusive range filter
// {$gt: a, $lt: b}.
func paramFloatRange(values url.Values, name, key string, query bson.M) error {
	raw := values.Get(name)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return &ValidationError{Param: name, Reason: "parse failed, please provide two float numbers split by ','."}
	}
	lower, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	upper, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || lower > upper {
		return &ValidationError{Param: name, Reason: "parse failed, please provide two float numbers split by ','."}
	}

	query[key] = bson.M{"$gt": lower, "$lt": upper}
	return nil
}

// paramSeason parses a "YYYY-M" season string into a fuzzy-date range filter
// covering that month: [year*10000+month*100, +99].
func paramSeason(values url.Values, name, key string, query bson.M) error {
	raw := values.Get(name)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return &ValidationError{Param: name, Reason: "parse failed, please provide an YYYY-M date string."}
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return &ValidationError{Param: name, Reason: "parse failed, please provide an YYYY-M date string."}
	}

	gt := year*10000 + month*100
	query[key] = bson.M{"$gt": gt, "$lt": gt + 99}
	return nil
}

// paramCollection resolves the collection's member loop ids and constrains
// the loop id filter to that set. An empty collection is not an error.
func paramCollection(ctx context.Context, values url.Values, name string, query bson.M, collections CollectionResolver) error {
	raw := values.Get(name)
	if raw == "" {
		return nil
	}
	collectionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return &ValidationError{Param: name, Reason: "was not correct, please provide a integer number."}
	}

	ids, err := collections.CollectionLoopIDs(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("failed to resolve collection %d: %w", collectionID, err)
	}
	if ids == nil {
		ids = []bson.ObjectID{}
	}
	query["_id"] = bson.M{"$in": ids}
	return nil
}
