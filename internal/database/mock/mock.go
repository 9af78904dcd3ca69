// Package mock provides an in-memory implementation of database.DB for testing.
package mock

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/OrcaXS/animeloop-server/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	series   map[bson.ObjectID]*database.Series
	episodes map[bson.ObjectID]*database.Episode
	loops    map[bson.ObjectID]*database.Loop
	tags     map[bson.ObjectID]*database.Tag

	// Collection membership, keyed by collection id.
	collections map[int64][]bson.ObjectID

	// Error simulation
	FindOrCreateSeriesError  error
	FindOrCreateEpisodeError error
	InsertLoopsError         error
	// InsertLoopsFailAfter makes InsertLoops insert that many loops and then
	// return InsertLoopsError, simulating a partial batch failure.
	InsertLoopsFailAfter   int
	DeleteLoopsByIDsError  error
	FindLoopsError         error
	RandomLoopsError       error
	CollectionLoopIDsError error

	// Call tracking
	DeletedLoopIDs []bson.ObjectID
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		series:      make(map[bson.ObjectID]*database.Series),
		episodes:    make(map[bson.ObjectID]*database.Episode),
		loops:       make(map[bson.ObjectID]*database.Loop),
		tags:        make(map[bson.ObjectID]*database.Tag),
		collections: make(map[int64][]bson.ObjectID),
	}
}

func (m *MockDB) FindOrCreateSeries(_ context.Context, series *database.Series) (*database.Series, error) {
	if m.FindOrCreateSeriesError != nil {
		return nil, m.FindOrCreateSeriesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.series {
		if series.AnilistID != 0 && existing.AnilistID == series.AnilistID {
			return existing, nil
		}
		if series.AnilistID == 0 && existing.Title == series.Title {
			return existing, nil
		}
	}

	created := *series
	created.ID = bson.NewObjectID()
	m.series[created.ID] = &created
	return &created, nil
}

func (m *MockDB) UpdateSeries(_ context.Context, id bson.ObjectID, series *database.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[id]; !ok {
		return database.ErrNotFound
	}
	updated := *series
	updated.ID = id
	m.series[id] = &updated
	return nil
}

func (m *MockDB) FindSeriesByID(_ context.Context, id bson.ObjectID) (*database.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	series, ok := m.series[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return series, nil
}

func (m *MockDB) FindSeries(_ context.Context, filter bson.M, opts database.FindOptions) ([]database.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Series
	for _, series := range m.series {
		if matchSeries(series, filter) {
			out = append(out, *series)
		}
	}
	return paginate(out, opts), nil
}

func (m *MockDB) SearchSeries(_ context.Context, value string) ([]database.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Series
	for _, series := range m.series {
		match := true
		for _, word := range strings.Fields(value) {
			haystack := strings.ToLower(strings.Join([]string{
				series.Title, series.TitleRomaji, series.TitleEnglish,
				series.TitleJapanese, series.Description, series.Type,
				strings.Join(series.Genres, " "),
			}, " "))
			if !strings.Contains(haystack, strings.ToLower(word)) {
				match = false
				break
			}
		}
		if match {
			out = append(out, *series)
		}
	}
	return out, nil
}

func (m *MockDB) CountSeries(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.series)), nil
}

func (m *MockDB) FindOrCreateEpisode(_ context.Context, episode *database.Episode) (*database.Episode, error) {
	if m.FindOrCreateEpisodeError != nil {
		return nil, m.FindOrCreateEpisodeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.episodes {
		if existing.Series.ID == episode.Series.ID && existing.Title == episode.Title {
			return existing, nil
		}
	}

	created := *episode
	created.ID = bson.NewObjectID()
	m.episodes[created.ID] = &created
	return &created, nil
}

func (m *MockDB) FindEpisodeByID(_ context.Context, id bson.ObjectID, full bool) (*database.Episode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	episode, ok := m.episodes[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *episode
	if full {
		m.populateEpisode(&out)
	}
	return &out, nil
}

func (m *MockDB) FindEpisodes(_ context.Context, filter bson.M, full bool, opts database.FindOptions) ([]database.Episode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Episode
	for _, episode := range m.episodes {
		if !matchID(filter, "series", episode.Series.ID) {
			continue
		}
		if no, ok := filter["no"]; ok && episode.No != no {
			continue
		}
		copied := *episode
		if full {
			m.populateEpisode(&copied)
		}
		out = append(out, copied)
	}
	return paginate(out, opts), nil
}

func (m *MockDB) CountEpisodes(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.episodes)), nil
}

func (m *MockDB) InsertLoops(_ context.Context, loops []*database.Loop) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, loop := range loops {
		if m.InsertLoopsError != nil && i >= m.InsertLoopsFailAfter {
			return m.InsertLoopsError
		}
		if loop.ID.IsZero() {
			loop.ID = bson.NewObjectID()
		}
		copied := *loop
		m.loops[copied.ID] = &copied
	}
	return nil
}

func (m *MockDB) DeleteLoopsByIDs(_ context.Context, ids []bson.ObjectID) error {
	if m.DeleteLoopsByIDsError != nil {
		return m.DeleteLoopsByIDsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.loops, id)
	}
	m.DeletedLoopIDs = append(m.DeletedLoopIDs, ids...)
	return nil
}

func (m *MockDB) FindLoopByID(_ context.Context, id bson.ObjectID, full bool) (*database.Loop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loop, ok := m.loops[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *loop
	if full {
		m.populateLoop(&out)
	}
	return &out, nil
}

func (m *MockDB) FindLoops(_ context.Context, filter bson.M, full bool, opts database.FindOptions) ([]database.Loop, error) {
	if m.FindLoopsError != nil {
		return nil, m.FindLoopsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Loop
	for _, loop := range m.loops {
		if !matchID(filter, "series", loop.Series.ID) ||
			!matchID(filter, "episode", loop.Episode.ID) ||
			!matchID(filter, "_id", loop.ID) {
			continue
		}
		copied := *loop
		if full {
			m.populateLoop(&copied)
		}
		out = append(out, copied)
	}
	return paginate(out, opts), nil
}

func (m *MockDB) RandomLoops(_ context.Context, n int, full bool) ([]database.Loop, error) {
	if m.RandomLoopsError != nil {
		return nil, m.RandomLoopsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]database.Loop, 0, len(m.loops))
	for _, loop := range m.loops {
		copied := *loop
		if full {
			m.populateLoop(&copied)
		}
		all = append(all, copied)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

func (m *MockDB) CountLoops(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.loops)), nil
}

func (m *MockDB) InsertTags(_ context.Context, tags []*database.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		if tag.ID.IsZero() {
			tag.ID = bson.NewObjectID()
		}
		copied := *tag
		m.tags[copied.ID] = &copied
	}
	return nil
}

func (m *MockDB) FindTags(_ context.Context, filter bson.M, opts database.FindOptions) ([]database.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Tag
	for _, tag := range m.tags {
		if !matchID(filter, "loopid", tag.LoopID) {
			continue
		}
		if typ, ok := filter["type"]; ok && tag.Type != typ {
			continue
		}
		if source, ok := filter["source"]; ok && tag.Source != source {
			continue
		}
		out = append(out, *tag)
	}
	return paginate(out, opts), nil
}

func (m *MockDB) FindTagsByLoop(ctx context.Context, loopID bson.ObjectID) ([]database.Tag, error) {
	return m.FindTags(ctx, bson.M{"loopid": loopID}, database.FindOptions{})
}

func (m *MockDB) CollectionLoopIDs(_ context.Context, collectionID int64) ([]bson.ObjectID, error) {
	if m.CollectionLoopIDsError != nil {
		return nil, m.CollectionLoopIDsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collections[collectionID], nil
}

// SetCollection registers the membership of a collection for tests.
func (m *MockDB) SetCollection(collectionID int64, loopIDs []bson.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collectionID] = loopIDs
}

func (m *MockDB) Close(_ context.Context) error { return nil }

// populateLoop resolves the series and episode references in place.
// Callers must hold the lock.
func (m *MockDB) populateLoop(loop *database.Loop) {
	if series, ok := m.series[loop.Series.ID]; ok {
		loop.Series = database.ResolvedRef(series.ID, series)
	}
	if episode, ok := m.episodes[loop.Episode.ID]; ok {
		copied := *episode
		loop.Episode = database.ResolvedRef(copied.ID, &copied)
	}
}

func (m *MockDB) populateEpisode(episode *database.Episode) {
	if series, ok := m.series[episode.Series.ID]; ok {
		episode.Series = database.ResolvedRef(series.ID, series)
	}
}

// matchID checks an ObjectID field of a document against a filter that may
// hold a plain id or an $in set. A missing filter key matches everything.
func matchID(filter bson.M, key string, id bson.ObjectID) bool {
	if filter == nil {
		return true
	}
	want, ok := filter[key]
	if !ok {
		return true
	}
	switch v := want.(type) {
	case bson.ObjectID:
		return v == id
	case bson.M:
		in, ok := v["$in"].([]bson.ObjectID)
		if !ok {
			return false
		}
		for _, candidate := range in {
			if candidate == id {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchSeries(series *database.Series, filter bson.M) bool {
	if filter == nil {
		return true
	}
	if typ, ok := filter["type"]; ok && series.Type != typ {
		return false
	}
	if rng, ok := filter["start_date_fuzzy"].(bson.M); ok {
		gt, _ := rng["$gt"].(int)
		lt, _ := rng["$lt"].(int)
		if !(series.StartDateFuzzy > gt && series.StartDateFuzzy < lt) {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, opts database.FindOptions) []T {
	if opts.Limit <= 0 {
		return items
	}
	skip := opts.Page * opts.Limit
	if skip >= int64(len(items)) {
		return nil
	}
	items = items[skip:]
	if int64(len(items)) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items
}
