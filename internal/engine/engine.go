// Package engine implements the core of the animeloop server: resolving and
// ingesting loop entities, querying and denormalizing them, and the scheduled
// announcement job.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/OrcaXS/animeloop-server/internal/config"
	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/notify/announce"
	"github.com/OrcaXS/animeloop-server/internal/query"
	"github.com/OrcaXS/animeloop-server/internal/scheduler"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/charmbracelet/log"
	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Pagination defaults applied when a validated query carries no explicit
// limit.
const (
	DefaultLimit = 30
	MaxLimit     = 100
)

// Fixed page sizes of the grouped listings.
const (
	LoopsPerGroup    = 100
	EpisodesPerGroup = 30
	SeriesPerGroup   = 30
)

const collectionCacheTTL = 5 * time.Minute

var _ query.CollectionResolver = (*Engine)(nil)

// Engine wires the document store, the file store and the announcement bot
// together. All mutation of the document store goes through it.
//
// Concurrent ingestion and removal of the same loop id is unsupported and
// has no defined ordering.
type Engine struct {
	cfg       *config.Config
	db        database.DB
	files     *storage.FileStore
	announcer *announce.Client
	scheduler *scheduler.Scheduler

	// collectionCache caches collection membership lookups for the query
	// validator.
	collectionCache *gocache.Cache
}

// New creates a new Engine instance.
func New(cfg *config.Config, db database.DB, files *storage.FileStore) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	e := &Engine{
		cfg:             cfg,
		db:              db,
		files:           files,
		scheduler:       sched,
		collectionCache: gocache.New(collectionCacheTTL, 2*collectionCacheTTL),
	}

	// The announcer is available whenever a webhook is configured; Enabled
	// only governs the scheduled job, so one-shot announcements still work.
	if cfg.Bot != nil && cfg.Bot.WebhookURL != "" {
		e.announcer = announce.NewClient(&announce.Config{
			Enabled:    cfg.Bot.Enabled,
			WebhookURL: cfg.Bot.WebhookURL,
			Topic:      cfg.Bot.Topic,
			Token:      cfg.Bot.Token,
			Hashtag:    cfg.Bot.Hashtag,
		})
	}

	if err := e.setupJobs(); err != nil {
		return nil, err
	}

	return e, nil
}

// Run starts the background jobs and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.scheduler.Start()
	<-ctx.Done()
	return e.scheduler.Stop()
}

// setupJobs configures the scheduled jobs.
func (e *Engine) setupJobs() error {
	if e.announcer == nil || !e.cfg.Bot.Enabled {
		log.Debug("announcement bot disabled, no jobs scheduled")
		return nil
	}

	if err := e.scheduler.AddCronJob(
		"announce_random_loop",
		"Announce Random Loop",
		e.cfg.Bot.Schedule,
		e.AnnounceRandomLoop,
	); err != nil {
		return fmt.Errorf("failed to add announcement job: %w", err)
	}
	return nil
}

// CollectionLoopIDs resolves the member loop ids of a collection, with a
// short-lived cache in front of the document store.
func (e *Engine) CollectionLoopIDs(ctx context.Context, collectionID int64) ([]bson.ObjectID, error) {
	key := strconv.FormatInt(collectionID, 10)
	if cached, ok := e.collectionCache.Get(key); ok {
		return cached.([]bson.ObjectID), nil
	}

	ids, err := e.db.CollectionLoopIDs(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	e.collectionCache.Set(key, ids, gocache.DefaultExpiration)
	return ids, nil
}

// findOptions translates validated query options into storage pagination,
// applying the default and maximum limit.
func findOptions(opts query.Options) database.FindOptions {
	out := database.FindOptions{Limit: DefaultLimit}
	if opts.Limit != nil {
		out.Limit = *opts.Limit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	if out.Limit < 1 {
		out.Limit = 1
	}
	if opts.Page != nil && *opts.Page > 0 {
		out.Page = *opts.Page
	}
	return out
}

func boolOpt(v *bool) bool {
	return v != nil && *v
}
