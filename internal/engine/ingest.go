package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Step identifies which stage of the ingestion pipeline failed.
type Step string

const (
	StepResolveSeries  Step = "series"
	StepResolveEpisode Step = "episode"
	StepInsertLoop     Step = "loop"
)

// IngestError reports the step an ingestion failed at and the original cause.
type IngestError struct {
	Step Step
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest failed at %s: %v", e.Step, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// BatchError reports a batch that failed partway through. The loops inserted
// before the failure have been deleted again unless RollbackErr is set.
type BatchError struct {
	Err         error
	RollbackErr error
}

func (e *BatchError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("batch insert failed: %v (rollback also failed: %v)", e.Err, e.RollbackErr)
	}
	return fmt.Sprintf("batch insert failed, inserted loops rolled back: %v", e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Entity is one raw ingestion record: a loop together with the series and
// episode it was extracted from. AddLoop resolves the parents and fills in
// the database-assigned ids.
type Entity struct {
	Series  *database.Series
	Episode *database.Episode
	Loop    *database.Loop
}

// IngestItem couples an entity with the rendition files the extraction
// pipeline produced for it.
type IngestItem struct {
	Entity    *Entity
	Artifacts []storage.Artifact
}

// AddLoop resolves one ingestion record into linked, persisted documents.
// The steps run strictly in order: find-or-create the series by its business
// key, find-or-create the episode within that series, insert the loop.
// Failure at any step aborts the rest and reports the failing step. Ingesting
// the same series or episode again converges on the existing documents; loops
// are always freshly inserted.
func (e *Engine) AddLoop(ctx context.Context, entity *Entity) (*Entity, error) {
	series, err := e.db.FindOrCreateSeries(ctx, entity.Series)
	if err != nil {
		return nil, &IngestError{Step: StepResolveSeries, Err: err}
	}

	entity.Episode.Series = database.NewRef[database.Series](series.ID)
	episode, err := e.db.FindOrCreateEpisode(ctx, entity.Episode)
	if err != nil {
		return nil, &IngestError{Step: StepResolveEpisode, Err: err}
	}

	entity.Loop.Series = database.NewRef[database.Series](series.ID)
	entity.Loop.Episode = database.NewRef[database.Episode](episode.ID)
	if entity.Loop.UploadDate.IsZero() {
		entity.Loop.UploadDate = time.Now()
	}
	if err := e.db.InsertLoops(ctx, []*database.Loop{entity.Loop}); err != nil {
		return nil, &IngestError{Step: StepInsertLoop, Err: err}
	}

	entity.Series = series
	entity.Episode = episode
	return entity, nil
}

// AddBatch resolves the parents of every item in order, then hands the batch
// to AddLoopsAndFiles. Series and episodes created before a later failure are
// kept; only the loop inserts of this batch roll back.
func (e *Engine) AddBatch(ctx context.Context, items []IngestItem) error {
	for _, item := range items {
		series, err := e.db.FindOrCreateSeries(ctx, item.Entity.Series)
		if err != nil {
			return &IngestError{Step: StepResolveSeries, Err: err}
		}
		item.Entity.Series = series

		item.Entity.Episode.Series = database.NewRef[database.Series](series.ID)
		episode, err := e.db.FindOrCreateEpisode(ctx, item.Entity.Episode)
		if err != nil {
			return &IngestError{Step: StepResolveEpisode, Err: err}
		}
		item.Entity.Episode = episode

		item.Entity.Loop.Series = database.NewRef[database.Series](series.ID)
		item.Entity.Loop.Episode = database.NewRef[database.Episode](episode.ID)
	}

	return e.AddLoopsAndFiles(ctx, items)
}

// AddLoopsAndFiles ingests a batch of already-resolved loops together with
// their rendition files. Phase 1 bulk-inserts all loop documents; on failure
// every loop of this batch is deleted again and the original cause reported.
// Phase 2 moves the file artifacts into the store; files already written
// before a phase 2 failure are not rolled back.
func (e *Engine) AddLoopsAndFiles(ctx context.Context, items []IngestItem) error {
	if len(items) == 0 {
		return nil
	}

	loops := make([]*database.Loop, len(items))
	for i, item := range items {
		if item.Entity.Loop.ID.IsZero() {
			item.Entity.Loop.ID = bson.NewObjectID()
		}
		if item.Entity.Loop.UploadDate.IsZero() {
			item.Entity.Loop.UploadDate = time.Now()
		}
		loops[i] = item.Entity.Loop
	}
	ids := lo.Map(loops, func(loop *database.Loop, _ int) bson.ObjectID { return loop.ID })

	if err := e.db.InsertLoops(ctx, loops); err != nil {
		batchErr := &BatchError{Err: err}
		if rollbackErr := e.db.DeleteLoopsByIDs(ctx, ids); rollbackErr != nil {
			log.Error("failed to roll back partially inserted batch", "error", rollbackErr)
			batchErr.RollbackErr = rollbackErr
		}
		return batchErr
	}

	for _, item := range items {
		if err := e.files.Save(item.Entity.Loop.ID.Hex(), item.Artifacts); err != nil {
			return fmt.Errorf("loops inserted but storing files failed: %w", err)
		}
	}

	log.Info("ingested loop batch", "loops", len(items))
	return nil
}

// RemoveLoopsAndFiles deletes the loop documents first, then their rendition
// files. A file deletion failure after the documents are gone is reported but
// not retried.
func (e *Engine) RemoveLoopsAndFiles(ctx context.Context, ids []bson.ObjectID) error {
	if err := e.db.DeleteLoopsByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete loops: %w", err)
	}

	for _, id := range ids {
		if err := e.files.Delete(id.Hex()); err != nil {
			return fmt.Errorf("loops deleted but removing files failed: %w", err)
		}
	}

	log.Info("removed loops and files", "loops", len(ids))
	return nil
}
