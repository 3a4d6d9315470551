package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/services/reachability"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/metrics"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/validation"
)

const snapshotKey = "candidates"

// DeleteManyRequest lists explicit ids to delete
type DeleteManyRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// BatchRequest selects one slice of the safe candidate snapshot
type BatchRequest struct {
	BatchSize   int `json:"batchSize" form:"batchSize" validate:"gte=0"`
	BatchOffset int `json:"batchOffset" form:"batchOffset" validate:"gte=0"`
}

// DeletionService deletes items only after a fresh classification proves
// them unreferenced
type DeletionService struct {
	repo       repositories.ContentRepository
	classifier *reachability.Classifier
	scans      *ScanService
	cache      interfaces.Cache
	cfg        Config
	metrics    *metrics.EngineMetrics
	perf       *performance.Tracker
	logger     *logging.ChanneledLogger
}

func NewDeletionService(
	repo repositories.ContentRepository,
	classifier *reachability.Classifier,
	scans *ScanService,
	cache interfaces.Cache,
	cfg Config,
	engineMetrics *metrics.EngineMetrics,
	perf *performance.Tracker,
	logger *logging.ChanneledLogger,
) *DeletionService {
	if perf == nil {
		perf = performance.NewTracker(0, nil)
	}
	return &DeletionService{
		repo:       repo,
		classifier: classifier,
		scans:      scans,
		cache:      cache,
		cfg:        cfg.WithDefaults(),
		metrics:    engineMetrics,
		perf:       perf,
		logger:     logger,
	}
}

// attempt is the outcome of one guarded delete
type attempt struct {
	id           int64
	filename     string
	status       string
	message      string
	explanations []string
	err          error
}

// attemptDelete loads, freshly classifies and deletes one item. It never
// flushes the cache; callers do that once per operation.
func (d *DeletionService) attemptDelete(ctx context.Context, id int64) attempt {
	a := attempt{id: id}
	log := d.logger.WithContext(ctx, logging.ChannelDeletion)

	item, err := d.repo.FindItem(ctx, id)
	if err != nil {
		a.status, a.message, a.err = media.StatusFailed, media.MessageDeleteFailed, perr.Repository(err, "find item")
		d.metrics.RecordDeletion(metrics.OutcomeFailed)
		log.Error("Failed to load item", "itemId", id, "error", err.Error())
		return a
	}
	if item == nil {
		a.status, a.message, a.err = media.StatusFailed, media.MessageNotFound, perr.NotFoundf("attachment %d not found", id)
		d.metrics.RecordDeletion(metrics.OutcomeFailed)
		return a
	}
	a.filename = item.Filename

	verdict, err := d.classifier.ClassifyFresh(ctx, item)
	if err != nil {
		a.status, a.message, a.err = media.StatusFailed, media.MessageUnresolved, perr.Repository(err, "classify item")
		d.metrics.RecordDeletion(metrics.OutcomeFailed)
		log.Warn("Item could not be classified, not deleting", "itemId", id, "error", err.Error())
		return a
	}
	if !verdict.SafeToDelete() {
		a.status, a.message = media.StatusSkipped, media.MessageInUse
		a.explanations = verdict.Explanations()
		a.err = perr.SafetyRejected(media.MessageInUse, a.explanations)
		d.metrics.RecordDeletion(metrics.OutcomeRejected)
		log.Info("Delete refused, item in use", "itemId", id, "usage", a.explanations)
		return a
	}

	if err := d.repo.DeleteItem(ctx, id); err != nil {
		a.status, a.message = media.StatusFailed, media.MessageDeleteFailed
		if errors.Is(err, repositories.ErrItemNotFound) {
			a.message = media.MessageNotFound
			a.err = perr.NotFoundf("attachment %d not found", id)
		} else {
			a.err = perr.Repository(err, "delete item")
		}
		d.metrics.RecordDeletion(metrics.OutcomeFailed)
		log.Error("Delete failed", "itemId", id, "error", err.Error())
		return a
	}

	a.status, a.message = media.StatusDeleted, media.MessageDeleted
	d.metrics.RecordDeletion(metrics.OutcomeDeleted)
	log.Info("Item deleted", "itemId", id, "filename", item.Filename)
	return a
}

// DeleteOne deletes a single item if it is currently unreferenced. An item in
// use yields a SafetyRejected error carrying its usage explanations.
func (d *DeletionService) DeleteOne(ctx context.Context, id int64) (*media.DeleteOneResult, error) {
	if id <= 0 {
		return nil, perr.Validationf("id", "id must be positive")
	}
	marker := d.perf.StartOperation("delete:one")
	defer marker.Complete()

	a := d.attemptDelete(ctx, id)
	if a.err != nil {
		marker.SetError(a.err)
		return nil, a.err
	}
	d.flush(ctx, interfaces.GroupEngine)
	return &media.DeleteOneResult{OK: true, ID: id, Message: a.message}, nil
}

// DeleteMany processes each id independently. Failures never abort the batch.
func (d *DeletionService) DeleteMany(ctx context.Context, req DeleteManyRequest) (*media.DeleteManyResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, validationError(err)
	}
	marker := d.perf.StartOperation("delete:many")
	defer marker.Complete()

	result := &media.DeleteManyResult{Rejected: []media.RejectedItem{}, Results: []media.ItemResult{}}
	seen := make(map[int64]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := ctx.Err(); err != nil {
			marker.SetError(err)
			d.flushIfDeleted(ctx, result.DeletedCount)
			return nil, err
		}

		a := d.attemptDelete(ctx, id)
		result.Results = append(result.Results, media.ItemResult{ID: id, Status: a.status, Message: a.message})
		switch a.status {
		case media.StatusDeleted:
			result.DeletedCount++
		case media.StatusSkipped:
			result.Rejected = append(result.Rejected, media.RejectedItem{ID: id, Filename: a.filename, UsageExplanations: a.explanations})
		default:
			result.FailedCount++
		}
	}

	d.flushIfDeleted(ctx, result.DeletedCount)
	notDeleted := len(result.Results) - result.DeletedCount
	result.Message = fmt.Sprintf("Deleted %d file(s). %d file(s) could not be deleted.", result.DeletedCount, notDeleted)
	d.logger.Deletion().Info("Bulk delete finished",
		"requested", len(seen), "deleted", result.DeletedCount, "failed", result.FailedCount, "rejected", len(result.Rejected))
	return result, nil
}

// DeleteAllSafeBatch deletes one slice of the safe candidate snapshot. The
// snapshot is rebuilt at offset 0 and lives in its own group, so offsets stay
// stable across calls even though every deleting batch flushes the engine
// group. A snapshot lost mid-run is rebuilt from the surviving candidates and
// the run restarts at its start; the caller's offset no longer applies.
func (d *DeletionService) DeleteAllSafeBatch(ctx context.Context, req BatchRequest) (*media.BatchProgress, error) {
	if err := validation.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.BatchSize == 0 {
		req.BatchSize = d.cfg.BatchDefaultSize
	}
	if req.BatchSize > d.cfg.BatchMaxSize {
		return nil, perr.Validationf("batchSize", "batchSize must be at most %d", d.cfg.BatchMaxSize)
	}

	marker := d.perf.StartOperation("delete:batch")
	defer marker.Complete()
	start := time.Now()

	snapshot, rebuilt, err := d.snapshot(ctx, req.BatchOffset == 0)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	offset := req.BatchOffset
	restarted := rebuilt && offset > 0
	if restarted {
		d.logger.Deletion().Warn("Candidate snapshot lost mid-run, restarting from surviving candidates",
			"requestedOffset", offset, "candidates", len(snapshot.IDs))
		offset = 0
	}

	total := len(snapshot.IDs)
	lo := min(offset, total)
	hi := lo + min(req.BatchSize, total-lo)
	slice := snapshot.IDs[lo:hi]

	progress := &media.BatchProgress{TotalCandidates: total, Restarted: restarted}
	for _, id := range slice {
		if err := ctx.Err(); err != nil {
			marker.SetError(err)
			d.flushIfDeleted(ctx, progress.DeletedCount)
			return nil, err
		}
		if a := d.attemptDelete(ctx, id); a.status == media.StatusDeleted {
			progress.DeletedCount++
		} else {
			progress.FailedCount++
		}
	}
	d.flushIfDeleted(ctx, progress.DeletedCount)

	progress.ProcessedSoFar = hi
	progress.HasMore = progress.ProcessedSoFar < total
	if progress.HasMore {
		progress.NextOffset = progress.ProcessedSoFar
	}
	progress.ProgressPercent = 100
	if total > 0 {
		progress.ProgressPercent = math.Round(float64(progress.ProcessedSoFar)/float64(total)*10000) / 100
	}
	if len(slice) == 0 {
		progress.Message = media.MessageBatchComplete
	} else {
		progress.Message = fmt.Sprintf("Processed batch: %d deleted, %d failed out of %d files in this batch",
			progress.DeletedCount, progress.FailedCount, len(slice))
	}

	d.logger.Deletion().Info("Batch processed",
		"scanId", snapshot.ScanID,
		"offset", offset,
		"deleted", progress.DeletedCount,
		"failed", progress.FailedCount,
		"processedSoFar", progress.ProcessedSoFar,
		"total", total,
		"duration", time.Since(start))
	return progress, nil
}

// snapshot loads the candidate snapshot, rebuilding it when asked or missing.
// Every read rewrites the entry so its TTL runs from the last batch. rebuilt
// reports whether a fresh scan produced the snapshot.
func (d *DeletionService) snapshot(ctx context.Context, rebuild bool) (*media.CandidateSnapshot, bool, error) {
	if !rebuild {
		raw, ok, err := d.cache.Get(ctx, interfaces.GroupBatch, snapshotKey)
		if err != nil {
			d.logger.Cache().Warn("Snapshot read failed, rebuilding", "error", perr.Cache(err, "snapshot").Error())
		} else if ok {
			var snap media.CandidateSnapshot
			if err := json.Unmarshal(raw, &snap); err == nil {
				d.storeSnapshot(ctx, raw)
				return &snap, false, nil
			}
		}
	}

	result, err := d.scans.SafeCandidates(ctx)
	if err != nil {
		return nil, false, err
	}
	snap := &media.CandidateSnapshot{ScanID: result.ScanID, IDs: result.SafeIDs()}
	if raw, err := json.Marshal(snap); err == nil {
		d.storeSnapshot(ctx, raw)
	}
	d.logger.Deletion().Info("Candidate snapshot rebuilt", "scanId", snap.ScanID, "candidates", len(snap.IDs))
	return snap, true, nil
}

func (d *DeletionService) storeSnapshot(ctx context.Context, raw []byte) {
	if err := d.cache.Set(ctx, interfaces.GroupBatch, snapshotKey, raw, d.cfg.CacheTTL); err != nil {
		d.logger.Cache().Warn("Snapshot write failed", "error", perr.Cache(err, "snapshot").Error())
	}
}

// ClearCache flushes the engine and batch groups. A failed flush is logged
// and skipped like any other cache failure.
func (d *DeletionService) ClearCache(ctx context.Context) {
	for _, group := range []string{interfaces.GroupEngine, interfaces.GroupBatch} {
		d.flush(ctx, group)
	}
	d.logger.Cache().Info("Engine cache cleared")
}

func (d *DeletionService) flushIfDeleted(ctx context.Context, deleted int) {
	if deleted > 0 {
		d.flush(ctx, interfaces.GroupEngine)
	}
}

func (d *DeletionService) flush(ctx context.Context, group string) {
	// a cancelled request must still invalidate what it changed
	if err := d.cache.FlushGroup(context.WithoutCancel(ctx), group); err != nil {
		d.logger.Cache().Error("Cache flush failed", "group", group, "error", perr.Cache(err, "flush").Error())
		return
	}
	d.metrics.RecordFlush(group)
}
