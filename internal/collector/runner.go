package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/tokharvest/internal/dataset"
	"github.com/spacesedan/tokharvest/internal/models"
	"github.com/spacesedan/tokharvest/internal/monitoring"
	"github.com/spacesedan/tokharvest/internal/processing"
)

const FINAL_FLUSH_TIMEOUT = 2 * time.Minute

type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

type RunRecorder interface {
	Record(ctx context.Context, res models.RunResult, location string) error
}

type Settings struct {
	Walker   processing.WalkerConfig
	Recency  processing.RecencyPolicy
	Enricher processing.EnricherConfig
	// Budget is the wall-clock limit for the run, zero for none.
	Budget    time.Duration
	BatchSize int
	// Heartbeat is the progress logging interval, zero for the default.
	Heartbeat time.Duration
}

// Dependencies are the collaborators of a run. Publisher, Ledger and Lock are optional.
type Dependencies struct {
	Table      dataset.TableStore
	Thumbnails processing.ThumbnailStore
	Feed       processing.FeedSource
	Comments   processing.CommentSource
	Images     processing.ImageFetcher
	Publisher  dataset.RowPublisher
	Ledger     RunRecorder
	Lock       Locker
	Pacer      *processing.Pacer
	Now        func() time.Time
}

type Runner struct {
	settings Settings
	deps     Dependencies
}

func NewRunner(settings Settings, deps Dependencies) *Runner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{settings: settings, deps: deps}
}

// Run performs one collection run. Hitting a cap or the deadline is not an
// error; the rows collected so far are always flushed before returning.
func (r *Runner) Run(ctx context.Context) (models.RunResult, error) {
	res := models.RunResult{RunID: uuid.NewString(), StartedAt: r.deps.Now().UTC()}
	log := slog.With(slog.String("run_id", res.RunID))
	log.Info("[Collector] Starting run",
		slog.String("table", r.deps.Table.Location()),
		slog.Any("terms", r.settings.Walker.Terms))

	if r.deps.Lock != nil {
		if err := r.deps.Lock.Acquire(ctx); err != nil {
			return res, fmt.Errorf("[Collector] failed to acquire run lock: %w", err)
		}
		defer func() {
			if err := r.deps.Lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("[Collector] Failed to release run lock", slog.String("error", err.Error()))
			}
		}()
	}

	existing, _, err := r.deps.Table.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("[Collector] failed to load existing table: %w", err)
	}
	known := dataset.KnownIDs(existing)
	log.Info("[Collector] Loaded existing table", slog.Int("rows", len(existing)))

	filter := processing.NewFilter(r.settings.Recency, r.deps.Now(), known)
	if cutoff, ok := filter.Cutoff(); ok {
		log.Info("[Collector] Recency cutoff", slog.Time("cutoff", time.Unix(cutoff, 0).UTC()))
	}

	walkerCfg := r.settings.Walker
	walkerCfg.Deadline = walkerCfg.Deadline.Earlier(processing.DeadlineAfter(r.settings.Budget, r.deps.Now))

	writer := dataset.NewBatchWriter(r.deps.Table, r.settings.BatchSize, r.deps.Publisher)
	enricher := processing.NewEnricher(r.deps.Thumbnails, r.deps.Images, r.deps.Comments, r.settings.Enricher)
	walker, err := processing.NewWalker(walkerCfg, r.deps.Feed, filter, enricher, writer, r.deps.Pacer)
	if err != nil {
		return res, err
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	go monitoring.ReportProgress(hbCtx, r.settings.Heartbeat, func() monitoring.Progress {
		return monitoring.Progress{
			Pending:      writer.Pending(),
			BatchesSaved: writer.BatchesSaved(),
			TotalRows:    writer.TotalRows(),
			Remaining:    walkerCfg.Deadline.Remaining(),
		}
	})
	summary := walker.Run(ctx)
	stopHeartbeat()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FINAL_FLUSH_TIMEOUT)
	defer cancel()
	flushErr := writer.Flush(flushCtx)

	res.FinishedAt = r.deps.Now().UTC()
	res.Attempts = summary.Attempts
	res.VideosProcessed = summary.Rows
	res.BatchesSaved = writer.BatchesSaved()
	res.TotalRows = max(writer.TotalRows(), len(existing))
	res.StopReason = summary.Stop
	res.Terms = summary.Terms
	res.Outcome = models.OutcomeCollected
	if summary.Rows == 0 {
		res.Outcome = models.OutcomeNoMatchingContent
	}

	log.Info("[Collector] Run finished",
		slog.String("outcome", string(res.Outcome)),
		slog.String("stop_reason", string(res.StopReason)),
		slog.Int("attempts", res.Attempts),
		slog.Int("videos_processed", res.VideosProcessed),
		slog.Int("batches_saved", res.BatchesSaved),
		slog.Int("total_rows", res.TotalRows),
		slog.Duration("duration", res.FinishedAt.Sub(res.StartedAt)))

	if r.deps.Ledger != nil {
		if err := r.deps.Ledger.Record(context.WithoutCancel(ctx), res, r.deps.Table.Location()); err != nil {
			log.Warn("[Collector] Failed to record run", slog.String("error", err.Error()))
		}
	}

	if flushErr != nil {
		return res, fmt.Errorf("[Collector] final flush failed, %d rows not persisted: %w", writer.Pending(), flushErr)
	}
	return res, nil
}

// Message renders the human readable summary used by the CLI and the Lambda body.
func Message(res models.RunResult) string {
	if res.Outcome == models.OutcomeNoMatchingContent {
		return "No matching content found"
	}
	return fmt.Sprintf("Processed %d videos in %d batches (%s)", res.VideosProcessed, res.BatchesSaved, res.StopReason)
}
