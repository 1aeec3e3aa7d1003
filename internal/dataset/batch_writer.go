package dataset

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/spacesedan/tokharvest/internal/models"
	"github.com/spacesedan/tokharvest/internal/utils"
)

const DEFAULT_BATCH_SIZE = 25

// RowPublisher receives rows after they have been appended to the table.
type RowPublisher interface {
	PublishRows(ctx context.Context, rows []models.CollectedRow) error
}

// BatchWriter buffers rows and merges them into the table every batchSize rows.
// A failed merge keeps the buffered rows so the next Flush retries them.
type BatchWriter struct {
	store     TableStore
	buffer    *utils.BatchBuffer[models.CollectedRow]
	batchSize int
	publisher RowPublisher

	batchesSaved atomic.Int64
	totalRows    atomic.Int64
}

func NewBatchWriter(store TableStore, batchSize int, publisher RowPublisher) *BatchWriter {
	if batchSize <= 0 {
		batchSize = DEFAULT_BATCH_SIZE
	}
	return &BatchWriter{
		store:     store,
		buffer:    utils.NewBatchBuffer[models.CollectedRow](batchSize),
		batchSize: batchSize,
		publisher: publisher,
	}
}

func (w *BatchWriter) Add(ctx context.Context, row models.CollectedRow) error {
	w.buffer.Add(row)
	if w.buffer.Size() < w.batchSize {
		return nil
	}
	return w.Flush(ctx)
}

func (w *BatchWriter) Flush(ctx context.Context) error {
	if !w.buffer.HasData() {
		return nil
	}
	w.buffer.LogBatchProcessing("collected_rows")

	batch := w.buffer.Peek()
	res, err := Merge(ctx, w.store, batch)
	if err != nil {
		slog.Error("[BatchWriter] Flush failed, keeping rows for the next attempt",
			slog.Int("pending", w.buffer.Size()),
			slog.String("error", err.Error()))
		return err
	}
	w.buffer.Drop(len(batch))

	w.totalRows.Store(int64(res.Total))
	if res.Written {
		w.batchesSaved.Add(1)
	}

	if w.publisher != nil && len(res.Added) > 0 {
		if err := w.publisher.PublishRows(ctx, res.Added); err != nil {
			slog.Warn("[BatchWriter] Failed to publish merged rows",
				slog.Int("rows", len(res.Added)),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (w *BatchWriter) Pending() int {
	return w.buffer.Size()
}

func (w *BatchWriter) BatchesSaved() int {
	return int(w.batchesSaved.Load())
}

// TotalRows is the table size after the last successful flush.
func (w *BatchWriter) TotalRows() int {
	return int(w.totalRows.Load())
}
