package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/spacesedan/tokharvest/internal/models"
)

type recordingPublisher struct {
	published [][]models.CollectedRow
}

func (p *recordingPublisher) PublishRows(_ context.Context, rows []models.CollectedRow) error {
	p.published = append(p.published, rows)
	return nil
}

func TestBatchWriterFlushesEveryBatch(t *testing.T) {
	store := &memoryStore{rows: []models.CollectedRow{row("A", "")}, found: true}
	pub := &recordingPublisher{}
	w := NewBatchWriter(store, 2, pub)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		if err := w.Add(ctx, row(id, "")); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
	}
	if store.writes != 1 || w.Pending() != 1 {
		t.Fatalf("after 3 adds: writes = %d pending = %d, want 1 and 1", store.writes, w.Pending())
	}

	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if w.BatchesSaved() != 2 || w.TotalRows() != 3 || w.Pending() != 0 {
		t.Fatalf("batches = %d total = %d pending = %d", w.BatchesSaved(), w.TotalRows(), w.Pending())
	}
	if len(pub.published) != 2 || len(pub.published[0]) != 1 || pub.published[0][0].VideoID != "B" {
		t.Fatalf("published = %+v, want only new rows", pub.published)
	}
}

func TestBatchWriterKeepsRowsOnFailure(t *testing.T) {
	boom := errors.New("throttled")
	store := &memoryStore{putErr: boom}
	w := NewBatchWriter(store, 10, nil)
	ctx := context.Background()

	_ = w.Add(ctx, row("A", ""))
	if err := w.Flush(ctx); !errors.Is(err, boom) {
		t.Fatalf("Flush() error = %v, want %v", err, boom)
	}
	if w.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", w.Pending())
	}

	store.putErr = nil
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("retry Flush() error = %v", err)
	}
	if w.Pending() != 0 || len(store.rows) != 1 {
		t.Fatalf("after retry pending = %d rows = %d", w.Pending(), len(store.rows))
	}
}

func TestComputeStats(t *testing.T) {
	a := row("A", "")
	b := row("B", "")
	b.AuthorID = a.AuthorID
	b.PostedTS = a.PostedTS + 3600
	b.TopComments = []string{}
	b.ThumbnailLocation = ""

	s := ComputeStats([]models.CollectedRow{a, b})
	if s.TotalRows != 2 || s.DistinctAuthors != 1 || s.RowsWithComments != 1 || s.RowsWithThumbnail != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if got := s.LatestPost.Sub(s.EarliestPost); got.Hours() != 1 {
		t.Fatalf("posted range = %v, want 1h", got)
	}
}
