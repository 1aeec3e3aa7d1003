package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spacesedan/tokharvest/internal/models"
)

type memoryStore struct {
	rows    []models.CollectedRow
	found   bool
	writes  int
	loadErr error
	putErr  error
}

func (m *memoryStore) Load(context.Context) ([]models.CollectedRow, bool, error) {
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	return append([]models.CollectedRow(nil), m.rows...), m.found, nil
}

func (m *memoryStore) Write(_ context.Context, rows []models.CollectedRow) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.writes++
	m.found = true
	m.rows = append([]models.CollectedRow(nil), rows...)
	return nil
}

func (m *memoryStore) Location() string { return "memory" }

func row(id, desc string) models.CollectedRow {
	return models.CollectedRow{
		VideoID:           id,
		PostedTS:          1700000000,
		Description:       desc,
		AuthorID:          "author-" + id,
		AuthorName:        "name-" + id,
		FollowerCount:     10,
		ViewCount:         100,
		LikeCount:         20,
		ShareCount:        3,
		CommentCount:      2,
		TopComments:       []string{"nice", "wow"},
		ThumbnailLocation: "thumbs/" + id + ".jpg",
	}
}

func ids(rows []models.CollectedRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.VideoID)
	}
	return out
}

func TestMergeDeduplicatesAgainstTableAndBatch(t *testing.T) {
	store := &memoryStore{rows: []models.CollectedRow{row("A", "old a"), row("B", "old b")}, found: true}
	batch := []models.CollectedRow{row("A", "new a"), row("C", "first c"), row("C", "second c"), row("D", "d")}

	res, err := Merge(context.Background(), store, batch)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if got, want := ids(store.rows), []string{"A", "B", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("table ids = %v, want %v", got, want)
	}
	if store.rows[0].Description != "old a" {
		t.Errorf("existing row A was replaced: %q", store.rows[0].Description)
	}
	if store.rows[2].Description != "first c" {
		t.Errorf("row C = %q, want first occurrence", store.rows[2].Description)
	}
	if res.Total != 4 || !res.Written || len(res.Added) != 2 {
		t.Errorf("result = %+v, want total 4, written, 2 added", res)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	store := &memoryStore{}
	batch := []models.CollectedRow{row("A", ""), row("B", "")}

	first, err := Merge(context.Background(), store, batch)
	if err != nil {
		t.Fatalf("first Merge() error = %v", err)
	}
	snapshot := append([]models.CollectedRow(nil), store.rows...)

	second, err := Merge(context.Background(), store, batch)
	if err != nil {
		t.Fatalf("second Merge() error = %v", err)
	}

	if first.Total != 2 || second.Total != 2 {
		t.Fatalf("totals = %d, %d, want 2, 2", first.Total, second.Total)
	}
	if second.Written || store.writes != 1 {
		t.Fatalf("second merge wrote the table (writes=%d)", store.writes)
	}
	if !reflect.DeepEqual(store.rows, snapshot) {
		t.Fatal("table changed after re-merging the same batch")
	}
}

func TestMergeIntoMissingTable(t *testing.T) {
	store := &memoryStore{}
	res, err := Merge(context.Background(), store, []models.CollectedRow{row("X", "")})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if res.Total != 1 || store.writes != 1 {
		t.Fatalf("result = %+v writes = %d", res, store.writes)
	}
}

func TestMergeEmptyBatchLeavesTableUntouched(t *testing.T) {
	store := &memoryStore{rows: []models.CollectedRow{row("A", "")}, found: true}
	res, err := Merge(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if res.Total != 1 || res.Written || store.writes != 0 {
		t.Fatalf("result = %+v writes = %d", res, store.writes)
	}
}

func TestMergePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk full")

	if _, err := Merge(context.Background(), &memoryStore{loadErr: boom}, []models.CollectedRow{row("A", "")}); !errors.Is(err, boom) {
		t.Fatalf("load failure: error = %v", err)
	}
	if _, err := Merge(context.Background(), &memoryStore{putErr: boom}, []models.CollectedRow{row("A", "")}); !errors.Is(err, boom) {
		t.Fatalf("write failure: error = %v", err)
	}
}

func TestLocalTableStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tiktok_data.parquet")
	store := NewLocalTableStore(path)

	rows, found, err := store.Load(context.Background())
	if err != nil || found || len(rows) != 0 {
		t.Fatalf("Load() on missing file = %v, %v, %v", rows, found, err)
	}

	empty := row("B", "no comments")
	empty.TopComments = []string{}
	if _, err := Merge(context.Background(), store, []models.CollectedRow{row("A", "first"), empty}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, err := Merge(context.Background(), store, []models.CollectedRow{row("B", "dup"), row("C", "third")}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got, found, err := store.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load() = found %v, err %v", found, err)
	}
	want := []models.CollectedRow{row("A", "first"), empty, row("C", "third")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %+v\nwant %+v", got, want)
	}
}
