package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/spacesedan/tokharvest/internal/models"
)

// TableStore persists the whole dataset as one object. Load reports found=false
// when nothing has been written yet. Write must publish atomically: a concurrent
// reader observes either the previous table or the new one.
type TableStore interface {
	Load(ctx context.Context) (rows []models.CollectedRow, found bool, err error)
	Write(ctx context.Context, rows []models.CollectedRow) error
	Location() string
}

type LocalTableStore struct {
	path string
}

func NewLocalTableStore(path string) *LocalTableStore {
	return &LocalTableStore{path: path}
}

func (s *LocalTableStore) Location() string {
	return s.path
}

func (s *LocalTableStore) Load(ctx context.Context) ([]models.CollectedRow, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[LocalTableStore] failed to read %s: %w", s.path, err)
	}

	rows, err := DecodeRows(data)
	if err != nil {
		return nil, false, fmt.Errorf("[LocalTableStore] %s: %w", s.path, err)
	}
	return rows, true, nil
}

func (s *LocalTableStore) Write(ctx context.Context, rows []models.CollectedRow) error {
	data, err := EncodeRows(rows)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("[LocalTableStore] failed to create directory: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("[LocalTableStore] failed to publish %s: %w", s.path, err)
	}

	slog.Debug("[LocalTableStore] Table written",
		slog.String("path", s.path),
		slog.Int("rows", len(rows)),
		slog.Int("bytes", len(data)))
	return nil
}
