package dataset

import (
	"time"

	"github.com/spacesedan/tokharvest/internal/models"
)

type Stats struct {
	TotalRows         int
	DistinctAuthors   int
	RowsWithComments  int
	RowsWithThumbnail int
	EarliestPost      time.Time
	LatestPost        time.Time
}

func ComputeStats(rows []models.CollectedRow) Stats {
	s := Stats{TotalRows: len(rows)}
	authors := make(map[string]struct{})
	for i, r := range rows {
		authors[r.AuthorID] = struct{}{}
		if len(r.TopComments) > 0 {
			s.RowsWithComments++
		}
		if r.ThumbnailLocation != "" {
			s.RowsWithThumbnail++
		}
		posted := time.Unix(r.PostedTS, 0).UTC()
		if i == 0 || posted.Before(s.EarliestPost) {
			s.EarliestPost = posted
		}
		if i == 0 || posted.After(s.LatestPost) {
			s.LatestPost = posted
		}
	}
	s.DistinctAuthors = len(authors)
	return s
}
