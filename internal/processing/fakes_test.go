package processing

import (
	"context"
	"errors"

	"github.com/spacesedan/tokharvest/internal/comments"
	"github.com/spacesedan/tokharvest/internal/models"
)

type fakeThumbs struct {
	existing map[string]bool
	stored   map[string][]byte
	putErr   error
}

func newFakeThumbs(existing ...string) *fakeThumbs {
	f := &fakeThumbs{existing: map[string]bool{}, stored: map[string][]byte{}}
	for _, id := range existing {
		f.existing[id] = true
	}
	return f
}

func (f *fakeThumbs) Exists(_ context.Context, id string) (bool, error) {
	return f.existing[id], nil
}

func (f *fakeThumbs) Put(_ context.Context, id string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.stored[id] = data
	f.existing[id] = true
	return f.Location(id), nil
}

func (f *fakeThumbs) Location(id string) string {
	return "thumbs/" + id + ".jpg"
}

type fakeImages struct {
	calls int
	err   error
}

func (f *fakeImages) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("raw image"), nil
}

type commentStep struct {
	c   models.Comment
	err error
}

type commentIter struct {
	steps []commentStep
	i     int
}

func (it *commentIter) Next(context.Context) (models.Comment, error) {
	if it.i >= len(it.steps) {
		return models.Comment{}, models.ErrEndOfFeed
	}
	st := it.steps[it.i]
	it.i++
	return st.c, st.err
}

type fakeComments struct {
	calls int
	steps []commentStep
}

func (f *fakeComments) Comments(context.Context, string, int) comments.Iterator {
	f.calls++
	return &commentIter{steps: f.steps}
}

type videoIter struct {
	items []models.VideoCandidate
	err   error
	pulls int
	i     int
}

func (it *videoIter) Next(context.Context) (models.VideoCandidate, error) {
	if it.err != nil {
		return models.VideoCandidate{}, it.err
	}
	if it.i >= len(it.items) {
		return models.VideoCandidate{}, models.ErrEndOfFeed
	}
	it.pulls++
	c := it.items[it.i]
	it.i++
	return c, nil
}

type fakeFeed struct {
	terms map[string]*videoIter
	opens []string
}

func (f *fakeFeed) Videos(_ context.Context, term string, _ int) VideoIterator {
	f.opens = append(f.opens, term)
	if it, ok := f.terms[term]; ok {
		return it
	}
	return &videoIter{err: errors.New("unknown term")}
}

func (f *fakeFeed) totalPulls() int {
	n := 0
	for _, it := range f.terms {
		n += it.pulls
	}
	return n
}

type memorySink struct {
	rows []models.CollectedRow
}

func (s *memorySink) Add(_ context.Context, row models.CollectedRow) error {
	s.rows = append(s.rows, row)
	return nil
}
