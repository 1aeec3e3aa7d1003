package models

import (
	"errors"
	"fmt"
)

// ErrEndOfFeed is returned by feed and comment iterators once no more records remain.
var ErrEndOfFeed = errors.New("end of feed")

type AuthorSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FollowerCount int64  `json:"follower_count"`
}

type EngagementSnapshot struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
	Reposts  int64 `json:"reposts"`
}

// VideoCandidate is one item pulled from a hashtag feed. It only lives for the
// duration of a single walker iteration.
type VideoCandidate struct {
	ID          string
	CreatedAt   int64
	Description string
	Author      AuthorSnapshot
	Stats       EngagementSnapshot
	CoverURL    string
}

type Comment struct {
	Score int64
	Text  string
}

// MalformedRecordError marks a single upstream record that could not be read.
// Iterators return it for that record only and stay usable afterwards.
type MalformedRecordError struct {
	Kind string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: %v", e.Kind, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
