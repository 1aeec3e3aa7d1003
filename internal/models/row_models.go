package models

// CollectedRow is the persisted record for one video. video_id is the identity key.
type CollectedRow struct {
	VideoID           string   `parquet:"video_id" json:"video_id"`
	PostedTS          int64    `parquet:"posted_ts" json:"posted_ts"`
	Description       string   `parquet:"description" json:"description"`
	AuthorID          string   `parquet:"author_id" json:"author_id"`
	AuthorName        string   `parquet:"author_name" json:"author_name"`
	FollowerCount     int64    `parquet:"follower_count" json:"follower_count"`
	ViewCount         int64    `parquet:"view_count" json:"view_count"`
	LikeCount         int64    `parquet:"like_count" json:"like_count"`
	ShareCount        int64    `parquet:"share_count" json:"share_count"`
	CommentCount      int64    `parquet:"comment_count" json:"comment_count"`
	TopComments       []string `parquet:"top_comments,list" json:"top_comments"`
	ThumbnailLocation string   `parquet:"thumbnail_location" json:"thumbnail_location"`
}

// NewCollectedRow flattens a candidate plus its enrichment into a row.
func NewCollectedRow(c VideoCandidate, topComments []string, thumbnailLocation string) CollectedRow {
	if topComments == nil {
		topComments = []string{}
	}
	return CollectedRow{
		VideoID:           c.ID,
		PostedTS:          c.CreatedAt,
		Description:       c.Description,
		AuthorID:          c.Author.ID,
		AuthorName:        c.Author.Name,
		FollowerCount:     c.Author.FollowerCount,
		ViewCount:         c.Stats.Views,
		LikeCount:         c.Stats.Likes,
		ShareCount:        c.Stats.Shares,
		CommentCount:      c.Stats.Comments,
		TopComments:       topComments,
		ThumbnailLocation: thumbnailLocation,
	}
}
