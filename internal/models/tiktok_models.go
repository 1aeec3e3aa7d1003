package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts a JSON string or number. The web API is inconsistent
// about cursor types across endpoints.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

type TikTokChallengeDetailResponse struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMsg"`
	ChallengeInfo struct {
		Challenge struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"challenge"`
	} `json:"challengeInfo"`
}

type TikTokItemListResponse struct {
	StatusCode int               `json:"statusCode"`
	ItemList   []json.RawMessage `json:"itemList"`
	Cursor     FlexString        `json:"cursor"`
	HasMore    bool              `json:"hasMore"`
}

type TikTokItem struct {
	ID         string `json:"id"`
	CreateTime int64  `json:"createTime"`
	Desc       string `json:"desc"`
	Author     struct {
		ID       string `json:"id"`
		UniqueID string `json:"uniqueId"`
	} `json:"author"`
	AuthorStats struct {
		FollowerCount int64 `json:"followerCount"`
	} `json:"authorStats"`
	Stats struct {
		PlayCount    int64 `json:"playCount"`
		DiggCount    int64 `json:"diggCount"`
		ShareCount   int64 `json:"shareCount"`
		CommentCount int64 `json:"commentCount"`
		RepostCount  int64 `json:"repostCount"`
	} `json:"stats"`
	Video struct {
		Cover       string `json:"cover"`
		OriginCover string `json:"originCover"`
	} `json:"video"`
}

func (it TikTokItem) Candidate() VideoCandidate {
	cover := it.Video.Cover
	if cover == "" {
		cover = it.Video.OriginCover
	}
	return VideoCandidate{
		ID:          it.ID,
		CreatedAt:   it.CreateTime,
		Description: it.Desc,
		Author: AuthorSnapshot{
			ID:            it.Author.ID,
			Name:          it.Author.UniqueID,
			FollowerCount: it.AuthorStats.FollowerCount,
		},
		Stats: EngagementSnapshot{
			Views:    it.Stats.PlayCount,
			Likes:    it.Stats.DiggCount,
			Shares:   it.Stats.ShareCount,
			Comments: it.Stats.CommentCount,
			Reposts:  it.Stats.RepostCount,
		},
		CoverURL: cover,
	}
}

type TikTokCommentListResponse struct {
	StatusCode int               `json:"status_code"`
	Comments   []json.RawMessage `json:"comments"`
	Cursor     FlexString        `json:"cursor"`
	HasMore    int               `json:"has_more"`
}

type TikTokComment struct {
	CID       string  `json:"cid"`
	Text      *string `json:"text"`
	DiggCount int64   `json:"digg_count"`
}

func (f FlexString) Int() int64 {
	n, _ := strconv.ParseInt(string(f), 10, 64)
	return n
}
