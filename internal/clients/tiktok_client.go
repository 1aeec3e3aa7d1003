package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spacesedan/tokharvest/internal/comments"
	"github.com/spacesedan/tokharvest/internal/credentials"
	"github.com/spacesedan/tokharvest/internal/models"
	"github.com/spacesedan/tokharvest/internal/processing"
)

// TikTokClient reads hashtag feeds and comment pages from the web JSON API.
// Requests rotate round-robin over the configured session tokens.
type TikTokClient struct {
	Client         *http.Client
	BaseURL        string
	tokens         []string
	next           atomic.Uint64
	initialBackoff time.Duration
	maxRetries     int
}

type TikTokOption func(*TikTokClient)

func WithBaseURL(baseURL string) TikTokOption {
	return func(c *TikTokClient) { c.BaseURL = baseURL }
}

func WithHTTPClient(client *http.Client) TikTokOption {
	return func(c *TikTokClient) { c.Client = client }
}

func WithRetryBackoff(initial time.Duration, maxRetries int) TikTokOption {
	return func(c *TikTokClient) {
		c.initialBackoff = initial
		c.maxRetries = maxRetries
	}
}

func NewTikTokClient(tokens []string, maxSessions int, opts ...TikTokOption) (*TikTokClient, error) {
	if len(tokens) == 0 {
		return nil, credentials.ErrNoCredentials
	}
	if maxSessions <= 0 {
		maxSessions = DEFAULT_MAX_SESSIONS
	}
	if len(tokens) > maxSessions {
		tokens = tokens[:maxSessions]
	}

	c := &TikTokClient{
		Client:         &http.Client{Timeout: DEFAULT_REQUEST_TIMEOUT},
		BaseURL:        TIKTOK_BASE_URL,
		tokens:         tokens,
		initialBackoff: INITIAL_BACKOFF,
		maxRetries:     MAX_RETRIES,
	}
	for _, opt := range opts {
		opt(c)
	}

	slog.Info("[TikTokClient] Client ready", slog.Int("sessions", len(c.tokens)))
	return c, nil
}

func (c *TikTokClient) Videos(ctx context.Context, term string, count int) processing.VideoIterator {
	return &hashtagFeed{client: c, term: term, limit: count, hasMore: true}
}

func (c *TikTokClient) Comments(ctx context.Context, videoID string, count int) comments.Iterator {
	return &commentPage{client: c, videoID: videoID, count: count}
}

func (c *TikTokClient) sessionToken() string {
	n := c.next.Add(1) - 1
	return c.tokens[n%uint64(len(c.tokens))]
}

// getJSON issues a GET against the API and decodes the body into out. 429 and
// 5xx responses are retried with doubling backoff.
func (c *TikTokClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	token := c.sessionToken()
	query.Set("msToken", token)
	query.Set("aid", "1988")
	endpoint := c.BaseURL + path + "?" + query.Encode()

	var lastErr error
	backoff := c.initialBackoff

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("[TikTokClient] failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", USER_AGENT)
		req.Header.Set("Referer", c.BaseURL+"/")
		req.AddCookie(&http.Cookie{Name: credentials.TOKEN_COOKIE_NAME, Value: token})

		res, err := c.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("[TikTokClient] %s abandoned: %w", path, context.Cause(ctx))
			}
			slog.Warn("[TikTokClient] Request failed",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			lastErr = err
		} else {
			retry, err := c.handleResponse(res, path, out)
			if !retry {
				return err
			}
			lastErr = err
			slog.Warn("[TikTokClient] Retrying request",
				slog.String("path", path),
				slog.Int("statusCode", res.StatusCode),
				slog.Duration("backoff", backoff),
				slog.Int("attempt", attempt))
		}

		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("[TikTokClient] %s abandoned during backoff: %w", path, context.Cause(ctx))
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}

	return fmt.Errorf("[TikTokClient] %s failed after %d attempts: %w", path, c.maxRetries, lastErr)
}

func (c *TikTokClient) handleResponse(res *http.Response, path string, out any) (retry bool, err error) {
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return false, fmt.Errorf("[TikTokClient] failed to read response body: %w", err)
		}
		if len(body) == 0 {
			// An empty 200 is how the API signals a rejected or expired session.
			return false, fmt.Errorf("[TikTokClient] empty response from %s, session may be blocked", path)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return false, fmt.Errorf("[TikTokClient] failed to parse JSON response: %w", err)
		}
		return false, nil
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, res.Body)
		return true, &HTTPStatusError{URL: path, StatusCode: res.StatusCode}
	default:
		_, _ = io.Copy(io.Discard, res.Body)
		return false, &HTTPStatusError{URL: path, StatusCode: res.StatusCode}
	}
}

func (c *TikTokClient) challengeID(ctx context.Context, term string) (string, error) {
	var detail models.TikTokChallengeDetailResponse
	q := url.Values{}
	q.Set("challengeName", term)
	if err := c.getJSON(ctx, CHALLENGE_DETAIL_PATH, q, &detail); err != nil {
		return "", err
	}
	id := detail.ChallengeInfo.Challenge.ID
	if id == "" {
		return "", fmt.Errorf("[TikTokClient] hashtag %q not found (status %d %s)", term, detail.StatusCode, detail.StatusMessage)
	}
	return id, nil
}

type hashtagFeed struct {
	client      *TikTokClient
	term        string
	limit       int
	yielded     int
	challengeID string
	cursor      string
	hasMore     bool
	emptyPages  int
	buf         []feedEntry
}

// feedEntry is one pulled feed item. Unreadable items carry a
// MalformedRecordError so the caller still counts them as pulls.
type feedEntry struct {
	candidate models.VideoCandidate
	err       error
}

func (f *hashtagFeed) Next(ctx context.Context) (models.VideoCandidate, error) {
	if f.limit > 0 && f.yielded >= f.limit {
		return models.VideoCandidate{}, models.ErrEndOfFeed
	}

	for len(f.buf) == 0 {
		if !f.hasMore || f.emptyPages >= MAX_EMPTY_PAGES {
			return models.VideoCandidate{}, models.ErrEndOfFeed
		}
		if err := f.fetchPage(ctx); err != nil {
			return models.VideoCandidate{}, err
		}
	}

	e := f.buf[0]
	f.buf = f.buf[1:]
	f.yielded++
	return e.candidate, e.err
}

func (f *hashtagFeed) fetchPage(ctx context.Context) error {
	if f.challengeID == "" {
		id, err := f.client.challengeID(ctx, f.term)
		if err != nil {
			return err
		}
		f.challengeID = id
		f.cursor = "0"
	}

	q := url.Values{}
	q.Set("challengeID", f.challengeID)
	q.Set("count", strconv.Itoa(FEED_PAGE_SIZE))
	q.Set("cursor", f.cursor)

	var page models.TikTokItemListResponse
	if err := f.client.getJSON(ctx, CHALLENGE_ITEMS_PATH, q, &page); err != nil {
		return err
	}

	readable := 0
	for _, raw := range page.ItemList {
		var item models.TikTokItem
		if err := json.Unmarshal(raw, &item); err != nil {
			f.buf = append(f.buf, feedEntry{err: &models.MalformedRecordError{Kind: "video", Err: err}})
			continue
		}
		if item.ID == "" {
			f.buf = append(f.buf, feedEntry{err: &models.MalformedRecordError{Kind: "video", Err: errors.New("missing id")}})
			continue
		}
		f.buf = append(f.buf, feedEntry{candidate: item.Candidate()})
		readable++
	}

	// A page of nothing but unreadable items makes no progress.
	if readable == 0 {
		f.emptyPages++
	} else {
		f.emptyPages = 0
	}
	f.hasMore = page.HasMore
	if page.Cursor != "" {
		f.cursor = string(page.Cursor)
	}
	return nil
}

// commentPage fetches a single page of comments on first use.
type commentPage struct {
	client  *TikTokClient
	videoID string
	count   int
	fetched bool
	raw     []json.RawMessage
}

func (p *commentPage) Next(ctx context.Context) (models.Comment, error) {
	if !p.fetched {
		if err := p.fetch(ctx); err != nil {
			return models.Comment{}, err
		}
		p.fetched = true
	}
	if len(p.raw) == 0 {
		return models.Comment{}, models.ErrEndOfFeed
	}

	raw := p.raw[0]
	p.raw = p.raw[1:]

	var c models.TikTokComment
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Comment{}, &models.MalformedRecordError{Kind: "comment", Err: err}
	}
	if c.Text == nil {
		return models.Comment{}, &models.MalformedRecordError{Kind: "comment", Err: errors.New("missing text")}
	}
	return models.Comment{Score: c.DiggCount, Text: *c.Text}, nil
}

func (p *commentPage) fetch(ctx context.Context) error {
	q := url.Values{}
	q.Set("aweme_id", p.videoID)
	q.Set("count", strconv.Itoa(p.count))
	q.Set("cursor", "0")

	var res models.TikTokCommentListResponse
	if err := p.client.getJSON(ctx, COMMENT_LIST_PATH, q, &res); err != nil {
		return err
	}
	p.raw = res.Comments
	return nil
}
