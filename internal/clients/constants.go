package clients

import "time"

const (
	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second
	USER_AGENT      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

const (
	TIKTOK_BASE_URL         = "https://www.tiktok.com"
	CHALLENGE_DETAIL_PATH   = "/api/challenge/detail/"
	CHALLENGE_ITEMS_PATH    = "/api/challenge/item_list/"
	COMMENT_LIST_PATH       = "/api/comment/list/"
	FEED_PAGE_SIZE          = 30
	MAX_EMPTY_PAGES         = 3
	DEFAULT_MAX_SESSIONS    = 3
	MAX_IMAGE_BYTES         = 20 << 20
	DEFAULT_IMAGE_TIMEOUT   = 10 * time.Second
	DEFAULT_REQUEST_TIMEOUT = 30 * time.Second
)
