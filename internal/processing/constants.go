package processing

import "time"

const (
	DEFAULT_COMMENT_PAGE_SIZE = 50
	DEFAULT_TOP_COMMENTS      = 5
	DEFAULT_FEED_OVERFETCH    = 2
	DEFAULT_PAUSE_EVERY       = 20
	DEFAULT_LONG_PAUSE        = 10 * time.Second
)
