package kafka_client

import "time"

const (
	KAFKA_TOPIC_COLLECTED_ROWS = "tiktok-rows" // rows newly appended to the dataset
)

const (
	MAX_RETRIES   = 3
	RETRY_DELAY   = 2 * time.Second
	FLUSH_TIMEOUT = 5000
)
