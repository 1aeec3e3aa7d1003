package kafka_client

import "os"

type KafkaConfig struct {
	Broker          string
	Topic           string
	TransactionalID string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// GetKafkaConfig reads the producer settings. An empty Broker disables publishing.
func GetKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Broker:          os.Getenv("KAFKA_BROKER"),
		Topic:           getEnv("KAFKA_ROWS_TOPIC", KAFKA_TOPIC_COLLECTED_ROWS),
		TransactionalID: getEnv("KAFKA_TRANSACTIONAL_ID", "tokharvest-producer-1"),
	}
}
