package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/tokharvest/internal/models"
)

// transactionalProducer is the part of *kafka.Producer the publisher uses.
type transactionalProducer interface {
	BeginTransaction() error
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	Flush(timeoutMs int) int
	Close()
}

// RowProducer publishes merged rows to Kafka, one transaction per batch.
type RowProducer struct {
	producer   transactionalProducer
	topic      string
	retryDelay time.Duration
}

func NewRowProducer(ctx context.Context, cfg KafkaConfig) (*RowProducer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      cfg.TransactionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &RowProducer{producer: p, topic: cfg.Topic, retryDelay: RETRY_DELAY}, nil
}

func (p *RowProducer) PublishRows(ctx context.Context, rows []models.CollectedRow) error {
	if len(rows) == 0 {
		return nil
	}

	msgs := make([]*kafka.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := rowMessage(p.topic, row)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for _, msg := range msgs {
		var err error
		for i := 0; i < MAX_RETRIES; i++ {
			if err = p.producer.Produce(msg, nil); err == nil {
				break
			}
			slog.Warn("[KafkaClient] Failed to produce message, retrying...",
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))
			time.Sleep(p.retryDelay)
		}
		if err != nil {
			if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
				return fmt.Errorf("[KafkaClient] failed to abort transaction after produce error: %w", abortErr)
			}
			return fmt.Errorf("[KafkaClient] failed to produce row: %w", err)
		}
	}

	var commitErr error
	for i := 0; i < MAX_RETRIES; i++ {
		if commitErr = p.producer.CommitTransaction(ctx); commitErr == nil {
			break
		}
		var kerr kafka.Error
		if errors.As(commitErr, &kerr) && !kerr.IsRetriable() {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", commitErr.Error()))
		time.Sleep(p.retryDelay)
	}
	if commitErr != nil {
		// An open transaction would make every later BeginTransaction fail.
		if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
			return fmt.Errorf("[KafkaClient] failed to abort transaction after commit error %v: %w", commitErr, abortErr)
		}
		return fmt.Errorf("[KafkaClient] failed to commit transaction: %w", commitErr)
	}

	slog.Info("[KafkaClient] Published rows transactionally",
		slog.String("topic", p.topic),
		slog.Int("rows", len(rows)))
	return nil
}

func (p *RowProducer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

func rowMessage(topic string, row models.CollectedRow) (*kafka.Message, error) {
	value, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] failed to marshal row %s: %w", row.VideoID, err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(row.VideoID),
		Value:          value,
		Headers:        []kafka.Header{{Key: "content-type", Value: []byte("application/json")}},
	}, nil
}
