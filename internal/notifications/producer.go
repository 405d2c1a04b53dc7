package notifications

import (
	"context"
	"fmt"
	"time"

	"roomly/pkg/logger"

	"github.com/IBM/sarama"
)

// EventProducer interface defines the contract for publishing reservation events
type EventProducer interface {
	PublishReservationEvent(ctx context.Context, event *ReservationEvent) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "reservation-events",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaEventProducer publishes reservation lifecycle events to Kafka
type KafkaEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

// NewKafkaEventProducer creates a new Kafka event producer
func NewKafkaEventProducer(config *KafkaProducerConfig) (EventProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one room's events ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaEventProducer{
		producer: producer,
		config:   config,
	}, nil
}

// PublishReservationEvent publishes a single lifecycle event
func (p *KafkaEventProducer) PublishReservationEvent(ctx context.Context, event *ReservationEvent) error {
	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal reservation event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.config.Topic,
		Key:       sarama.StringEncoder(event.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   p.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send reservation event to Kafka: %w", err)
	}

	logger.GetDefault().DebugWithContext(ctx, "reservation event published", map[string]interface{}{
		"topic":     p.config.Topic,
		"partition": partition,
		"offset":    offset,
		"type":      string(event.Type),
		"reference": event.ReservationReference,
	})

	return nil
}

func (p *KafkaEventProducer) createHeaders(event *ReservationEvent) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("room_id"), Value: []byte(event.RoomID.String())},
		{Key: []byte("booking_id"), Value: []byte(event.BookingID.String())},
		{Key: []byte("producer"), Value: []byte("roomly-reservations")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}
}

// Close closes the Kafka producer
func (p *KafkaEventProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// HealthCheck validates the producer configuration
func (p *KafkaEventProducer) HealthCheck(ctx context.Context) error {
	if p.producer == nil {
		return fmt.Errorf("health check failed: producer is nil")
	}
	if p.config.Topic == "" {
		return fmt.Errorf("health check failed: topic not configured")
	}
	return nil
}

// NoopEventProducer satisfies EventProducer when Kafka is disabled. Events
// are logged and dropped.
type NoopEventProducer struct{}

func NewNoopEventProducer() EventProducer {
	return &NoopEventProducer{}
}

func (p *NoopEventProducer) PublishReservationEvent(ctx context.Context, event *ReservationEvent) error {
	logger.GetDefault().DebugWithContext(ctx, "event publishing disabled, dropping event", map[string]interface{}{
		"type":      string(event.Type),
		"reference": event.ReservationReference,
	})
	return nil
}

func (p *NoopEventProducer) Close() error { return nil }

func (p *NoopEventProducer) HealthCheck(ctx context.Context) error { return nil }
