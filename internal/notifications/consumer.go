package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"roomly/pkg/logger"

	"github.com/IBM/sarama"
)

// EventHandler processes one decoded reservation event. Returning an error
// does not block the partition; the failure is logged and the offset still
// advances.
type EventHandler func(ctx context.Context, event *ReservationEvent) error

type EventConsumer interface {
	Start(ctx context.Context, numWorkers int) error
	Stop() error
}

type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	Topics           []string
	SessionTimeoutMs int
	HeartbeatMs      int
	OffsetOldest     bool
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          []string{"localhost:9092"},
		GroupID:          "roomly-notifications",
		Topics:           []string{"reservation-events"},
		SessionTimeoutMs: 30000,
		HeartbeatMs:      3000,
		OffsetOldest:     false,
	}
}

// KafkaEventConsumer consumes reservation lifecycle events and hands each one
// to the registered handler (guest notifications, audit feeds, downstream
// sync).
type KafkaEventConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       EventHandler
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewKafkaEventConsumer(config *ConsumerConfig, handler EventHandler) (EventConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaEventConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		handler:       handler,
	}, nil
}

func (c *KafkaEventConsumer) Start(ctx context.Context, numWorkers int) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleErrors(ctx)

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}

	logger.GetDefault().InfoWithContext(ctx, "reservation event consumers started", map[string]interface{}{
		"workers": numWorkers,
		"topics":  c.config.Topics,
		"group":   c.config.GroupID,
	})
	return nil
}

func (c *KafkaEventConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &groupHandler{handler: c.handler, workerID: workerID}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := c.consumerGroup.Consume(ctx, c.config.Topics, handler); err != nil {
				logger.GetDefault().ErrorWithContext(ctx, "consumer session ended", err,
					map[string]interface{}{"worker": workerID})
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *KafkaEventConsumer) handleErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.consumerGroup.Errors():
			if !ok {
				return
			}
			logger.GetDefault().ErrorWithContext(ctx, "consumer group error", err, nil)
		}
	}
}

func (c *KafkaEventConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.consumerGroup.Close()
}

type groupHandler struct {
	handler  EventHandler
	workerID int
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event ReservationEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.GetDefault().ErrorWithContext(session.Context(), "failed to decode reservation event", err,
				map[string]interface{}{"offset": message.Offset, "partition": message.Partition})
			session.MarkMessage(message, "")
			continue
		}

		if err := h.handler(session.Context(), &event); err != nil {
			logger.GetDefault().ErrorWithContext(session.Context(), "event handler failed", err,
				map[string]interface{}{"type": string(event.Type), "reference": event.ReservationReference})
		}

		session.MarkMessage(message, "")
	}
	return nil
}
