package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const TopicProfileEvents = "profile.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducerClient publishes profile events keyed by user id, so every
// event of one account lands on the same partition.
type KafkaProducerClient struct {
	ProfileEventsWriter messageWriter
	logger              logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicProfileEvents
	}

	profileWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{ProfileEventsWriter: profileWriter, logger: log}, nil
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, event service.ProfileEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := c.ProfileEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", event.EventType, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		if err := c.ProfileEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, service.ProfileEvent) error { return nil }
