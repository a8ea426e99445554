package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type ProfileEventHandler func(ctx context.Context, event service.ProfileEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultHandleAttempts = 3
	defaultRetryBackoff   = time.Second
)

// ProfileEventConsumer reads the profile event topic in a consumer group and
// commits each message once its handler succeeded. Undecodable messages are
// committed and skipped. A message whose handler keeps failing stops Run
// uncommitted, so the group redelivers it after a restart.
type ProfileEventConsumer struct {
	reader       messageReader
	logger       logger.Logger
	attempts     int
	retryBackoff time.Duration
}

func NewProfileEventConsumer(cfg config.Config, groupID string, log logger.Logger) (*ProfileEventConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicProfileEvents
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &ProfileEventConsumer{
		reader:       reader,
		logger:       log,
		attempts:     defaultHandleAttempts,
		retryBackoff: defaultRetryBackoff,
	}, nil
}

func DecodeProfileEvent(msg kafka.Message) (service.ProfileEvent, error) {
	var ev service.ProfileEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("decode profile event: %w", err)
	}
	if ev.EventType == "" {
		return ev, errors.New("decode profile event: missing event_type")
	}
	return ev, nil
}

// Run blocks until ctx is done, the reader fails for good or an event cannot
// be handled.
func (c *ProfileEventConsumer) Run(ctx context.Context, handle ProfileEventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch profile event: %w", err)
		}

		ev, err := DecodeProfileEvent(msg)
		if err != nil {
			c.logger.Warn("Skipping malformed profile event", zap.Int64("offset", msg.Offset), zap.Error(err))
			c.commit(ctx, msg)
			continue
		}

		if err := c.handleWithRetry(ctx, handle, ev, msg.Offset); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("handle %s at offset %d: %w", ev.EventType, msg.Offset, err)
		}
		c.commit(ctx, msg)
	}
}

func (c *ProfileEventConsumer) handleWithRetry(ctx context.Context, handle ProfileEventHandler, ev service.ProfileEvent, offset int64) error {
	attempts := max(c.attempts, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = handle(ctx, ev); err == nil {
			return nil
		}
		c.logger.Error("Failed to handle profile event", err,
			zap.String("event_type", string(ev.EventType)),
			zap.Int64("offset", offset),
			zap.Int("attempt", i),
		)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryBackoff):
		}
	}
	return err
}

func (c *ProfileEventConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

func (c *ProfileEventConsumer) Close() error {
	return c.reader.Close()
}
