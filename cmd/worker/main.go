package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const consumerGroup = "profile-audit-group"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	log := logger.NewZapLogger(cfg.App.Env).With(zap.String("component", "worker"))
	defer func() { _ = log.Sync() }()
	log.Info("Starting DevConnector Worker...")

	// Kafka Consumer
	consumer, err := event.NewProfileEventConsumer(cfg, consumerGroup, log)
	if err != nil {
		log.Fatal("Cannot init Kafka consumer", err)
	}
	defer consumer.Close()

	log.Info("Worker listening", zap.String("topic", cfg.Kafka.Topic), zap.String("group", consumerGroup))

	if err := consumer.Run(ctx, auditHandler(log)); err != nil {
		// Exit non-zero so the supervisor restarts the worker and the group
		// redelivers the uncommitted event.
		log.Error("Worker stopped", err)
		_ = consumer.Close()
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("Worker stopped")
}

// auditHandler writes one structured audit line per profile event.
func auditHandler(log logger.Logger) event.ProfileEventHandler {
	return func(_ context.Context, ev service.ProfileEvent) error {
		fields := []zap.Field{
			zap.String("event_type", string(ev.EventType)),
			zap.String("user_id", ev.UserID.String()),
			zap.Time("occurred_at", ev.OccurredAt),
		}
		if ev.EntryID != "" {
			fields = append(fields, zap.String("entry_id", ev.EntryID))
		}
		if ev.EventType == service.ProfileEventAccountDeleted {
			log.Warn("Account removed", fields...)
			return nil
		}
		log.Info("Profile changed", fields...)
		return nil
	}
}
