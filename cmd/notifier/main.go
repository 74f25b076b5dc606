package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/notify"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/protocol"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/queue"
	"github.com/STOmaha/Time-to-Burn-sub002/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	if err := log.Init(cfg.Debug); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer log.Sync()

	log.Info("Starting Notification Service...")

	// Local-notification dispatcher
	dispatcher := notify.NewLogDispatcher()

	// Create consumer for notification envelopes
	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications, "notifier-group")
	defer consumer.Close()
	log.Info("Kafka consumer initialized")

	ctx := context.Background()

	log.Info("Notification Service is running")

	// Start consuming notifications
	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.Warnf("Failed to consume message: %v", err)
				continue
			}

			env, err := protocol.DecodeNotificationEnvelope(msg.Value)
			if err != nil {
				log.Warnf("Failed to decode notification: %v", err)
				consumer.Commit(ctx, msg)
				continue
			}

			// Fire and forget: a failed dispatch is dropped, never
			// retried, because a late retry carries stale risk context.
			if env.Notification != nil {
				if err := dispatcher.Dispatch(ctx, env.Notification); err != nil {
					log.Warnf("Failed to dispatch notification %s: %v",
						env.Notification.Identifier, err)
				}
			}

			if err := consumer.Commit(ctx, msg); err != nil {
				log.Warnf("Failed to commit offset: %v", err)
			}
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
}
