package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/database"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/engine"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/notify"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/queue"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/session"
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

	log.Info("Starting UV Exposure Engine...")

	// Connect to database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Connected to database")

	// Run migrations
	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Info("Connected to Redis")

	// Policy state and snapshot stores
	stateStore := notify.NewStateStore(redisClient)
	snapshotStore := session.NewSnapshotStore(redisClient, cfg.Engine.SnapshotTTL)

	// Notification producer
	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications)
	defer producer.Close()
	log.Info("Notification producer initialized")

	// Consumer for client events
	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicObservations, "engine-group")
	defer consumer.Close()
	log.Info("Kafka consumer initialized")

	eng := engine.New(cfg, db, stateStore, snapshotStore, producer, consumer)

	go eng.Run(ctx)

	log.Info("UV Exposure Engine is running")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
	cancel()
	eng.Stop(context.Background())
}
