package main

import (
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/connection"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/queue"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/server"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/timer"
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

	log.Info("Starting UV Gateway...")

	// Create Kafka topics
	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicObservations,
		cfg.Kafka.NumPartitions,
		1, // replication factor
	); err != nil {
		log.Warnf("Topic creation failed (may already exist): %v", err)
	}

	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicNotifications,
		1, // single partition for notifications
		1, // replication factor
	); err != nil {
		log.Warnf("Topic creation failed (may already exist): %v", err)
	}

	// Create Kafka producer for client events
	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicObservations)
	defer producer.Close()
	log.Info("Kafka producer initialized")

	// Create connection manager
	connManager := connection.NewManager(cfg.Gateway.MaxConnections)

	// Create timer manager for inactivity timeouts
	timerManager := timer.NewTimerManager()
	timerManager.Start()
	defer timerManager.Stop()

	// Create gateway server
	tcpServer := server.NewTCPServer(&cfg.Gateway, connManager, timerManager, producer)
	if err := tcpServer.Start(); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}
	defer tcpServer.Stop()

	// Print statistics periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := connManager.Stats()
			timerStats := timerManager.Stats()
			log.Infof("Gateway stats: connections=%d/%d users=%d timers=%d",
				stats.TotalConnections, stats.MaxConnections,
				stats.UniqueUsers, timerStats.ScheduledTasks)
		}
	}()

	log.Infof("UV Gateway is running on port %d", cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
}
