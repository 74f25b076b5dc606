package main

import (
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/aggregation"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/database"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
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

	log.Info("Starting Aggregation Service...")

	// Connect to database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Connected to database")

	// Create timer manager
	timerManager := timer.NewTimerManager()
	timerManager.Start()
	defer timerManager.Stop()

	// Create aggregators
	hourlyAgg := aggregation.NewHourlyAggregator(db)
	dailyAgg := aggregation.NewDailyAggregator(db)

	// Schedule hourly aggregation
	scheduleHourlyAggregation(timerManager, hourlyAgg, cfg.Aggregation.HourlyDelay)

	// Schedule daily aggregation
	scheduleDailyAggregation(timerManager, dailyAgg, cfg.Aggregation.DailyTime)

	log.Info("Aggregation Service is running")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
}

func scheduleHourlyAggregation(tm *timer.TimerManager, agg *aggregation.HourlyAggregator, delay time.Duration) {
	taskID := "hourly-aggregation"

	var scheduleNext func()
	scheduleNext = func() {
		nextRun := agg.CalculateNextRunTime(delay)
		log.Infof("Next hourly aggregation scheduled for: %s", nextRun.Format("2006-01-02 15:04:05"))

		callback := func() {
			if err := agg.AggregatePreviousHour(); err != nil {
				log.Errorf("Hourly aggregation failed: %v", err)
			}

			// Schedule next run
			scheduleNext()
		}

		tm.Schedule(taskID, nextRun, callback)
	}

	scheduleNext()
}

func scheduleDailyAggregation(tm *timer.TimerManager, agg *aggregation.DailyAggregator, timeOfDay string) {
	taskID := "daily-aggregation"

	var scheduleNext func()
	scheduleNext = func() {
		nextRun, err := agg.CalculateNextRunTime(timeOfDay)
		if err != nil {
			log.Fatalf("Failed to calculate daily run time: %v", err)
		}
		log.Infof("Next daily aggregation scheduled for: %s", nextRun.Format("2006-01-02 15:04:05"))

		callback := func() {
			if err := agg.AggregatePreviousDay(); err != nil {
				log.Errorf("Daily aggregation failed: %v", err)
			}

			// Schedule next run
			scheduleNext()
		}

		tm.Schedule(taskID, nextRun, callback)
	}

	scheduleNext()
}
