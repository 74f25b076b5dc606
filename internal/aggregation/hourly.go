// Package aggregation rolls raw exposure and notification rows up into
// hourly and daily per-user summaries.
package aggregation

import (
	"fmt"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/database"
)

// HourlyAggregator performs hourly aggregation
type HourlyAggregator struct {
	db *database.DB
}

// NewHourlyAggregator creates a new hourly aggregator
func NewHourlyAggregator(db *database.DB) *HourlyAggregator {
	return &HourlyAggregator{db: db}
}

// Aggregate performs hourly aggregation for the specified hour. It
// rolls notification history up first, then folds in exposure totals
// from sessions closed during the hour.
func (h *HourlyAggregator) Aggregate(targetHour time.Time) error {
	// Truncate to the beginning of the hour
	startTime := targetHour.Truncate(time.Hour)
	endTime := startTime.Add(time.Hour)

	fmt.Printf("Running hourly aggregation for %s\n", startTime.Format("2006-01-02 15:04:05"))

	notificationQuery := `
		INSERT INTO hourly_exposure (
			user_id, hour_timestamp, avg_uv, max_uv,
			notification_count, exceeded_count, sample_count
		)
		SELECT
			user_id,
			$1 AS hour_timestamp,
			AVG(adjusted_uv) AS avg_uv,
			MAX(adjusted_uv) AS max_uv,
			COUNT(*) AS notification_count,
			COUNT(*) FILTER (WHERE notification_type = 'exposure_exceeded') AS exceeded_count,
			COUNT(*) AS sample_count
		FROM
			notification_history
		WHERE
			emitted_at >= $1 AND emitted_at < $2
		GROUP BY
			user_id
		ON CONFLICT (user_id, hour_timestamp) DO UPDATE
		SET
			avg_uv = EXCLUDED.avg_uv,
			max_uv = EXCLUDED.max_uv,
			notification_count = EXCLUDED.notification_count,
			exceeded_count = EXCLUDED.exceeded_count,
			sample_count = EXCLUDED.sample_count
	`

	result, err := h.db.Exec(notificationQuery, startTime, endTime)
	if err != nil {
		return fmt.Errorf("failed to aggregate hourly notifications: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()

	exposureQuery := `
		INSERT INTO hourly_exposure (
			user_id, hour_timestamp, exposure_seconds, sample_count
		)
		SELECT
			user_id,
			$1 AS hour_timestamp,
			SUM(total_exposure_seconds) AS exposure_seconds,
			COUNT(*) AS sample_count
		FROM
			exposure_sessions
		WHERE
			ended_at >= $1 AND ended_at < $2
		GROUP BY
			user_id
		ON CONFLICT (user_id, hour_timestamp) DO UPDATE
		SET
			exposure_seconds = EXCLUDED.exposure_seconds
	`

	if _, err := h.db.Exec(exposureQuery, startTime, endTime); err != nil {
		return fmt.Errorf("failed to aggregate hourly exposure: %w", err)
	}

	fmt.Printf("Hourly aggregation completed: %d users processed\n", rowsAffected)

	return nil
}

// AggregatePreviousHour aggregates the previous full hour
func (h *HourlyAggregator) AggregatePreviousHour() error {
	now := time.Now()
	previousHour := now.Add(-1 * time.Hour).Truncate(time.Hour)
	return h.Aggregate(previousHour)
}

// CalculateNextRunTime calculates when the hourly aggregation should next run
// It runs at HH:05:00 (5 minutes past each hour)
func (h *HourlyAggregator) CalculateNextRunTime(delay time.Duration) time.Time {
	now := time.Now()

	// Next hour
	nextHour := now.Truncate(time.Hour).Add(time.Hour)

	// Add delay (e.g., 5 minutes past the hour)
	nextRun := nextHour.Add(delay)

	// If we're past the next run time, add another hour
	if now.After(nextRun) {
		nextRun = nextRun.Add(time.Hour)
	}

	return nextRun
}
