package aggregation

import (
	"fmt"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/database"
)

// DailyAggregator performs daily aggregation
type DailyAggregator struct {
	db *database.DB
}

// NewDailyAggregator creates a new daily aggregator
func NewDailyAggregator(db *database.DB) *DailyAggregator {
	return &DailyAggregator{db: db}
}

// Aggregate performs daily aggregation for the specified date
func (d *DailyAggregator) Aggregate(targetDate time.Time) error {
	// Truncate to beginning of day
	date := targetDate.Truncate(24 * time.Hour)

	fmt.Printf("Running daily aggregation for %s\n", date.Format("2006-01-02"))

	query := `
		INSERT INTO daily_exposure_summary (
			user_id, date,
			total_exposure_sec, min_uv, max_uv,
			session_count, exceeded_count, notification_count
		)
		SELECT
			he.user_id,
			$1::date AS date,
			COALESCE(SUM(he.exposure_seconds), 0) AS total_exposure_sec,
			MIN(he.max_uv) AS min_uv,
			MAX(he.max_uv) AS max_uv,
			COALESCE((
				SELECT COUNT(*)
				FROM exposure_sessions es
				WHERE es.user_id = he.user_id
				  AND DATE(es.started_at) = $1::date
			), 0) AS session_count,
			COALESCE(SUM(he.exceeded_count), 0) AS exceeded_count,
			COALESCE(SUM(he.notification_count), 0) AS notification_count
		FROM
			hourly_exposure he
		WHERE
			DATE(he.hour_timestamp) = $1::date
		GROUP BY
			he.user_id
		ON CONFLICT (user_id, date) DO UPDATE
		SET
			total_exposure_sec = EXCLUDED.total_exposure_sec,
			min_uv = EXCLUDED.min_uv,
			max_uv = EXCLUDED.max_uv,
			session_count = EXCLUDED.session_count,
			exceeded_count = EXCLUDED.exceeded_count,
			notification_count = EXCLUDED.notification_count
	`

	result, err := d.db.Exec(query, date)
	if err != nil {
		return fmt.Errorf("failed to aggregate daily data: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	fmt.Printf("Daily aggregation completed: %d users processed\n", rowsAffected)

	return nil
}

// AggregatePreviousDay aggregates the previous full day
func (d *DailyAggregator) AggregatePreviousDay() error {
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1).Truncate(24 * time.Hour)
	return d.Aggregate(yesterday)
}

// CalculateNextRunTime calculates when the daily aggregation should next run
// It runs at a specific time each day (e.g., 00:05:00)
func (d *DailyAggregator) CalculateNextRunTime(timeOfDay string) (time.Time, error) {
	now := time.Now()

	// Parse time of day (format: "HH:MM")
	var hour, minute int
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s (expected HH:MM)", timeOfDay)
	}

	// Today's run time
	todayRun := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	// If we're past today's run time, schedule for tomorrow
	if now.After(todayRun) {
		return todayRun.AddDate(0, 0, 1), nil
	}

	return todayRun, nil
}
