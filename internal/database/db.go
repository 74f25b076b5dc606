package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	// Read all migration files
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Filter and sort SQL files
	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	// Execute each migration
	for _, filename := range sqlFiles {
		fmt.Printf("Running migration: %s\n", filename)

		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	fmt.Println("All migrations completed successfully")
	return nil
}

// UpsertUserSettings inserts or updates a user's notification settings
func (db *DB) UpsertUserSettings(s *UserSettings) error {
	query := `
		INSERT INTO user_settings (
			user_id, notifications_enabled, quiet_hours_enabled,
			quiet_hours_start, quiet_hours_end, uv_change_threshold,
			minimum_risk_level, alert_frequency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET notifications_enabled = EXCLUDED.notifications_enabled,
		    quiet_hours_enabled = EXCLUDED.quiet_hours_enabled,
		    quiet_hours_start = EXCLUDED.quiet_hours_start,
		    quiet_hours_end = EXCLUDED.quiet_hours_end,
		    uv_change_threshold = EXCLUDED.uv_change_threshold,
		    minimum_risk_level = EXCLUDED.minimum_risk_level,
		    alert_frequency = EXCLUDED.alert_frequency,
		    updated_at = CURRENT_TIMESTAMP
	`
	_, err := db.Exec(query,
		s.UserID,
		s.NotificationsEnabled,
		s.QuietHoursEnabled,
		s.QuietHoursStart,
		s.QuietHoursEnd,
		s.UVChangeThreshold,
		s.MinimumRiskLevel,
		s.AlertFrequency,
	)
	return err
}

// GetUserSettings retrieves settings for a user. Returns nil when no
// row exists so callers can fall back to defaults.
func (db *DB) GetUserSettings(userID string) (*UserSettings, error) {
	query := `
		SELECT user_id, notifications_enabled, quiet_hours_enabled,
		       quiet_hours_start, quiet_hours_end, uv_change_threshold,
		       minimum_risk_level, alert_frequency, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var s UserSettings
	err := db.QueryRow(query, userID).Scan(
		&s.UserID,
		&s.NotificationsEnabled,
		&s.QuietHoursEnabled,
		&s.QuietHoursStart,
		&s.QuietHoursEnd,
		&s.UVChangeThreshold,
		&s.MinimumRiskLevel,
		&s.AlertFrequency,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// InsertNotificationRecord inserts one delivered notification
func (db *DB) InsertNotificationRecord(rec *NotificationRecord) error {
	query := `
		INSERT INTO notification_history (
			notification_id, session_id, user_id, notification_type,
			title, body, priority, risk_level, adjusted_uv, emitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	return db.QueryRow(
		query,
		rec.NotificationID,
		rec.SessionID,
		rec.UserID,
		rec.NotificationType,
		rec.Title,
		rec.Body,
		rec.Priority,
		rec.RiskLevel,
		rec.AdjustedUV,
		rec.EmittedAt,
	).Scan(&rec.ID)
}

// PruneNotificationHistory drops a user's oldest rows beyond the
// retention limit
func (db *DB) PruneNotificationHistory(userID string) error {
	query := `
		DELETE FROM notification_history
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM notification_history
			WHERE user_id = $1
			ORDER BY emitted_at DESC
			LIMIT $2
		  )
	`
	_, err := db.Exec(query, userID, historyLimit)
	return err
}

// GetNotificationHistory returns a user's most recent notifications
func (db *DB) GetNotificationHistory(userID string, limit int) ([]*NotificationRecord, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}

	query := `
		SELECT id, notification_id, session_id, user_id, notification_type,
		       title, body, priority, risk_level, adjusted_uv, emitted_at, created_at
		FROM notification_history
		WHERE user_id = $1
		ORDER BY emitted_at DESC
		LIMIT $2
	`

	rows, err := db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*NotificationRecord
	for rows.Next() {
		var rec NotificationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.NotificationID,
			&rec.SessionID,
			&rec.UserID,
			&rec.NotificationType,
			&rec.Title,
			&rec.Body,
			&rec.Priority,
			&rec.RiskLevel,
			&rec.AdjustedUV,
			&rec.EmittedAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// InsertSessionLog inserts a new exposure session row
func (db *DB) InsertSessionLog(log *SessionLog) error {
	query := `
		INSERT INTO exposure_sessions (
			session_id, user_id, started_at, total_exposure_seconds,
			max_uv_index, max_risk_level, exceeded, final_state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return db.QueryRow(
		query,
		log.SessionID,
		log.UserID,
		log.StartedAt,
		log.TotalExposureSeconds,
		log.MaxUVIndex,
		log.MaxRiskLevel,
		log.Exceeded,
		log.FinalState,
	).Scan(&log.ID)
}

// CloseSessionLog marks a session ended and records its final totals
func (db *DB) CloseSessionLog(sessionID string, endedAt time.Time, totalSeconds int, exceeded bool, finalState string) error {
	query := `
		UPDATE exposure_sessions
		SET ended_at = $1,
		    total_exposure_seconds = $2,
		    exceeded = $3,
		    final_state = $4,
		    updated_at = CURRENT_TIMESTAMP
		WHERE session_id = $5
	`

	_, err := db.Exec(query, endedAt, totalSeconds, exceeded, finalState, sessionID)
	return err
}
