package database

import (
	"time"
)

// UserSettings holds a user's notification preferences. Rows are
// created lazily with defaults the first time a user is seen.
type UserSettings struct {
	UserID               string
	NotificationsEnabled bool
	QuietHoursEnabled    bool
	QuietHoursStart      int // hour of day, 0-23
	QuietHoursEnd        int
	UVChangeThreshold    int
	MinimumRiskLevel     string
	AlertFrequency       float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NotificationRecord is one delivered notification, kept as bounded
// per-user history.
type NotificationRecord struct {
	ID               int64
	NotificationID   string
	SessionID        string
	UserID           string
	NotificationType string
	Title            string
	Body             string
	Priority         string
	RiskLevel        *string
	AdjustedUV       *int
	EmittedAt        time.Time
	CreatedAt        time.Time
}

// SessionLog records one exposure session from start to reset or
// disconnect.
type SessionLog struct {
	ID                   int64
	SessionID            string
	UserID               string
	StartedAt            time.Time
	EndedAt              *time.Time
	TotalExposureSeconds int
	MaxUVIndex           int
	MaxRiskLevel         string
	Exceeded             bool
	FinalState           string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HourlyExposure represents hourly aggregated exposure data per user
type HourlyExposure struct {
	ID                 int64
	UserID             string
	HourTimestamp      time.Time
	ExposureSeconds    int
	AvgUV              *float64
	MaxUV              *int
	NotificationCount  int
	ExceededCount      int
	SampleCount        int
	CreatedAt          time.Time
}

// DailyExposureSummary represents daily roll-ups per user
type DailyExposureSummary struct {
	ID                 int64
	UserID             string
	Date               time.Time
	TotalExposureSec   int
	MinUV              *int
	MaxUV              *int
	SessionCount       int
	ExceededCount      int
	NotificationCount  int
	CreatedAt          time.Time
}

const (
	// historyLimit bounds per-user notification history; older rows are
	// pruned after each insert.
	historyLimit = 100
)
