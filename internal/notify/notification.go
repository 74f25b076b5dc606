// Package notify decides when exposure risk is worth interrupting the
// user about. The policy throttles and prioritizes alerts derived from
// risk assessments and timer transitions; notifications themselves are
// ephemeral, fire-and-forget records.
package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// Type routes a notification downstream.
type Type string

const (
	TypeRiskLevelChange    Type = "risk_level_change"
	TypeEnvironmentalAlert Type = "environmental_alert"
	TypeRecommendation     Type = "recommendation"
	TypeEducationalTip     Type = "educational_tip"
	TypeUVChangeAdvisory   Type = "uv_change_advisory"
	TypeSunscreenReapply   Type = "sunscreen_reapply"
	TypeExposureExceeded   Type = "exposure_exceeded"
)

// Priority orders delivery and presentation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// UserInfo keys carried for downstream routing.
const (
	InfoKeyType       = "notificationType"
	InfoKeyRiskLevel  = "riskLevel"
	InfoKeyAdjustedUV = "adjustedUV"
)

// SmartNotification is a single alert handed to the local-notification
// dispatcher. Created, dispatched, then discarded except for the
// bounded history a collaborator keeps for display and debugging.
type SmartNotification struct {
	Identifier  string            `json:"identifier"`
	Type        Type              `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Priority    Priority          `json:"priority"`
	RiskLevel   risk.Level        `json:"risk_level"`
	AdjustedUV  int               `json:"adjusted_uv"`
	UserInfo    map[string]string `json:"user_info"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

// newNotification fills the identifier and the routing userInfo bag.
func newNotification(nType Type, title, body string, priority Priority, level risk.Level, adjustedUV int, at time.Time) *SmartNotification {
	return &SmartNotification{
		Identifier: uuid.New().String(),
		Type:       nType,
		Title:      title,
		Body:       body,
		Priority:   priority,
		RiskLevel:  level,
		AdjustedUV: adjustedUV,
		UserInfo: map[string]string{
			InfoKeyType:       string(nType),
			InfoKeyRiskLevel:  string(level),
			InfoKeyAdjustedUV: strconv.Itoa(adjustedUV),
		},
		ScheduledAt: at,
	}
}

// advisoryLifetime is how long the transient UV-change advisory stays
// on screen before clearing itself.
const advisoryLifetime = 5 * time.Second

// NewUVChangeAdvisory is the self-clearing notice emitted when a
// running timer converts exposure across a UV transition.
func NewUVChangeAdvisory(oldUV, newUV int, remainingSeconds float64, level risk.Level, at time.Time) *SmartNotification {
	direction := "risen"
	if newUV < oldUV {
		direction = "fallen"
	}
	n := newNotification(
		TypeUVChangeAdvisory,
		fmt.Sprintf("UV index %s to %d", direction, newUV),
		fmt.Sprintf("UV changed from %d to %d. About %s of safe exposure remaining.", oldUV, newUV, formatSeconds(remainingSeconds)),
		PriorityLow,
		level,
		newUV,
		at,
	)
	expires := at.Add(advisoryLifetime)
	n.ExpiresAt = &expires
	return n
}

// NewSunscreenReapply is emitted when the reapply countdown expires.
func NewSunscreenReapply(level risk.Level, adjustedUV int, at time.Time) *SmartNotification {
	return newNotification(
		TypeSunscreenReapply,
		"Time to reapply sunscreen",
		"Your sunscreen protection has worn off. Reapply before continuing sun exposure.",
		PriorityHigh,
		level,
		adjustedUV,
		at,
	)
}

// NewExposureExceeded is emitted the moment the burn budget runs out.
func NewExposureExceeded(level risk.Level, adjustedUV int, at time.Time) *SmartNotification {
	return newNotification(
		TypeExposureExceeded,
		"Sun exposure limit reached",
		fmt.Sprintf("You have used up your safe exposure time at UV %d. Get out of the sun now.", adjustedUV),
		PriorityCritical,
		level,
		adjustedUV,
		at,
	)
}

func formatSeconds(s float64) string {
	if s < 0 {
		s = 0
	}
	d := time.Duration(s * float64(time.Second)).Round(time.Second)
	return d.String()
}
