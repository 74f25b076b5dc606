package exposure

import (
	"encoding/json"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// Snapshot is the serializable read-only view of a timer for
// presentation surfaces. Out-of-process surfaces (widgets, lock-screen
// equivalents) only ever read a serialized snapshot; they never call
// the engine.
type Snapshot struct {
	UVIndex                   int        `json:"uv_index"`
	ElapsedSeconds            float64    `json:"elapsed_seconds"`
	TotalExposureSeconds      float64    `json:"total_exposure_seconds"`
	TimeToBurnSeconds         int        `json:"time_to_burn_seconds"`
	State                     State      `json:"state"`
	SunscreenRemainingSeconds float64    `json:"sunscreen_remaining_seconds"`
	RiskLevel                 risk.Level `json:"risk_level"`
	ExposureProgress          float64    `json:"exposure_progress"`
	CapturedAt                time.Time  `json:"captured_at"`
}

// Encode serializes the snapshot for cross-process hand-off.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot reads a serialized snapshot. A decode failure means
// "no data available": callers render a last-known or placeholder state
// instead of treating it as fatal.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
