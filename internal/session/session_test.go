package session

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/environment"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/exposure"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/notify"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/protocol"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

type recorder struct {
	notifications []*notify.SmartNotification
}

func (r *recorder) emit(_, _ string, n *notify.SmartNotification) {
	r.notifications = append(r.notifications, n)
}

func (r *recorder) ofType(t notify.Type) []*notify.SmartNotification {
	var out []*notify.SmartNotification
	for _, n := range r.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func newTestSession(rec *recorder) *Session {
	opts := Options{
		PolicyOptions: notify.Options{
			Enabled:              true,
			UVChangeThreshold:    2,
			MinimumRiskLevel:     risk.LevelModerate,
			EducationalFrequency: 0, // keep test output deterministic
		},
		Emit: rec.emit,
	}
	return New("sess-1", "user-1", opts)
}

func observation(uv int) protocol.ObservationData {
	return protocol.ObservationData{
		Timestamp: "2025-07-15T14:00:00Z",
		UVIndex:   uv,
	}
}

func at() time.Time {
	return time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC)
}

func TestObservationProducesAssessment(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	a := s.HandleObservation(observation(6), at())

	require.Equal(t, 6, a.BaseUVIndex)
	require.Equal(t, 6, a.AdjustedUVIndex)
	require.Equal(t, risk.LevelModerate, a.Level)
}

func TestLevelChangeNeedsPriorObservation(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	// The first observation only seeds the policy's last-seen state.
	s.HandleObservation(observation(3), at())
	require.Empty(t, rec.ofType(notify.TypeRiskLevelChange))

	// A later jump past the severity floor fires.
	s.HandleObservation(observation(7), at().Add(time.Minute))
	require.Len(t, rec.ofType(notify.TypeRiskLevelChange), 1)
}

func TestSummarizeAndResetKeepsTotals(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	s.HandleObservation(observation(6), at())
	require.True(t, s.HandleAction(protocol.ActionStart))
	time.Sleep(1500 * time.Millisecond)

	sum := s.SummarizeAndReset()
	require.GreaterOrEqual(t, sum.TotalExposureSeconds, 1)
	require.Equal(t, 6, sum.MaxUVIndex)
	require.Equal(t, exposure.StatePaused, sum.FinalState)

	// The reset leaves a clean slate for the next outing.
	after := s.Summarize()
	require.Zero(t, after.TotalExposureSeconds)
	require.Zero(t, after.MaxUVIndex)
	require.Equal(t, exposure.StateNotStarted, after.FinalState)
}

func TestActionsDriveTimer(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	// Start with no UV reading is a silent no-op.
	require.False(t, s.HandleAction(protocol.ActionStart))

	s.HandleObservation(observation(5), at())
	require.True(t, s.HandleAction(protocol.ActionStart))

	snap := s.Snapshot()
	require.Equal(t, exposure.StateRunning, snap.State)

	require.True(t, s.HandleAction(protocol.ActionPause))
	require.True(t, s.HandleAction(protocol.ActionResume))
	require.True(t, s.HandleAction(protocol.ActionApplySunscreen))
	require.True(t, s.HandleAction(protocol.ActionCancelSunscreen))
	require.True(t, s.HandleAction(protocol.ActionReset))
	require.False(t, s.HandleAction("unknown"))
}

func TestUVChangeAdvisoryWhileRunning(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	s.HandleObservation(observation(3), at())
	s.HandleAction(protocol.ActionStart)

	s.HandleObservation(observation(9), at().Add(time.Minute))

	advisories := rec.ofType(notify.TypeUVChangeAdvisory)
	require.Len(t, advisories, 1)
	require.Equal(t, 9, advisories[0].AdjustedUV)
	require.NotNil(t, advisories[0].ExpiresAt)
}

func TestNoAdvisoryWhenNotRunning(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	s.HandleObservation(observation(3), at())
	s.HandleObservation(observation(9), at().Add(time.Minute))

	require.Empty(t, rec.ofType(notify.TypeUVChangeAdvisory))
}

func TestSummarizeTracksPeaks(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	s.HandleObservation(observation(9), at())
	s.HandleObservation(observation(4), at().Add(time.Minute))

	sum := s.Summarize()
	require.Equal(t, "sess-1", sum.SessionID)
	require.Equal(t, "user-1", sum.UserID)
	require.Equal(t, 9, sum.MaxUVIndex)
	require.Equal(t, risk.LevelHigh, sum.MaxRiskLevel)
	require.False(t, sum.Exceeded)
	require.Equal(t, exposure.StateNotStarted, sum.FinalState)
}

func TestPolicyStateRoundTripThroughSession(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(rec)

	s.HandleObservation(observation(8), at())
	state := s.PolicyState()
	require.True(t, state.HasLast)
	require.Equal(t, risk.LevelHigh, state.LastRiskLevel)

	fresh := newTestSession(&recorder{})
	fresh.RestorePolicyState(state)
	require.Equal(t, state.LastRiskLevel, fresh.PolicyState().LastRiskLevel)
}

func TestToEnvironmentMapsAttributes(t *testing.T) {
	obs := protocol.ObservationData{
		UVIndex:             8,
		AltitudeMeters:      2500,
		CloudCoverPct:       20,
		SnowType:            "fresh",
		SnowCoveragePct:     75,
		SnowRecentFall:      true,
		WaterBodyType:       "lake",
		WaterSize:           "large",
		WaterDistanceMeters: 200,
		Terrain:             "mountainous",
	}

	env := toEnvironment(obs, at())

	require.Equal(t, 2500.0, env.AltitudeMeters)
	require.Equal(t, 20.0, env.CloudCoverPct)
	require.Equal(t, environment.SnowFresh, env.Snow.Type)
	require.Equal(t, environment.WaterLake, env.Water.BodyType)
	require.Equal(t, 200.0, env.Water.DistanceMeters)
	require.Equal(t, environment.TerrainMountainous, env.Terrain)
	require.Equal(t, environment.SeasonSummer, env.Season.Name)
}

func TestToEnvironmentWithoutWater(t *testing.T) {
	env := toEnvironment(observation(5), at())

	require.Equal(t, environment.WaterNone, env.Water.BodyType)
	require.True(t, math.IsInf(env.Water.DistanceMeters, 1))
}
