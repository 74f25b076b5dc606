package exposure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// fakeClock is an adjustable wall clock for driving the timer in tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTimer(clock *fakeClock) *Timer {
	tm := NewTimer(DefaultReapplyInterval)
	tm.now = clock.now
	return tm
}

func TestStartRequiresUV(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)

	// UV 0: silent no-op, state unchanged. This is not an error condition.
	require.False(t, tm.Start())
	require.Equal(t, StateNotStarted, tm.State())

	tm.UpdateUVIndex(6)
	require.True(t, tm.Start())
	require.Equal(t, StateRunning, tm.State())
}

func TestPauseFlushesSegment(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(4)
	tm.Start()

	clock.advance(10 * time.Second)
	require.True(t, tm.Pause())
	require.Equal(t, StatePaused, tm.State())
	require.InDelta(t, 10, tm.TotalExposureSeconds(), 1e-9)

	// Clock is frozen while paused.
	clock.advance(30 * time.Second)
	require.InDelta(t, 10, tm.TotalExposureSeconds(), 1e-9)
}

func TestResumeRequiresUV(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(4)
	tm.Start()
	clock.advance(5 * time.Second)
	tm.Pause()

	require.True(t, tm.Resume())
	require.Equal(t, StateRunning, tm.State())

	clock.advance(5 * time.Second)
	tm.Pause()
	tm.UpdateUVIndex(0)

	// UV dropped to zero: forced back to NotStarted, resume is a no-op.
	require.Equal(t, StateNotStarted, tm.State())
	require.False(t, tm.Resume())
}

func TestUVDropToZeroResetsAccumulators(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(5)
	tm.Start()
	clock.advance(10 * time.Second)

	_, advisory := tm.UpdateUVIndex(0)
	require.False(t, advisory)
	require.Equal(t, StateNotStarted, tm.State())
	require.Equal(t, 0.0, tm.TotalExposureSeconds())
	require.Equal(t, 0, tm.CurrentUV())
}

func TestExceededAtBudget(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)

	// UV 7 has a 30 second budget: 60 - (7-1)*5.
	tm.UpdateUVIndex(7)
	require.Equal(t, 30, BurnBudgetSeconds(7))
	tm.Start()

	clock.advance(29 * time.Second)
	res := tm.Tick()
	require.False(t, res.Exceeded)
	require.Equal(t, StateRunning, res.State)

	clock.advance(1 * time.Second)
	res = tm.Tick()
	require.True(t, res.Exceeded)
	require.Equal(t, StateExceeded, res.State)

	// Exceeded is terminal until reset, and reported only once.
	clock.advance(10 * time.Second)
	res = tm.Tick()
	require.False(t, res.Exceeded)
	require.Equal(t, StateExceeded, res.State)

	tm.Reset()
	require.Equal(t, StateNotStarted, tm.State())
	require.Equal(t, 0.0, tm.TotalExposureSeconds())
}

func TestUVChangeConvertsBudgetFraction(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)

	// UV 3 budget is 50s. Run 20s: 40% of the budget consumed.
	tm.UpdateUVIndex(3)
	require.Equal(t, 50, BurnBudgetSeconds(3))
	tm.Start()
	clock.advance(20 * time.Second)

	// UV 9 budget is 20s. The 40% consumed carries over: 8s of the new
	// budget, 12s remaining. Seconds never carry over unscaled.
	change, advisory := tm.UpdateUVIndex(9)
	require.True(t, advisory)
	require.Equal(t, 3, change.OldUV)
	require.Equal(t, 9, change.NewUV)
	require.Equal(t, 20, change.BudgetSeconds)
	require.InDelta(t, 8, change.ConvertedExposure, 1e-9)
	require.InDelta(t, 12, change.RemainingSeconds, 1e-9)
	require.InDelta(t, 8, tm.TotalExposureSeconds(), 1e-9)
	require.Equal(t, StateRunning, tm.State())
}

func TestUVChangeChainPreservesConsumedFraction(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)

	tm.UpdateUVIndex(2) // budget 55
	tm.Start()
	clock.advance(11 * time.Second) // 20% consumed

	tm.UpdateUVIndex(10) // budget 15, total -> 3
	require.InDelta(t, 3, tm.TotalExposureSeconds(), 1e-9)

	clock.advance(3 * time.Second) // 3 + 3 = 40% consumed
	tm.UpdateUVIndex(1)            // budget 60, total -> 24
	require.InDelta(t, 24, tm.TotalExposureSeconds(), 1e-9)
	require.Equal(t, StateRunning, tm.State())
}

func TestUVChangeWhilePausedDoesNotConvert(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(3)
	tm.Start()
	clock.advance(10 * time.Second)
	tm.Pause()

	_, advisory := tm.UpdateUVIndex(8)
	require.False(t, advisory, "no advisory while paused")
	require.InDelta(t, 10, tm.TotalExposureSeconds(), 1e-9)
	require.Equal(t, 8, tm.CurrentUV())
}

func TestTotalExposureNeverDecreasesWhileRunning(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(2)
	tm.Start()

	prevConsumed := 0.0
	for _, uv := range []int{3, 5, 4, 8, 6} {
		clock.advance(2 * time.Second)
		tm.UpdateUVIndex(uv)
		if tm.State() != StateRunning {
			break
		}
		budget := float64(BurnBudgetSeconds(uv))
		consumed := tm.TotalExposureSeconds() / budget
		require.Greater(t, consumed, prevConsumed, "consumed budget fraction must strictly grow")
		prevConsumed = consumed
	}
}

func TestSunscreenLifecycle(t *testing.T) {
	clock := newFakeClock()
	tm := NewTimer(30 * time.Minute)
	tm.now = clock.now

	tm.UpdateUVIndex(6)
	tm.Start()
	clock.advance(10 * time.Second)

	require.True(t, tm.ApplySunscreen())
	require.Equal(t, StateSunscreenApplied, tm.State())
	require.InDelta(t, 10, tm.TotalExposureSeconds(), 1e-9)

	// UV clock is stopped while sunscreen is active.
	clock.advance(10 * time.Minute)
	res := tm.Tick()
	require.False(t, res.SunscreenExpired)
	require.InDelta(t, 10, tm.TotalExposureSeconds(), 1e-9)

	// Countdown expiry drops to Paused and reports the expiry once.
	clock.advance(21 * time.Minute)
	res = tm.Tick()
	require.True(t, res.SunscreenExpired)
	require.Equal(t, StatePaused, res.State)

	res = tm.Tick()
	require.False(t, res.SunscreenExpired)
}

func TestCancelSunscreenTimer(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(6)
	tm.Start()
	clock.advance(5 * time.Second)
	tm.ApplySunscreen()

	require.True(t, tm.CancelSunscreenTimer())
	require.Equal(t, StatePaused, tm.State())

	snap := tm.Snapshot(risk.LevelModerate)
	require.Equal(t, 0.0, snap.SunscreenRemainingSeconds)
}

func TestSnapshotShape(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(7) // budget 30
	tm.Start()
	clock.advance(12 * time.Second)

	snap := tm.Snapshot(risk.LevelHigh)
	require.Equal(t, 7, snap.UVIndex)
	require.InDelta(t, 12, snap.ElapsedSeconds, 1e-9)
	require.Equal(t, 0.0, snap.TotalExposureSeconds)
	require.Equal(t, 30, snap.TimeToBurnSeconds)
	require.Equal(t, StateRunning, snap.State)
	require.Equal(t, risk.LevelHigh, snap.RiskLevel)
	require.InDelta(t, 0.4, snap.ExposureProgress, 1e-9)

	data, err := snap.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Equal(t, snap.UVIndex, decoded.UVIndex)
	require.Equal(t, snap.State, decoded.State)
	require.InDelta(t, snap.ExposureProgress, decoded.ExposureProgress, 1e-9)
}

func TestSnapshotAtUVZero(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)

	snap := tm.Snapshot(risk.LevelVeryLow)
	require.Equal(t, InfiniteExposure, snap.TimeToBurnSeconds)
	require.Equal(t, 0.0, snap.ExposureProgress)
	require.Equal(t, StateNotStarted, snap.State)
}

func TestDelayedTicksSelfCorrect(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTimer(clock)
	tm.UpdateUVIndex(7) // budget 30
	tm.Start()

	// A single late tick observes the full wall-clock delta; missing
	// intermediate ticks must not under-count exposure.
	clock.advance(45 * time.Second)
	res := tm.Tick()
	require.True(t, res.Exceeded)
	require.Equal(t, StateExceeded, res.State)
}
