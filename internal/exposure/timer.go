// Package exposure implements the exposure-timer state machine: it
// accumulates time-at-risk across UV-level changes and sunscreen
// applications against the burn budget for the current UV index.
//
// A Timer is exclusively owned by one session. All accounting is
// derived from wall-clock deltas, never from call counts, so delayed or
// duplicated ticks self-correct.
package exposure

import (
	"sync"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// State is the finite state of an exposure timer.
type State string

const (
	StateNotStarted       State = "not_started"
	StateRunning          State = "running"
	StatePaused           State = "paused"
	StateSunscreenApplied State = "sunscreen_applied"
	StateExceeded         State = "exceeded"
)

// DefaultReapplyInterval is the fixed sunscreen reapply countdown.
const DefaultReapplyInterval = 2 * time.Hour

// SunscreenStatus records an active or expired sunscreen application.
type SunscreenStatus struct {
	AppliedAt time.Time `json:"applied_at"`
	ReapplyAt time.Time `json:"reapply_at"`
	Active    bool      `json:"active"`
}

// UVChange describes a processed UV-index update, for the transient
// advisory surfaced to the user.
type UVChange struct {
	OldUV             int
	NewUV             int
	RemainingSeconds  float64
	ConvertedExposure float64
	BudgetSeconds     int
}

// TickResult reports the transitions a tick caused.
type TickResult struct {
	State            State
	Exceeded         bool // became Exceeded on this tick
	SunscreenExpired bool // reapply countdown ran out on this tick
}

// Timer is the exposure state machine. It is safe for one mutator at a
// time plus concurrent snapshot readers; the internal mutex serializes
// user actions, UV updates and ticks against each other.
type Timer struct {
	mu sync.Mutex

	state           State
	currentUV       int
	totalExposure   float64 // seconds flushed from completed segments
	segmentStart    time.Time
	sunscreen       *SunscreenStatus
	reapplyInterval time.Duration

	now func() time.Time
}

// NewTimer creates a timer in NotStarted with the given sunscreen
// reapply interval. A non-positive interval falls back to the default.
func NewTimer(reapplyInterval time.Duration) *Timer {
	if reapplyInterval <= 0 {
		reapplyInterval = DefaultReapplyInterval
	}
	return &Timer{
		state:           StateNotStarted,
		reapplyInterval: reapplyInterval,
		now:             time.Now,
	}
}

// Start begins a running segment. Only valid from NotStarted and only
// when the current UV index is above zero; anything else is a silent
// no-op, observable via the unchanged state.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateNotStarted || t.currentUV <= 0 {
		return false
	}
	t.state = StateRunning
	t.segmentStart = t.now()
	return true
}

// Pause flushes the running segment into the accumulated total and
// stops the clock.
func (t *Timer) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return false
	}
	t.flushSegmentLocked(t.now())
	t.state = StatePaused
	return true
}

// Resume restarts the clock from Paused, only while UV is above zero.
func (t *Timer) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePaused || t.currentUV <= 0 {
		return false
	}
	t.state = StateRunning
	t.segmentStart = t.now()
	return true
}

// ApplySunscreen flushes the running segment, stops the UV clock and
// starts the independent reapply countdown.
func (t *Timer) ApplySunscreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return false
	}
	now := t.now()
	t.flushSegmentLocked(now)
	t.state = StateSunscreenApplied
	t.sunscreen = &SunscreenStatus{
		AppliedAt: now,
		ReapplyAt: now.Add(t.reapplyInterval),
		Active:    true,
	}
	return true
}

// CancelSunscreenTimer abandons an active reapply countdown and drops
// back to Paused.
func (t *Timer) CancelSunscreenTimer() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateSunscreenApplied {
		return false
	}
	if t.sunscreen != nil {
		t.sunscreen.Active = false
	}
	t.state = StatePaused
	return true
}

// Reset clears all accumulators and returns to NotStarted. The current
// UV index is kept; it reflects the environment, not the session.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Timer) resetLocked() {
	t.state = StateNotStarted
	t.totalExposure = 0
	t.segmentStart = time.Time{}
	t.sunscreen = nil
}

// UpdateUVIndex applies a fresh UV reading. While Running, accumulated
// exposure is converted so that the fraction of burn budget already
// consumed carries over to the new budget: a second at UV 10 is worth
// proportionally more than a second at UV 3, and seconds must not carry
// over unscaled. A drop to UV 0 pauses first, then forces NotStarted.
//
// The returned advisory flag is set when the caller should surface a
// transient UV-change notification.
func (t *Timer) UpdateUVIndex(newUV int) (UVChange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if newUV < 0 {
		newUV = 0
	}
	oldUV := t.currentUV
	if newUV == oldUV {
		t.checkExceededLocked(t.now())
		return UVChange{}, false
	}

	if newUV == 0 {
		// No UV means no session: pause first, then force NotStarted.
		if t.state == StateRunning {
			t.flushSegmentLocked(t.now())
			t.state = StatePaused
		}
		t.currentUV = 0
		t.resetLocked()
		return UVChange{OldUV: oldUV, NewUV: 0, BudgetSeconds: InfiniteExposure}, false
	}

	t.currentUV = newUV
	newBudget := BurnBudgetSeconds(newUV)

	if t.state != StateRunning {
		return UVChange{OldUV: oldUV, NewUV: newUV, BudgetSeconds: newBudget}, false
	}

	now := t.now()
	oldBudget := BurnBudgetSeconds(oldUV)
	t.flushSegmentLocked(now)

	if oldBudget != InfiniteExposure && oldBudget > 0 {
		consumed := t.totalExposure / float64(oldBudget)
		t.totalExposure = consumed * float64(newBudget)
	}
	t.segmentStart = now
	t.checkExceededLocked(now)

	change := UVChange{
		OldUV:             oldUV,
		NewUV:             newUV,
		ConvertedExposure: t.totalExposure,
		BudgetSeconds:     newBudget,
		RemainingSeconds:  float64(newBudget) - t.totalExposure,
	}
	if change.RemainingSeconds < 0 {
		change.RemainingSeconds = 0
	}
	return change, true
}

// Tick recomputes elapsed and exceeded state and detects sunscreen
// countdown expiry. Each tick references wall-clock time, not tick
// count, so missed or delayed ticks self-correct.
func (t *Timer) Tick() TickResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var res TickResult

	if t.state == StateSunscreenApplied && t.sunscreen != nil && !now.Before(t.sunscreen.ReapplyAt) {
		t.sunscreen.Active = false
		t.state = StatePaused
		res.SunscreenExpired = true
	}

	res.Exceeded = t.checkExceededLocked(now)
	res.State = t.state
	return res
}

// CurrentUV returns the most recently observed UV index.
func (t *Timer) CurrentUV() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentUV
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TotalExposureSeconds returns the accumulated flushed exposure.
func (t *Timer) TotalExposureSeconds() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalExposure
}

// Snapshot captures the read-only view handed to presentation surfaces.
// The risk level is supplied by the caller, which owns the latest
// assessment.
func (t *Timer) Snapshot(level risk.Level) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	elapsed := t.elapsedLocked(now)
	budget := BurnBudgetSeconds(t.currentUV)

	var sunscreenRemaining float64
	if t.sunscreen != nil && t.sunscreen.Active {
		if r := t.sunscreen.ReapplyAt.Sub(now).Seconds(); r > 0 {
			sunscreenRemaining = r
		}
	}

	progress := 0.0
	if budget != InfiniteExposure && budget > 0 {
		progress = (t.totalExposure + elapsed) / float64(budget)
		if progress > 1 {
			progress = 1
		}
	}

	return Snapshot{
		UVIndex:                   t.currentUV,
		ElapsedSeconds:            elapsed,
		TotalExposureSeconds:      t.totalExposure,
		TimeToBurnSeconds:         budget,
		State:                     t.state,
		SunscreenRemainingSeconds: sunscreenRemaining,
		RiskLevel:                 level,
		ExposureProgress:          progress,
		CapturedAt:                now,
	}
}

// flushSegmentLocked folds the running segment into the total. Must be
// called while Running (elapsed is zero otherwise).
func (t *Timer) flushSegmentLocked(now time.Time) {
	t.totalExposure += t.elapsedLocked(now)
	t.segmentStart = now
}

func (t *Timer) elapsedLocked(now time.Time) float64 {
	if t.state != StateRunning || t.segmentStart.IsZero() {
		return 0
	}
	if e := now.Sub(t.segmentStart).Seconds(); e > 0 {
		return e
	}
	return 0
}

// checkExceededLocked transitions to Exceeded the instant accumulated
// plus running exposure reaches the burn budget. Returns true only on
// the transition itself.
func (t *Timer) checkExceededLocked(now time.Time) bool {
	if t.state == StateExceeded || t.state == StateNotStarted {
		return false
	}
	budget := BurnBudgetSeconds(t.currentUV)
	if budget == InfiniteExposure {
		return false
	}
	if t.totalExposure+t.elapsedLocked(now) >= float64(budget) {
		t.flushSegmentLocked(now)
		t.state = StateExceeded
		return true
	}
	return false
}
