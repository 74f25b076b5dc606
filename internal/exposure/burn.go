package exposure

import "math"

// InfiniteExposure is the burn-budget sentinel for UV 0: no meaningful
// burn risk, the clock must never run out.
const InfiniteExposure = math.MaxInt32

// extremeTierFloorSeconds is the budget floor for UV 12 and above.
const extremeTierFloorSeconds = 5

// BurnBudgetSeconds returns the maximum continuous exposure, in seconds,
// before the modeled burn threshold at the given UV index. Linear from
// 60 at UV 1 down to 5 at UV 12, floored at 5 for anything higher.
//
// Every consumer of a burn budget (the timer, snapshots, display
// legends) must go through this one function so that displayed and
// enforced thresholds can never drift apart.
func BurnBudgetSeconds(uv int) int {
	if uv <= 0 {
		return InfiniteExposure
	}
	if uv >= 12 {
		return extremeTierFloorSeconds
	}
	return 60 - int(math.Round(float64(uv-1)*55.0/11.0))
}
