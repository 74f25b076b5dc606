package exposure

import (
	"math"
	"testing"
)

func TestBurnBudgetFormula(t *testing.T) {
	for uv := 1; uv <= 11; uv++ {
		want := 60 - int(math.Round(float64(uv-1)*55.0/11.0))
		if got := BurnBudgetSeconds(uv); got != want {
			t.Errorf("BurnBudgetSeconds(%d) = %d, want %d", uv, got, want)
		}
	}
}

func TestBurnBudgetEndpoints(t *testing.T) {
	if got := BurnBudgetSeconds(0); got != InfiniteExposure {
		t.Errorf("BurnBudgetSeconds(0) = %d, want infinite sentinel", got)
	}
	if got := BurnBudgetSeconds(-3); got != InfiniteExposure {
		t.Errorf("BurnBudgetSeconds(-3) = %d, want infinite sentinel", got)
	}
	if got := BurnBudgetSeconds(1); got != 60 {
		t.Errorf("BurnBudgetSeconds(1) = %d, want 60", got)
	}
	if got := BurnBudgetSeconds(12); got != 5 {
		t.Errorf("BurnBudgetSeconds(12) = %d, want 5", got)
	}
	if BurnBudgetSeconds(12) != BurnBudgetSeconds(20) {
		t.Error("budget floor must hold for every UV at or above 12")
	}
}

func TestBurnBudgetMonotonicDecrease(t *testing.T) {
	prev := BurnBudgetSeconds(1)
	for uv := 2; uv <= 12; uv++ {
		cur := BurnBudgetSeconds(uv)
		if cur >= prev {
			t.Errorf("budget not strictly decreasing at uv=%d: %d >= %d", uv, cur, prev)
		}
		prev = cur
	}
}
