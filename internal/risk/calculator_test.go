package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/environment"
)

func TestAdjustedUVIdentityOnNeutralEnvironment(t *testing.T) {
	env := environment.Clear()
	for uv := 0; uv <= 12; uv++ {
		require.Equal(t, uv, AdjustedUV(uv, env), "uv=%d", uv)
	}
}

func TestAdjustedUVClampsNegativeBase(t *testing.T) {
	require.Equal(t, 0, AdjustedUV(-4, environment.Clear()))
}

func TestAdjustedUVAltitude(t *testing.T) {
	env := environment.Clear()
	env.AltitudeMeters = 2000

	// x1.2 at 2km: 10% per kilometer.
	require.Equal(t, 12, AdjustedUV(10, env))
}

func TestAdjustedUVCloudDampeningBands(t *testing.T) {
	cases := []struct {
		coverage float64
		want     int
	}{
		{0, 10},
		{9.9, 10},
		{20, 9},  // x0.90
		{40, 8},  // x0.75
		{60, 6},  // x0.60
		{80, 5},  // x0.45 -> 4.5 rounds to 5
		{95, 3},  // x0.30
		{100, 3}, // overcast still transmits UV
	}
	for _, tc := range cases {
		env := environment.Clear()
		env.CloudCoverPct = tc.coverage
		require.Equal(t, tc.want, AdjustedUV(10, env), "coverage=%v", tc.coverage)
	}
}

func TestAdjustedUVSnowCoverageMonotonic(t *testing.T) {
	prev := -1
	for coverage := 1.0; coverage <= 100; coverage++ {
		env := environment.Clear()
		env.Snow = environment.Snow{CoveragePct: coverage, Type: environment.SnowFresh}
		adj := AdjustedUV(8, env)
		require.GreaterOrEqual(t, adj, prev, "coverage=%v", coverage)
		prev = adj
	}
	// Full fresh coverage is the +80% ceiling.
	env := environment.Clear()
	env.Snow = environment.Snow{CoveragePct: 100, Type: environment.SnowFresh}
	require.Equal(t, 13, AdjustedUV(8, env)) // 8 * (1 + 0.8*0.8) = 13.12
}

func TestAdjustedUVWaterOnlyWithinRange(t *testing.T) {
	near := environment.Clear()
	near.Water = environment.Water{DistanceMeters: 50, BodyType: environment.WaterOcean, Size: environment.WaterSizeMassive}

	far := environment.Clear()
	far.Water = environment.Water{DistanceMeters: 1000, BodyType: environment.WaterOcean, Size: environment.WaterSizeMassive}

	require.Greater(t, AdjustedUV(8, near), 8)
	require.Equal(t, 8, AdjustedUV(8, far), "water at 1km or beyond does not contribute")

	// Ocean + massive at zero distance would be 0.25*1.25 = 0.3125; the
	// water bonus is capped at +25%.
	atShore := environment.Clear()
	atShore.Water = environment.Water{DistanceMeters: 0, BodyType: environment.WaterOcean, Size: environment.WaterSizeMassive}
	require.Equal(t, 10, AdjustedUV(8, atShore)) // 8 * 1.25
}

func TestScoreCappedAtOne(t *testing.T) {
	env := environment.New(4000, 0,
		environment.Snow{CoveragePct: 100, Type: environment.SnowFresh},
		environment.Water{DistanceMeters: 10, BodyType: environment.WaterOcean, Size: environment.WaterSizeMassive},
		environment.TerrainMountainous,
		environment.Season{Name: environment.SeasonSummer, DayOfYear: 180},
	)
	score := Score(30, env)
	require.LessOrEqual(t, score, 1.0)
	require.Equal(t, LevelExtreme, LevelForScore(score))
}

func TestScoreUVTermDominates(t *testing.T) {
	env := environment.Clear()
	// UV term caps at 0.6 from uv 11 up, environment term is zero.
	require.InDelta(t, 0.6, Score(11, env), 1e-9)
	require.InDelta(t, 0.6, Score(20, env), 1e-9)
	require.InDelta(t, 6.0/11.0, Score(6, env), 1e-9)
}

func TestLevelBreakpoints(t *testing.T) {
	cases := []struct {
		score float64
		want  Level
	}{
		{0.0, LevelVeryLow},
		{0.19, LevelVeryLow},
		{0.2, LevelLow},
		{0.39, LevelLow},
		{0.4, LevelModerate},
		{0.59, LevelModerate},
		{0.6, LevelHigh},
		{0.79, LevelHigh},
		{0.8, LevelVeryHigh},
		{0.89, LevelVeryHigh},
		{0.9, LevelExtreme},
		{1.0, LevelExtreme},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, LevelForScore(tc.score), "score=%v", tc.score)
	}
}

// Winter alpine scenario: fresh snow at altitude in arctic terrain must
// land well above the bare uv=8 baseline through the documented
// multiplicative and additive formulas.
func TestEvaluateWinterAlpineScenario(t *testing.T) {
	env := environment.New(3000, 0,
		environment.Snow{CoveragePct: 80, Type: environment.SnowFresh, HasRecentFall: true},
		environment.Water{BodyType: environment.WaterNone, DistanceMeters: math.Inf(1)},
		environment.TerrainArctic,
		environment.Season{Name: environment.SeasonWinter, DayOfYear: 20},
	)

	baseline := Evaluate(8, environment.Clear(), time.Now())
	a := Evaluate(8, env, time.Now())

	// (1 + 0.3) with snow +0.512, terrain x1.15, winter x0.6 => x1.2503.
	require.Equal(t, 10, a.AdjustedUVIndex)
	require.Greater(t, a.AdjustedUVIndex, baseline.AdjustedUVIndex)

	// 0.6 uv term + 0.1 altitude + 0.128 snow + 0.05 terrain.
	require.InDelta(t, 0.878, a.Score, 1e-9)
	require.Greater(t, a.Score, baseline.Score)
	require.Contains(t, []Level{LevelHigh, LevelVeryHigh}, a.Level)
}

func TestEvaluateDeterministic(t *testing.T) {
	env := environment.New(2200, 30,
		environment.Snow{CoveragePct: 40, Type: environment.SnowPacked},
		environment.Water{DistanceMeters: 200, BodyType: environment.WaterLake, Size: environment.WaterSizeLarge},
		environment.TerrainMountainous,
		environment.Season{Name: environment.SeasonSpring, DayOfYear: 100},
	)
	at := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

	a := Evaluate(7, env, at)
	b := Evaluate(7, env, at)
	require.Equal(t, a, b)
}

func TestFactorsGeneratedFromThresholds(t *testing.T) {
	env := environment.New(3000, 60,
		environment.Snow{CoveragePct: 95, Type: environment.SnowFresh},
		environment.Water{DistanceMeters: 100, BodyType: environment.WaterOcean, Size: environment.WaterSizeLarge},
		environment.TerrainArctic,
		environment.Season{Name: environment.SeasonWinter, DayOfYear: 30},
	)
	a := Evaluate(8, env, time.Now())

	types := make(map[FactorType]Factor)
	for _, f := range a.Factors {
		types[f.Type] = f
		require.GreaterOrEqual(t, f.Impact, 0.0)
		require.LessOrEqual(t, f.Impact, 1.0)
		require.NotEmpty(t, f.Mitigation)
	}

	require.Contains(t, types, FactorAltitude)
	require.Contains(t, types, FactorSnowReflection)
	require.Contains(t, types, FactorWaterReflection)
	require.Contains(t, types, FactorCloudCover)
	require.Equal(t, SeverityHigh, types[FactorAltitude].Severity)
	require.Equal(t, SeverityExtreme, types[FactorSnowReflection].Severity)
}

func TestRecommendationsScaleWithLevel(t *testing.T) {
	low := buildRecommendations(environment.Clear(), LevelVeryLow)
	require.Empty(t, low)

	extreme := buildRecommendations(environment.Clear(), LevelExtreme)
	var hasCriticalSunscreen, hasReschedule bool
	for _, r := range extreme {
		if r.Type == RecommendSunscreen && r.Priority == PriorityCritical {
			hasCriticalSunscreen = true
		}
		if r.Type == RecommendReschedule {
			hasReschedule = true
		}
		require.NotEmpty(t, r.ActionItems)
	}
	require.True(t, hasCriticalSunscreen)
	require.True(t, hasReschedule)
}
