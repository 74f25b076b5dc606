package environment

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClampsOutOfRangeInputs(t *testing.T) {
	m := New(-500, 140,
		Snow{DepthCm: -3, CoveragePct: 250, AgeDays: -1},
		Water{DistanceMeters: -20, BodyType: WaterLake, Size: WaterSizeMedium},
		TerrainCoastal,
		Season{Name: SeasonSummer, DayOfYear: 400},
	)

	require.Equal(t, 0.0, m.AltitudeMeters)
	require.Equal(t, 100.0, m.CloudCoverPct)
	require.Equal(t, 0.0, m.Snow.DepthCm)
	require.Equal(t, 100.0, m.Snow.CoveragePct)
	require.Equal(t, 0, m.Snow.AgeDays)
	require.True(t, math.IsInf(m.Water.DistanceMeters, 1), "negative distance should clamp to no water")
	require.Equal(t, 366, m.Season.DayOfYear)
}

func TestNewClampsNaN(t *testing.T) {
	nan := math.NaN()
	m := New(nan, nan,
		Snow{DepthCm: nan, CoveragePct: nan, Type: SnowFresh},
		Water{DistanceMeters: nan, BodyType: WaterOcean, Size: WaterSizeLarge},
		TerrainUnknown,
		Season{Name: SeasonWinter, DayOfYear: 10},
	)

	require.Equal(t, 0.0, m.AltitudeMeters)
	require.Equal(t, 0.0, m.CloudCoverPct)
	require.Equal(t, 0.0, m.Snow.CoveragePct)
	require.True(t, math.IsInf(m.Water.DistanceMeters, 1))
}

func TestNewFillsDefaults(t *testing.T) {
	m := New(0, 0, Snow{}, Water{BodyType: WaterNone}, "", Season{})

	require.Equal(t, SnowNone, m.Snow.Type)
	require.Equal(t, TerrainUnknown, m.Terrain)
	require.Equal(t, SeasonUnknown, m.Season.Name)
	require.Equal(t, 1, m.Season.DayOfYear)
	require.True(t, math.IsInf(m.Water.DistanceMeters, 1))
}

func TestFactorTableRanges(t *testing.T) {
	for _, st := range []SnowType{SnowNone, SnowFresh, SnowPacked, SnowMelting, SnowIcy} {
		f := st.ReflectionFactor()
		require.GreaterOrEqual(t, f, 0.0, "snow %s", st)
		require.LessOrEqual(t, f, 0.8, "snow %s", st)
	}
	for _, wt := range []WaterBodyType{WaterNone, WaterOcean, WaterSea, WaterLake, WaterRiver, WaterStream, WaterPond, WaterPool} {
		f := wt.ReflectionFactor()
		require.GreaterOrEqual(t, f, 0.0, "water %s", wt)
		require.LessOrEqual(t, f, 0.25, "water %s", wt)
	}
	for _, ws := range []WaterSize{WaterSizeSmall, WaterSizeMedium, WaterSizeLarge, WaterSizeMassive} {
		m := ws.Multiplier()
		require.GreaterOrEqual(t, m, 0.5, "size %s", ws)
		require.LessOrEqual(t, m, 1.25, "size %s", ws)
	}
	for _, tr := range []Terrain{TerrainUnknown, TerrainCoastal, TerrainMountainous, TerrainUrban, TerrainRural, TerrainDesert, TerrainForest, TerrainGrassland, TerrainArctic} {
		m := tr.Multiplier()
		require.GreaterOrEqual(t, m, 0.95, "terrain %s", tr)
		require.LessOrEqual(t, m, 1.20, "terrain %s", tr)
	}
	for _, sn := range []SeasonName{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonUnknown} {
		m := sn.UVMultiplier()
		require.GreaterOrEqual(t, m, 0.5, "season %s", sn)
		require.LessOrEqual(t, m, 1.0, "season %s", sn)
	}
}

func TestSeasonFor(t *testing.T) {
	cases := []struct {
		month time.Month
		want  SeasonName
	}{
		{time.January, SeasonWinter},
		{time.April, SeasonSpring},
		{time.July, SeasonSummer},
		{time.October, SeasonAutumn},
		{time.December, SeasonWinter},
	}
	for _, tc := range cases {
		at := time.Date(2025, tc.month, 15, 12, 0, 0, 0, time.UTC)
		s := SeasonFor(at)
		require.Equal(t, tc.want, s.Name, "month %s", tc.month)
		require.Equal(t, at.YearDay(), s.DayOfYear)
	}
}

func TestClearIsNeutral(t *testing.T) {
	m := Clear()
	require.Equal(t, 0.0, m.AltitudeMeters)
	require.Equal(t, 0.0, m.CloudCoverPct)
	require.Equal(t, 0.0, m.Snow.CoveragePct)
	require.Equal(t, 1.0, m.Terrain.Multiplier())
	require.Equal(t, 1.0, m.Season.Name.UVMultiplier())
	require.True(t, math.IsInf(m.Water.DistanceMeters, 1))
}
