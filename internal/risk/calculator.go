// Package risk converts a raw UV index plus an environmental model into
// an adjusted UV index, a [0,1] risk score and the derived factor and
// recommendation lists. Everything here is pure: same inputs, same
// outputs, no state. Out-of-range inputs are clamped, never rejected.
package risk

import (
	"math"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/environment"
)

const (
	// UV magnitude contributes at most 60% of the risk scale; situational
	// hazards explain the remaining 40%.
	maxUVScore          = 0.6
	maxEnvironmentScore = 0.4

	uvScoreReference = 11.0

	altitudeFactorPerKm = 0.1
	snowBonusScale      = 0.8
	waterBonusCap       = 0.25
	waterRangeMeters    = 1000.0

	maxAltitudeScore = 0.10
	maxSnowScore     = 0.15
	maxWaterScore    = 0.10
	maxTerrainScore  = 0.05
)

// Assessment is the product of a single evaluation. It is created fresh
// per call and never mutated afterwards.
type Assessment struct {
	BaseUVIndex     int              `json:"base_uv_index"`
	AdjustedUVIndex int              `json:"adjusted_uv_index"`
	Score           float64          `json:"risk_score"`
	Level           Level            `json:"risk_level"`
	Factors         []Factor         `json:"risk_factors"`
	Recommendations []Recommendation `json:"recommendations"`
	EvaluatedAt     time.Time        `json:"evaluated_at"`
}

// Evaluate produces a full assessment for a base UV index and environment.
func Evaluate(baseUV int, env environment.Model, at time.Time) Assessment {
	adjusted := AdjustedUV(baseUV, env)
	score := Score(adjusted, env)
	level := LevelForScore(score)

	return Assessment{
		BaseUVIndex:     clampUV(baseUV),
		AdjustedUVIndex: adjusted,
		Score:           score,
		Level:           level,
		Factors:         buildFactors(env, adjusted),
		Recommendations: buildRecommendations(env, level),
		EvaluatedAt:     at,
	}
}

// AdjustedUV applies the ordered multiplicative adjustment to a base UV
// index: altitude, cloud dampening, snow and water reflection bonuses,
// terrain, season. The result is rounded to the nearest integer and is
// never negative.
func AdjustedUV(baseUV int, env environment.Model) int {
	base := float64(clampUV(baseUV))

	m := 1 + (env.AltitudeMeters/1000)*altitudeFactorPerKm
	m *= cloudDampening(env.CloudCoverPct)
	m += snowBonus(env.Snow)
	m += waterBonus(env.Water)
	m *= env.Terrain.Multiplier()
	m *= env.Season.Name.UVMultiplier()

	adjusted := int(math.Round(base * m))
	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted
}

// Score combines the UV magnitude term (capped at 0.6) with the
// environmental hazard term (capped at 0.4). The total never exceeds 1.
func Score(adjustedUV int, env environment.Model) float64 {
	uvTerm := math.Min(maxUVScore, float64(clampUV(adjustedUV))/uvScoreReference)
	total := uvTerm + EnvironmentScore(env)
	if total > 1 {
		return 1
	}
	return total
}

// EnvironmentScore sums the capped situational sub-scores: altitude,
// snow, water and the excess of the terrain multiplier over 1.0, with
// the sum itself capped at 0.4.
func EnvironmentScore(env environment.Model) float64 {
	s := altitudeScore(env.AltitudeMeters)
	s += snowScore(env.Snow)
	s += waterScore(env.Water)
	s += terrainScore(env.Terrain)
	return math.Min(maxEnvironmentScore, s)
}

// cloudDampening maps cloud coverage onto one of six attenuation bands.
// Heavy overcast attenuates UV but never eliminates it, so the lowest
// band stays at 0.30.
func cloudDampening(coveragePct float64) float64 {
	switch {
	case coveragePct < 10:
		return 1.00
	case coveragePct < 30:
		return 0.90
	case coveragePct < 50:
		return 0.75
	case coveragePct < 70:
		return 0.60
	case coveragePct < 90:
		return 0.45
	default:
		return 0.30
	}
}

// snowBonus is the additive multiplier contribution of snow reflection,
// up to +80% for full coverage of fresh snow.
func snowBonus(snow environment.Snow) float64 {
	if snow.CoveragePct <= 0 {
		return 0
	}
	return snow.Type.ReflectionFactor() * (snow.CoveragePct / 100) * snowBonusScale
}

// waterBonus is the additive multiplier contribution of water
// reflection, only applied within one kilometer and capped at +25%.
func waterBonus(water environment.Water) float64 {
	if water.BodyType == environment.WaterNone || water.DistanceMeters >= waterRangeMeters {
		return 0
	}
	proximity := math.Max(0.1, 1-water.DistanceMeters/waterRangeMeters)
	bonus := water.BodyType.ReflectionFactor() * water.Size.Multiplier() * proximity
	return math.Min(waterBonusCap, bonus)
}

func altitudeScore(altitudeMeters float64) float64 {
	return math.Min(maxAltitudeScore, (altitudeMeters/1000)*0.04)
}

func snowScore(snow environment.Snow) float64 {
	if snow.CoveragePct <= 0 {
		return 0
	}
	return math.Min(maxSnowScore, snow.Type.ReflectionFactor()*(snow.CoveragePct/100)*0.2)
}

func waterScore(water environment.Water) float64 {
	if water.BodyType == environment.WaterNone || water.DistanceMeters >= waterRangeMeters {
		return 0
	}
	proximity := math.Max(0.1, 1-water.DistanceMeters/waterRangeMeters)
	return math.Min(maxWaterScore, water.BodyType.ReflectionFactor()*water.Size.Multiplier()*proximity*0.4)
}

func terrainScore(terrain environment.Terrain) float64 {
	excess := terrain.Multiplier() - 1.0
	if excess <= 0 {
		return 0
	}
	return math.Min(maxTerrainScore, excess)
}

func clampUV(uv int) int {
	if uv < 0 {
		return 0
	}
	return uv
}
