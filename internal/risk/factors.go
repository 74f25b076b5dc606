package risk

import (
	"github.com/STOmaha/Time-to-Burn-sub002/internal/environment"
)

// Severity grades an individual risk factor.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityExtreme  Severity = "extreme"
)

// FactorType names the situational hazard a factor describes.
type FactorType string

const (
	FactorUVIndex         FactorType = "uv_index"
	FactorAltitude        FactorType = "altitude"
	FactorSnowReflection  FactorType = "snow_reflection"
	FactorWaterReflection FactorType = "water_reflection"
	FactorTerrain         FactorType = "terrain"
	FactorCloudCover      FactorType = "cloud_cover"
)

// Factor is a single situational hazard with a normalized impact and a
// mitigation hint. Factors are generated per assessment, never stored.
type Factor struct {
	Type       FactorType `json:"type"`
	Severity   Severity   `json:"severity"`
	Impact     float64    `json:"impact"`
	Mitigation string     `json:"mitigation"`
}

// RecommendationType names a protective action category.
type RecommendationType string

const (
	RecommendSunscreen  RecommendationType = "sunscreen"
	RecommendClothing   RecommendationType = "protective_clothing"
	RecommendShade      RecommendationType = "seek_shade"
	RecommendEyewear    RecommendationType = "eye_protection"
	RecommendHydration  RecommendationType = "hydration"
	RecommendLimitTime  RecommendationType = "limit_exposure"
	RecommendReschedule RecommendationType = "reschedule_activity"
)

// Priority orders recommendations for presentation and alerting.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Recommendation is a protective action with concrete steps.
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Priority    Priority           `json:"priority"`
	ActionItems []string           `json:"action_items"`
}

// buildFactors generates the ordered risk-factor list from fixed
// threshold rules on the environment and the adjusted UV index. Same
// inputs always produce the same list.
func buildFactors(env environment.Model, adjustedUV int) []Factor {
	var factors []Factor

	switch {
	case adjustedUV >= 11:
		factors = append(factors, Factor{
			Type:       FactorUVIndex,
			Severity:   SeverityExtreme,
			Impact:     1.0,
			Mitigation: "Avoid sun exposure; unprotected skin burns in minutes.",
		})
	case adjustedUV >= 8:
		factors = append(factors, Factor{
			Type:       FactorUVIndex,
			Severity:   SeverityHigh,
			Impact:     float64(adjustedUV) / uvScoreReference,
			Mitigation: "Minimize midday exposure and use SPF 50+ sunscreen.",
		})
	case adjustedUV >= 6:
		factors = append(factors, Factor{
			Type:       FactorUVIndex,
			Severity:   SeverityModerate,
			Impact:     float64(adjustedUV) / uvScoreReference,
			Mitigation: "Use SPF 30+ sunscreen and reapply every two hours.",
		})
	}

	if env.AltitudeMeters > 1500 {
		sev := SeverityModerate
		if env.AltitudeMeters > 2500 {
			sev = SeverityHigh
		}
		factors = append(factors, Factor{
			Type:       FactorAltitude,
			Severity:   sev,
			Impact:     altitudeScore(env.AltitudeMeters) / maxAltitudeScore,
			Mitigation: "UV intensifies roughly 10% per kilometer of elevation; protect exposed skin even in cool air.",
		})
	}

	if env.Snow.CoveragePct > 0 && env.Snow.Type.ReflectionFactor() > 0 {
		sev := SeverityModerate
		if env.Snow.Type == environment.SnowFresh && env.Snow.CoveragePct >= 60 {
			sev = SeverityHigh
		}
		if env.Snow.Type == environment.SnowFresh && env.Snow.CoveragePct >= 90 {
			sev = SeverityExtreme
		}
		factors = append(factors, Factor{
			Type:       FactorSnowReflection,
			Severity:   sev,
			Impact:     snowScore(env.Snow) / maxSnowScore,
			Mitigation: "Snow reflects UV onto skin the sun does not reach directly; cover the underside of chin and ears.",
		})
	}

	if w := waterScore(env.Water); w > 0 {
		sev := SeverityModerate
		if w >= 0.075 {
			sev = SeverityHigh
		}
		factors = append(factors, Factor{
			Type:       FactorWaterReflection,
			Severity:   sev,
			Impact:     w / maxWaterScore,
			Mitigation: "Water reflects UV; reapply water-resistant sunscreen after swimming.",
		})
	}

	if excess := env.Terrain.Multiplier() - 1.0; excess > 0.05 {
		sev := SeverityModerate
		if excess >= 0.15 {
			sev = SeverityHigh
		}
		factors = append(factors, Factor{
			Type:       FactorTerrain,
			Severity:   sev,
			Impact:     terrainScore(env.Terrain) / maxTerrainScore,
			Mitigation: "Open or reflective terrain raises effective UV above the forecast index.",
		})
	}

	if env.CloudCoverPct >= 50 {
		factors = append(factors, Factor{
			Type:       FactorCloudCover,
			Severity:   SeverityLow,
			Impact:     1 - cloudDampening(env.CloudCoverPct),
			Mitigation: "Cloud cover reduces but does not eliminate UV; protection is still needed.",
		})
	}

	return factors
}

// buildRecommendations generates the ordered recommendation list keyed
// off the risk level and environment thresholds.
func buildRecommendations(env environment.Model, level Level) []Recommendation {
	var recs []Recommendation

	sunscreenPriority := PriorityMedium
	if level.AtLeast(LevelHigh) {
		sunscreenPriority = PriorityHigh
	}
	if level.AtLeast(LevelExtreme) {
		sunscreenPriority = PriorityCritical
	}
	if level.AtLeast(LevelLow) {
		recs = append(recs, Recommendation{
			Type:     RecommendSunscreen,
			Priority: sunscreenPriority,
			ActionItems: []string{
				"Apply broad-spectrum SPF 30+ sunscreen 15 minutes before going out",
				"Reapply every two hours, or immediately after swimming or sweating",
			},
		})
	}

	if level.AtLeast(LevelHigh) {
		recs = append(recs, Recommendation{
			Type:     RecommendClothing,
			Priority: PriorityHigh,
			ActionItems: []string{
				"Wear a wide-brimmed hat and tightly woven long sleeves",
			},
		})
	}

	if level.AtLeast(LevelVeryHigh) {
		recs = append(recs, Recommendation{
			Type:     RecommendShade,
			Priority: PriorityCritical,
			ActionItems: []string{
				"Stay in shade between 10am and 4pm",
				"Plan outdoor activity for early morning or evening",
			},
		})
	}

	if env.Snow.CoveragePct > 0 || waterScore(env.Water) > 0 {
		recs = append(recs, Recommendation{
			Type:     RecommendEyewear,
			Priority: PriorityHigh,
			ActionItems: []string{
				"Wear UV-blocking sunglasses; reflected UV can burn the cornea",
			},
		})
	}

	if level.AtLeast(LevelModerate) {
		recs = append(recs, Recommendation{
			Type:     RecommendHydration,
			Priority: PriorityLow,
			ActionItems: []string{
				"Drink water regularly while outdoors",
			},
		})
	}

	if level.AtLeast(LevelExtreme) {
		recs = append(recs, Recommendation{
			Type:     RecommendReschedule,
			Priority: PriorityCritical,
			ActionItems: []string{
				"Postpone non-essential outdoor activity until the UV index falls",
			},
		})
	}

	return recs
}
