// Package environment defines the immutable value types describing the
// surroundings of a UV observation: altitude, snow cover, nearby water,
// terrain and season. All reflection factors and multipliers are fixed
// tables; they are never derived at runtime.
package environment

import (
	"math"
	"time"
)

// SnowType classifies ground snow for UV reflection purposes.
type SnowType string

const (
	SnowNone    SnowType = "none"
	SnowFresh   SnowType = "fresh"
	SnowPacked  SnowType = "packed"
	SnowMelting SnowType = "melting"
	SnowIcy     SnowType = "icy"
)

// ReflectionFactor returns the fixed UV reflection factor for the snow type.
func (t SnowType) ReflectionFactor() float64 {
	switch t {
	case SnowFresh:
		return 0.80
	case SnowPacked:
		return 0.65
	case SnowIcy:
		return 0.55
	case SnowMelting:
		return 0.45
	default:
		return 0.0
	}
}

// WaterBodyType classifies a nearby body of water.
type WaterBodyType string

const (
	WaterNone   WaterBodyType = "none"
	WaterOcean  WaterBodyType = "ocean"
	WaterSea    WaterBodyType = "sea"
	WaterLake   WaterBodyType = "lake"
	WaterRiver  WaterBodyType = "river"
	WaterStream WaterBodyType = "stream"
	WaterPond   WaterBodyType = "pond"
	WaterPool   WaterBodyType = "pool"
)

// ReflectionFactor returns the fixed UV reflection factor for the body type.
func (t WaterBodyType) ReflectionFactor() float64 {
	switch t {
	case WaterOcean:
		return 0.25
	case WaterSea:
		return 0.22
	case WaterPool:
		return 0.20
	case WaterLake:
		return 0.15
	case WaterRiver:
		return 0.12
	case WaterPond:
		return 0.10
	case WaterStream:
		return 0.08
	default:
		return 0.0
	}
}

// WaterSize classifies the extent of a body of water.
type WaterSize string

const (
	WaterSizeSmall   WaterSize = "small"
	WaterSizeMedium  WaterSize = "medium"
	WaterSizeLarge   WaterSize = "large"
	WaterSizeMassive WaterSize = "massive"
)

// Multiplier returns the fixed size multiplier applied to water reflection.
func (s WaterSize) Multiplier() float64 {
	switch s {
	case WaterSizeSmall:
		return 0.50
	case WaterSizeMedium:
		return 0.75
	case WaterSizeMassive:
		return 1.25
	default: // large is the reference size
		return 1.0
	}
}

// Terrain classifies the ground around the observation point.
type Terrain string

const (
	TerrainUnknown     Terrain = "unknown"
	TerrainCoastal     Terrain = "coastal"
	TerrainMountainous Terrain = "mountainous"
	TerrainUrban       Terrain = "urban"
	TerrainRural       Terrain = "rural"
	TerrainDesert      Terrain = "desert"
	TerrainForest      Terrain = "forest"
	TerrainGrassland   Terrain = "grassland"
	TerrainArctic      Terrain = "arctic"
)

// Multiplier returns the fixed terrain multiplier for adjusted UV.
func (t Terrain) Multiplier() float64 {
	switch t {
	case TerrainMountainous:
		return 1.20
	case TerrainDesert:
		return 1.15
	case TerrainArctic:
		return 1.15
	case TerrainCoastal:
		return 1.10
	case TerrainGrassland:
		return 1.05
	case TerrainUrban:
		return 0.95
	case TerrainForest:
		return 0.95
	default: // unknown, rural
		return 1.0
	}
}

// SeasonName names the meteorological season of the observation.
type SeasonName string

const (
	SeasonSpring  SeasonName = "spring"
	SeasonSummer  SeasonName = "summer"
	SeasonAutumn  SeasonName = "autumn"
	SeasonWinter  SeasonName = "winter"
	SeasonUnknown SeasonName = "unknown"
)

// UVMultiplier returns the fixed seasonal UV multiplier.
func (s SeasonName) UVMultiplier() float64 {
	switch s {
	case SeasonSummer:
		return 1.0
	case SeasonSpring:
		return 0.80
	case SeasonAutumn:
		return 0.70
	case SeasonWinter:
		return 0.60
	default:
		return 0.90
	}
}

// Snow describes snow cover at the observation point.
type Snow struct {
	HasRecentFall bool
	DepthCm       float64
	CoveragePct   float64
	AgeDays       int
	Type          SnowType
}

// Water describes the nearest body of water. DistanceMeters is +Inf
// when there is no water nearby.
type Water struct {
	DistanceMeters float64
	BodyType       WaterBodyType
	Size           WaterSize
}

// Season carries the season name and the day of year it was derived from.
type Season struct {
	Name      SeasonName
	DayOfYear int
}

// Model is an immutable description of the environment for a single
// assessment. Construct it with New so that out-of-range inputs are
// clamped rather than rejected.
type Model struct {
	AltitudeMeters float64
	CloudCoverPct  float64
	Snow           Snow
	Water          Water
	Terrain        Terrain
	Season         Season
}

// New builds a Model, clamping every numeric field into its valid range.
// Negative or NaN values clamp to zero; percentages clamp to [0,100].
func New(altitudeMeters, cloudCoverPct float64, snow Snow, water Water, terrain Terrain, season Season) Model {
	snow.DepthCm = clampNonNegative(snow.DepthCm)
	snow.CoveragePct = clampPercent(snow.CoveragePct)
	if snow.AgeDays < 0 {
		snow.AgeDays = 0
	}
	if snow.Type == "" {
		snow.Type = SnowNone
	}

	if water.BodyType == "" {
		water.BodyType = WaterNone
	}
	if water.Size == "" {
		water.Size = WaterSizeLarge
	}
	if water.BodyType == WaterNone || math.IsNaN(water.DistanceMeters) || water.DistanceMeters < 0 {
		water.DistanceMeters = math.Inf(1)
	}

	if terrain == "" {
		terrain = TerrainUnknown
	}
	if season.Name == "" {
		season.Name = SeasonUnknown
	}
	if season.DayOfYear < 1 {
		season.DayOfYear = 1
	} else if season.DayOfYear > 366 {
		season.DayOfYear = 366
	}

	return Model{
		AltitudeMeters: clampNonNegative(altitudeMeters),
		CloudCoverPct:  clampPercent(cloudCoverPct),
		Snow:           snow,
		Water:          water,
		Terrain:        terrain,
		Season:         season,
	}
}

// Clear returns a neutral model: sea level, no cloud, no snow, no water,
// unknown terrain treated as 1.0, peak season. Adjusting a UV index
// against it is the identity.
func Clear() Model {
	return Model{
		Snow:    Snow{Type: SnowNone},
		Water:   Water{DistanceMeters: math.Inf(1), BodyType: WaterNone, Size: WaterSizeLarge},
		Terrain: TerrainUnknown,
		Season:  Season{Name: SeasonSummer, DayOfYear: 172},
	}
}

// SeasonFor derives the northern-hemisphere meteorological season from a
// point in time.
func SeasonFor(at time.Time) Season {
	day := at.YearDay()
	var name SeasonName
	switch at.Month() {
	case time.March, time.April, time.May:
		name = SeasonSpring
	case time.June, time.July, time.August:
		name = SeasonSummer
	case time.September, time.October, time.November:
		name = SeasonAutumn
	default:
		name = SeasonWinter
	}
	return Season{Name: name, DayOfYear: day}
}

func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
