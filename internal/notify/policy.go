package notify

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// Options configures a notification policy. Zero values mean "use the
// documented default".
type Options struct {
	Enabled              bool
	UVChangeThreshold    int        // minimum adjusted-UV delta for a level-change alert
	MinimumRiskLevel     risk.Level // severity floor for level-change alerts
	EducationalFrequency float64    // probability of a tip when nothing else fired
	QuietHoursEnabled    bool
	QuietStartHour       int // inclusive, local hour 0-23
	QuietEndHour         int // exclusive, local hour 0-23
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Enabled:              true,
		UVChangeThreshold:    2,
		MinimumRiskLevel:     risk.LevelModerate,
		EducationalFrequency: 0.2,
	}
}

func (o Options) normalized() Options {
	if o.UVChangeThreshold <= 0 {
		o.UVChangeThreshold = 2
	}
	if o.MinimumRiskLevel == "" {
		o.MinimumRiskLevel = risk.LevelModerate
	}
	if o.EducationalFrequency < 0 {
		o.EducationalFrequency = 0
	}
	if o.EducationalFrequency > 1 {
		o.EducationalFrequency = 1
	}
	return o
}

// maxRecommendationAlerts caps rule 3 to the top recommendations.
const maxRecommendationAlerts = 2

// Policy evaluates risk assessments into notifications, carrying
// hysteresis state between evaluations. The last observed level and UV
// are updated unconditionally after every evaluation, even when nothing
// fired, so hysteresis is always measured against the most recent
// observed value rather than the last alerted one.
//
// The random draw behind the educational tip is injectable so emission
// tests stay deterministic.
type Policy struct {
	mu sync.Mutex

	opts Options

	hasLast        bool
	lastRiskLevel  risk.Level
	lastAdjustedUV int

	rng func() float64
	now func() time.Time
}

// NewPolicy creates a policy with a time-seeded random source.
func NewPolicy(opts Options) *Policy {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Policy{
		opts: opts.normalized(),
		rng:  r.Float64,
		now:  time.Now,
	}
}

// Enabled reports the global notification switch.
func (p *Policy) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.Enabled
}

// InQuietHours reports whether t falls inside the configured window.
// The window may cross midnight (e.g. 22 to 7).
func (p *Policy) InQuietHours(t time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inQuietHoursLocked(t)
}

func (p *Policy) inQuietHoursLocked(t time.Time) bool {
	if !p.opts.QuietHoursEnabled {
		return false
	}
	h := t.Hour()
	start, end := p.opts.QuietStartHour, p.opts.QuietEndHour
	if start == end {
		return false
	}
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// Evaluate applies the emission rules, in order, to a fresh assessment:
//
//  1. risk-level change, gated by the severity floor and UV-delta
//     threshold to avoid chatter at boundary oscillation;
//  2. one alert per high or extreme risk factor;
//  3. the top two high or critical recommendations;
//  4. an educational tip, with fixed probability, only when nothing
//     above fired.
//
// Every rule is independently gated by the enabled switch and quiet
// hours. Hysteresis state updates unconditionally at the end.
func (p *Policy) Evaluate(a risk.Assessment) []*SmartNotification {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var out []*SmartNotification

	if p.opts.Enabled && !p.inQuietHoursLocked(now) {
		out = append(out, p.levelChangeLocked(a, now)...)
		out = append(out, p.factorAlertsLocked(a, now)...)
		out = append(out, p.recommendationAlertsLocked(a, now)...)
		if len(out) == 0 {
			out = append(out, p.educationalTipLocked(a, now)...)
		}
	}

	p.hasLast = true
	p.lastRiskLevel = a.Level
	p.lastAdjustedUV = a.AdjustedUVIndex

	return out
}

func (p *Policy) levelChangeLocked(a risk.Assessment, now time.Time) []*SmartNotification {
	if !p.hasLast || a.Level == p.lastRiskLevel {
		return nil
	}
	if !a.Level.AtLeast(p.opts.MinimumRiskLevel) {
		return nil
	}
	delta := a.AdjustedUVIndex - p.lastAdjustedUV
	if delta < 0 {
		delta = -delta
	}
	if delta < p.opts.UVChangeThreshold {
		return nil
	}

	priority := PriorityNormal
	if a.Level.AtLeast(risk.LevelVeryHigh) {
		priority = PriorityHigh
	}
	if a.Level == risk.LevelExtreme {
		priority = PriorityCritical
	}

	n := newNotification(
		TypeRiskLevelChange,
		fmt.Sprintf("UV risk is now %s", levelLabel(a.Level)),
		fmt.Sprintf("Risk changed from %s to %s (adjusted UV %d).", levelLabel(p.lastRiskLevel), levelLabel(a.Level), a.AdjustedUVIndex),
		priority,
		a.Level,
		a.AdjustedUVIndex,
		now,
	)
	return []*SmartNotification{n}
}

func (p *Policy) factorAlertsLocked(a risk.Assessment, now time.Time) []*SmartNotification {
	var out []*SmartNotification
	for _, f := range a.Factors {
		if f.Severity != risk.SeverityHigh && f.Severity != risk.SeverityExtreme {
			continue
		}
		priority := PriorityHigh
		if f.Severity == risk.SeverityExtreme {
			priority = PriorityCritical
		}
		out = append(out, newNotification(
			TypeEnvironmentalAlert,
			fmt.Sprintf("%s hazard: %s", capitalize(string(f.Severity)), factorLabel(f.Type)),
			f.Mitigation,
			priority,
			a.Level,
			a.AdjustedUVIndex,
			now,
		))
	}
	return out
}

func (p *Policy) recommendationAlertsLocked(a risk.Assessment, now time.Time) []*SmartNotification {
	var out []*SmartNotification
	for _, r := range a.Recommendations {
		if len(out) >= maxRecommendationAlerts {
			break
		}
		if r.Priority != risk.PriorityHigh && r.Priority != risk.PriorityCritical {
			continue
		}
		priority := PriorityNormal
		if r.Priority == risk.PriorityCritical {
			priority = PriorityHigh
		}
		out = append(out, newNotification(
			TypeRecommendation,
			recommendationTitle(r.Type),
			strings.Join(r.ActionItems, " "),
			priority,
			a.Level,
			a.AdjustedUVIndex,
			now,
		))
	}
	return out
}

func (p *Policy) educationalTipLocked(a risk.Assessment, now time.Time) []*SmartNotification {
	if p.opts.EducationalFrequency <= 0 || p.rng() >= p.opts.EducationalFrequency {
		return nil
	}
	// The draw decides whether a tip goes out; the content itself is
	// selected deterministically by the current risk level.
	n := newNotification(
		TypeEducationalTip,
		"Did you know?",
		tipForLevel(a.Level),
		PriorityLow,
		a.Level,
		a.AdjustedUVIndex,
		now,
	)
	return []*SmartNotification{n}
}

// State exposes the hysteresis fields for persistence across restarts.
func (p *Policy) State() PolicyState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PolicyState{
		HasLast:        p.hasLast,
		LastRiskLevel:  p.lastRiskLevel,
		LastAdjustedUV: p.lastAdjustedUV,
	}
}

// Restore reloads persisted hysteresis state.
func (p *Policy) Restore(s PolicyState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasLast = s.HasLast
	p.lastRiskLevel = s.LastRiskLevel
	p.lastAdjustedUV = s.LastAdjustedUV
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func levelLabel(l risk.Level) string {
	return strings.ReplaceAll(string(l), "_", " ")
}

func factorLabel(t risk.FactorType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func recommendationTitle(t risk.RecommendationType) string {
	switch t {
	case risk.RecommendSunscreen:
		return "Apply sunscreen"
	case risk.RecommendClothing:
		return "Cover up"
	case risk.RecommendShade:
		return "Seek shade"
	case risk.RecommendEyewear:
		return "Protect your eyes"
	case risk.RecommendHydration:
		return "Stay hydrated"
	case risk.RecommendLimitTime:
		return "Limit time outdoors"
	case risk.RecommendReschedule:
		return "Reschedule outdoor plans"
	default:
		return "Sun protection"
	}
}

// tipForLevel returns the educational tip for a risk level. One tip per
// level keeps selection reproducible from the same assessment.
func tipForLevel(l risk.Level) string {
	switch l {
	case risk.LevelVeryLow:
		return "Even on low-UV days, snow and water can reflect enough UV to burn."
	case risk.LevelLow:
		return "UV exposure adds up across the day; small doses still count toward skin damage."
	case risk.LevelModerate:
		return "Shade from a tree blocks roughly half of ambient UV; combine it with sunscreen."
	case risk.LevelHigh:
		return "A UV index of 8 burns unprotected skin about twice as fast as an index of 4."
	case risk.LevelVeryHigh:
		return "Cloud cover can feel cool while still transmitting most erythemal UV."
	default:
		return "At extreme UV, reflective surroundings can push your effective dose past the forecast index."
	}
}
