// Package session ties one user's exposure timer, risk assessments and
// notification policy together, and tracks all live sessions in the
// engine process.
package session

import (
	"sync"
	"time"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/environment"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/exposure"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/notify"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/protocol"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// Emitter receives every notification a session produces. Dispatch is
// fire-and-forget; a session never blocks on the emitter.
type Emitter func(sessionID, userID string, n *notify.SmartNotification)

// Options configures one session.
type Options struct {
	PolicyOptions        notify.Options
	ReapplyInterval      time.Duration
	TickInterval         time.Duration
	ReEvaluationInterval time.Duration
	Emit                 Emitter
}

// Session owns the exposure timer and notification policy for one
// connected user. The gateway keys Kafka messages by session ID, so
// exactly one engine instance mutates a given session.
type Session struct {
	ID     string
	UserID string

	timer  *exposure.Timer
	policy *notify.Policy

	mu             sync.Mutex
	baseUV         int
	env            environment.Model
	hasObservation bool
	lastAssessment risk.Assessment
	maxUV          int
	maxLevel       risk.Level
	exceeded       bool
	startedAt      time.Time

	emit Emitter
	now  func() time.Time

	tickInterval time.Duration
	reEvalEvery  time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// New creates a session. The caller starts its loops with Run.
func New(id, userID string, opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.ReEvaluationInterval <= 0 {
		opts.ReEvaluationInterval = 30 * time.Minute
	}
	emit := opts.Emit
	if emit == nil {
		emit = func(string, string, *notify.SmartNotification) {}
	}

	return &Session{
		ID:           id,
		UserID:       userID,
		timer:        exposure.NewTimer(opts.ReapplyInterval),
		policy:       notify.NewPolicy(opts.PolicyOptions),
		maxLevel:     risk.LevelVeryLow,
		startedAt:    time.Now(),
		emit:         emit,
		now:          time.Now,
		tickInterval: opts.TickInterval,
		reEvalEvery:  opts.ReEvaluationInterval,
		stopCh:       make(chan struct{}),
	}
}

// Run starts the tick and re-evaluation loops. Call Stop to end them.
func (s *Session) Run() {
	s.wg.Add(2)
	go s.tickLoop()
	go s.reEvaluationLoop()
}

// Stop ends the loops and pauses the timer so accrued exposure is
// flushed before the session is persisted or dropped.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.timer.Pause()
}

// HandleObservation ingests one resolved UV reading: re-assess risk,
// update the timer budget and run the notification policy.
func (s *Session) HandleObservation(obs protocol.ObservationData, at time.Time) risk.Assessment {
	env := toEnvironment(obs, at)

	s.mu.Lock()
	s.baseUV = obs.UVIndex
	s.env = env
	s.hasObservation = true
	s.mu.Unlock()

	return s.assess(at)
}

// HandleAction applies a user timer action. Unknown actions are
// ignored; the gateway validates before forwarding.
func (s *Session) HandleAction(action string) bool {
	switch action {
	case protocol.ActionStart:
		return s.timer.Start()
	case protocol.ActionPause:
		return s.timer.Pause()
	case protocol.ActionResume:
		return s.timer.Resume()
	case protocol.ActionReset:
		s.timer.Reset()
		s.mu.Lock()
		s.exceeded = false
		s.mu.Unlock()
		return true
	case protocol.ActionApplySunscreen:
		return s.timer.ApplySunscreen()
	case protocol.ActionCancelSunscreen:
		return s.timer.CancelSunscreenTimer()
	}
	return false
}

// assess re-evaluates risk from the last observation, feeds the
// adjusted UV to the timer and runs the notification policy.
func (s *Session) assess(at time.Time) risk.Assessment {
	s.mu.Lock()
	if !s.hasObservation {
		s.mu.Unlock()
		return risk.Assessment{}
	}
	baseUV := s.baseUV
	env := s.env
	s.mu.Unlock()

	a := risk.Evaluate(baseUV, env, at)

	change, advisory := s.timer.UpdateUVIndex(a.AdjustedUVIndex)
	if advisory {
		s.emit(s.ID, s.UserID, notify.NewUVChangeAdvisory(
			change.OldUV, change.NewUV, change.RemainingSeconds, a.Level, at))
	}

	for _, n := range s.policy.Evaluate(a) {
		s.emit(s.ID, s.UserID, n)
	}

	s.mu.Lock()
	s.lastAssessment = a
	if a.AdjustedUVIndex > s.maxUV {
		s.maxUV = a.AdjustedUVIndex
	}
	if a.Level.Rank() > s.maxLevel.Rank() {
		s.maxLevel = a.Level
	}
	s.mu.Unlock()

	return a
}

func (s *Session) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) tick() {
	result := s.timer.Tick()
	at := s.now()

	s.mu.Lock()
	level := s.lastAssessment.Level
	adjustedUV := s.lastAssessment.AdjustedUVIndex
	if result.Exceeded {
		s.exceeded = true
	}
	s.mu.Unlock()

	if result.Exceeded {
		s.emit(s.ID, s.UserID, notify.NewExposureExceeded(level, adjustedUV, at))
	}
	if result.SunscreenExpired {
		s.emit(s.ID, s.UserID, notify.NewSunscreenReapply(level, adjustedUV, at))
	}
}

// reEvaluationLoop periodically re-runs the policy on the latest
// observation so long-lived conditions resurface.
func (s *Session) reEvaluationLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.reEvalEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.assess(s.now())
		}
	}
}

// Snapshot captures the current timer view tagged with the latest risk
// level.
func (s *Session) Snapshot() exposure.Snapshot {
	s.mu.Lock()
	level := s.lastAssessment.Level
	s.mu.Unlock()
	if level == "" {
		level = risk.LevelVeryLow
	}
	return s.timer.Snapshot(level)
}

// PolicyState exposes the policy hysteresis state for persistence.
func (s *Session) PolicyState() notify.PolicyState {
	return s.policy.State()
}

// RestorePolicyState reloads persisted hysteresis state, typically
// after an engine restart.
func (s *Session) RestorePolicyState(state notify.PolicyState) {
	s.policy.Restore(state)
}

// Summary describes a session for logging and persistence.
type Summary struct {
	SessionID            string
	UserID               string
	StartedAt            time.Time
	TotalExposureSeconds int
	MaxUVIndex           int
	MaxRiskLevel         risk.Level
	Exceeded             bool
	FinalState           exposure.State
}

// Summarize returns the session's totals so far.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	maxUV := s.maxUV
	maxLevel := s.maxLevel
	exceeded := s.exceeded
	startedAt := s.startedAt
	s.mu.Unlock()

	return Summary{
		SessionID:            s.ID,
		UserID:               s.UserID,
		StartedAt:            startedAt,
		TotalExposureSeconds: int(s.timer.TotalExposureSeconds()),
		MaxUVIndex:           maxUV,
		MaxRiskLevel:         maxLevel,
		Exceeded:             exceeded,
		FinalState:           s.timer.State(),
	}
}

// SummarizeAndReset captures the session's final totals, flushing any
// running segment first, then resets the timer and peak trackers for a
// new outing. The reset wipes the totals, so callers persisting a
// session log must use the returned summary, not a later Summarize.
func (s *Session) SummarizeAndReset() Summary {
	s.timer.Pause()
	sum := s.Summarize()
	s.timer.Reset()

	s.mu.Lock()
	s.exceeded = false
	s.maxUV = 0
	s.maxLevel = risk.LevelVeryLow
	s.startedAt = s.now()
	s.mu.Unlock()

	return sum
}

// toEnvironment maps the observation's environmental attributes onto
// the assessment model. Unrecognized enum strings fall back to their
// neutral values inside environment.New.
func toEnvironment(obs protocol.ObservationData, at time.Time) environment.Model {
	snow := environment.Snow{
		HasRecentFall: obs.SnowRecentFall,
		DepthCm:       obs.SnowDepthCm,
		CoveragePct:   obs.SnowCoveragePct,
		AgeDays:       obs.SnowAgeDays,
		Type:          environment.SnowType(obs.SnowType),
	}

	water := environment.Water{
		DistanceMeters: obs.WaterDistanceMeters,
		BodyType:       environment.WaterBodyType(obs.WaterBodyType),
		Size:           environment.WaterSize(obs.WaterSize),
	}
	if obs.WaterBodyType == "" {
		water.BodyType = environment.WaterNone
	}

	return environment.New(
		obs.AltitudeMeters,
		obs.CloudCoverPct,
		snow,
		water,
		environment.Terrain(obs.Terrain),
		environment.SeasonFor(at),
	)
}
