// Package engine consumes client events from Kafka and drives the
// per-session exposure timers and notification policies. Events are
// keyed by session ID, so a session's mutations all arrive on one
// partition and one engine instance.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/database"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/notify"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/protocol"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/queue"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/session"
	"github.com/STOmaha/Time-to-Burn-sub002/pkg/config"
)

// persistInterval is how often live snapshots and policy states are
// written out between events.
const persistInterval = 5 * time.Second

// settingsCacheValidity bounds how stale cached user settings may get.
const settingsCacheValidity = 5 * time.Minute

// Engine owns all live sessions on this instance.
type Engine struct {
	cfg       *config.Config
	db        *database.DB
	sessions  *session.Manager
	states    *notify.StateStore
	snapshots *session.SnapshotStore
	producer  *queue.Producer
	consumer  *queue.Consumer

	settingsCache map[string]*database.UserSettings
	cacheLoadedAt map[string]time.Time
	cacheMu       sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates an engine.
func New(cfg *config.Config, db *database.DB, states *notify.StateStore, snapshots *session.SnapshotStore, producer *queue.Producer, consumer *queue.Consumer) *Engine {
	return &Engine{
		cfg:           cfg,
		db:            db,
		sessions:      session.NewManager(cfg.Engine.MaxSessions),
		states:        states,
		snapshots:     snapshots,
		producer:      producer,
		consumer:      consumer,
		settingsCache: make(map[string]*database.UserSettings),
		cacheLoadedAt: make(map[string]time.Time),
		stopCh:        make(chan struct{}),
	}
}

// Run consumes events until the context is cancelled or Stop is
// called. It blocks.
func (e *Engine) Run(ctx context.Context) {
	e.wg.Add(1)
	go e.persistLoop(ctx)

	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		msg, err := e.consumer.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnf("Consumer error: %v", err)
			continue
		}

		if err := e.handleEvent(ctx, msg); err != nil {
			log.Warnf("Failed to handle event: %v", err)
		}

		if err := e.consumer.Commit(ctx, msg); err != nil {
			log.Warnf("Failed to commit offset: %v", err)
		}
	}
}

// Stop ends the consume loop and shuts all sessions down, closing
// their session logs.
func (e *Engine) Stop(ctx context.Context) {
	close(e.stopCh)
	e.wg.Wait()

	for _, s := range e.sessions.All() {
		e.closeSession(ctx, s)
	}
}

func (e *Engine) handleEvent(ctx context.Context, msg kafka.Message) error {
	event, err := protocol.DecodeEventMessage(msg.Value)
	if err != nil {
		return err
	}

	s, err := e.getOrCreateSession(ctx, event.SessionID, event.UserID)
	if err != nil {
		return err
	}

	switch event.Kind {
	case protocol.EventKindObservation:
		if event.Observation == nil {
			return nil
		}
		at := event.ReceivedAt
		if parsed, err := event.Observation.Parse(); err == nil {
			at = parsed.Timestamp
		}
		a := s.HandleObservation(*event.Observation, at)
		log.Debugf("Session %s assessed: uv=%d adjusted=%d level=%s",
			s.ID, a.BaseUVIndex, a.AdjustedUVIndex, a.Level)

	case protocol.EventKindAction:
		if event.Action == protocol.ActionReset {
			// The reset wipes the timer totals, so capture them for
			// the session log first.
			sum := s.SummarizeAndReset()
			e.closeSessionLog(sum, event.ReceivedAt)
			log.Debugf("Session %s reset (total=%ds exceeded=%v)",
				s.ID, sum.TotalExposureSeconds, sum.Exceeded)
		} else {
			handled := s.HandleAction(event.Action)
			log.Debugf("Session %s action %q handled=%v", s.ID, event.Action, handled)

			if event.Action == protocol.ActionStart && handled {
				e.openSessionLog(s)
			}
		}
	}

	e.persistSession(ctx, s)
	return nil
}

func (e *Engine) getOrCreateSession(ctx context.Context, sessionID, userID string) (*session.Session, error) {
	if s, ok := e.sessions.Get(sessionID); ok {
		return s, nil
	}

	opts := session.Options{
		PolicyOptions:        e.policyOptionsFor(userID),
		ReapplyInterval:      e.cfg.Notifications.ReapplyInterval,
		TickInterval:         e.cfg.Engine.TickInterval,
		ReEvaluationInterval: e.cfg.Engine.ReEvaluationInterval,
		Emit:                 e.emitNotification,
	}

	s := session.New(sessionID, userID, opts)

	// Reload hysteresis state so a restart does not re-alert.
	if state, err := e.states.Get(ctx, sessionID); err != nil {
		log.Warnf("Failed to load policy state for %s: %v", sessionID, err)
	} else if state.HasLast {
		s.RestorePolicyState(*state)
	}

	if err := e.sessions.Register(s); err != nil {
		return nil, err
	}

	s.Run()
	log.Infof("Session started: %s (user=%s, total=%d)", sessionID, userID, e.sessions.Count())
	return s, nil
}

// policyOptionsFor resolves notification options from stored user
// settings, falling back to configured defaults.
func (e *Engine) policyOptionsFor(userID string) notify.Options {
	cfg := e.cfg.Notifications
	opts := notify.Options{
		Enabled:              cfg.Enabled,
		UVChangeThreshold:    cfg.UVChangeThreshold,
		MinimumRiskLevel:     risk.ParseLevel(cfg.MinimumRiskLevel),
		EducationalFrequency: cfg.AlertFrequency,
		QuietHoursEnabled:    cfg.QuietHoursEnabled,
		QuietStartHour:       cfg.QuietHoursStart,
		QuietEndHour:         cfg.QuietHoursEnd,
	}

	settings, err := e.getUserSettings(userID)
	if err != nil {
		log.Warnf("Failed to load settings for %s, using defaults: %v", userID, err)
		return opts
	}
	if settings == nil {
		return opts
	}

	opts.Enabled = settings.NotificationsEnabled
	opts.UVChangeThreshold = settings.UVChangeThreshold
	opts.MinimumRiskLevel = risk.ParseLevel(settings.MinimumRiskLevel)
	opts.EducationalFrequency = settings.AlertFrequency
	opts.QuietHoursEnabled = settings.QuietHoursEnabled
	opts.QuietStartHour = settings.QuietHoursStart
	opts.QuietEndHour = settings.QuietHoursEnd
	return opts
}

func (e *Engine) getUserSettings(userID string) (*database.UserSettings, error) {
	e.cacheMu.Lock()
	loadedAt, ok := e.cacheLoadedAt[userID]
	if ok && time.Since(loadedAt) < settingsCacheValidity {
		settings := e.settingsCache[userID]
		e.cacheMu.Unlock()
		return settings, nil
	}
	e.cacheMu.Unlock()

	settings, err := e.db.GetUserSettings(userID)
	if err != nil {
		return nil, err
	}

	e.cacheMu.Lock()
	e.settingsCache[userID] = settings
	e.cacheLoadedAt[userID] = time.Now()
	e.cacheMu.Unlock()

	return settings, nil
}

// emitNotification publishes one notification to the notifications
// topic. Dispatch failures are logged and dropped, never retried.
func (e *Engine) emitNotification(sessionID, userID string, n *notify.SmartNotification) {
	env := &protocol.NotificationEnvelope{
		SessionID:    sessionID,
		UserID:       userID,
		EmittedAt:    time.Now(),
		Notification: n,
	}

	data, err := protocol.EncodeNotificationEnvelope(env)
	if err != nil {
		log.Warnf("Failed to encode notification: %v", err)
		return
	}

	if err := e.producer.Publish(context.Background(), sessionID, data); err != nil {
		log.Warnf("Failed to publish notification %s: %v", n.Identifier, err)
		return
	}

	log.Infof("Notification %s: %s (session=%s)", n.Type, n.Title, sessionID)
}

// persistLoop periodically writes snapshots and policy states for all
// live sessions so presentation surfaces and restarts stay current.
func (e *Engine) persistLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range e.sessions.All() {
				e.persistSession(ctx, s)
			}
		}
	}
}

func (e *Engine) persistSession(ctx context.Context, s *session.Session) {
	if err := e.snapshots.Publish(ctx, s.ID, s.Snapshot()); err != nil {
		log.Warnf("Failed to publish snapshot for %s: %v", s.ID, err)
	}

	state := s.PolicyState()
	if err := e.states.Set(ctx, s.ID, &state); err != nil {
		log.Warnf("Failed to persist policy state for %s: %v", s.ID, err)
	}
}

func (e *Engine) openSessionLog(s *session.Session) {
	sum := s.Summarize()
	logEntry := &database.SessionLog{
		SessionID:    sum.SessionID,
		UserID:       sum.UserID,
		StartedAt:    time.Now(),
		MaxUVIndex:   sum.MaxUVIndex,
		MaxRiskLevel: string(sum.MaxRiskLevel),
		FinalState:   string(sum.FinalState),
	}
	if err := e.db.InsertSessionLog(logEntry); err != nil {
		log.Warnf("Failed to insert session log for %s: %v", s.ID, err)
	}
}

func (e *Engine) closeSessionLog(sum session.Summary, endedAt time.Time) {
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	err := e.db.CloseSessionLog(sum.SessionID, endedAt,
		sum.TotalExposureSeconds, sum.Exceeded, string(sum.FinalState))
	if err != nil {
		log.Warnf("Failed to close session log for %s: %v", sum.SessionID, err)
	}
}

// closeSession stops a session and records its final totals. Stop
// pauses the timer, so the summary taken afterwards carries the flushed
// exposure total.
func (e *Engine) closeSession(ctx context.Context, s *session.Session) {
	s.Stop()
	e.persistSession(ctx, s)
	e.closeSessionLog(s.Summarize(), time.Now())
	if err := e.sessions.Unregister(s.ID); err != nil {
		log.Warnf("Failed to unregister session %s: %v", s.ID, err)
	}
}
