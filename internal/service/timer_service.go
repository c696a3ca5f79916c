package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "campus/companion/internal/errors"
	"campus/companion/internal/logging"
	"campus/companion/internal/model"
	"campus/companion/internal/notify"
	"campus/companion/internal/report"
	"campus/companion/internal/repository"
	"campus/companion/internal/timer"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	statsWindow         = 1000
	recordTimeout       = 5 * time.Second
)

// TimerService owns one live timer per user. Timers live in memory only;
// settings and completion history go through the store.
type TimerService struct {
	store    repository.TimerStore
	hub      *notify.Hub
	defaults timer.Config
	log      *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	// recording tracks completion batches still being written and published.
	recording sync.WaitGroup
}

// session serializes every operation on its timer, including scheduler ticks.
type session struct {
	mu        sync.Mutex
	userID    string
	timer     *timer.Timer
	version   int
	updatedAt time.Time
	// pending holds completions raised under mu and not yet delivered.
	pending []completion
}

// completion is everything needed to record and announce one mode change
// without holding the session lock.
type completion struct {
	change timer.ModeCompleted
	record model.SessionRecord
	event  model.ModeEvent
}

func (sess *session) takePending() []completion {
	pending := sess.pending
	sess.pending = nil
	return pending
}

type StateView struct {
	UserID              string       `json:"userId"`
	Mode                timer.Mode   `json:"mode"`
	Status              string       `json:"status"`
	RemainingSeconds    int          `json:"remainingSeconds"`
	Clock               string       `json:"clock"`
	Progress            float64      `json:"progress"`
	NextMode            timer.Mode   `json:"nextMode"`
	CompletedFocusCount int          `json:"completedFocusCount"`
	Settings            timer.Config `json:"settings"`
	Version             int          `json:"version"`
	UpdatedAt           time.Time    `json:"updatedAt"`
	ServerTime          time.Time    `json:"serverTime"`
}

type UpdateSettingsInput struct {
	BaseVersion int
	Config      timer.Config
}

func NewTimerService(store repository.TimerStore, hub *notify.Hub, defaults timer.Config, log *logging.Logger) *TimerService {
	return &TimerService{
		store:    store,
		hub:      hub,
		defaults: defaults,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*session),
	}
}

func (s *TimerService) GetState(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	sess, apiErr := s.getSession(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	view := s.toStateView(sess, s.now())
	return &view, nil
}

func (s *TimerService) Start(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(t *timer.Timer) (bool, *apperrors.APIError) {
		if t.Running() {
			return false, nil
		}
		t.Start()
		return true, nil
	})
}

func (s *TimerService) Pause(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(t *timer.Timer) (bool, *apperrors.APIError) {
		if !t.Running() {
			return false, nil
		}
		t.Pause()
		return true, nil
	})
}

func (s *TimerService) Reset(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(t *timer.Timer) (bool, *apperrors.APIError) {
		t.Reset()
		return true, nil
	})
}

func (s *TimerService) SwitchMode(ctx context.Context, userID, mode string, baseVersion int) (*StateView, *apperrors.APIError) {
	parsed, err := timer.ParseMode(mode)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_mode", timer.ErrUnknownMode.Error())
	}
	return s.mutate(ctx, userID, baseVersion, func(t *timer.Timer) (bool, *apperrors.APIError) {
		if err := t.SetMode(parsed); err != nil {
			return false, apperrors.BadRequest("invalid_mode", err.Error())
		}
		return true, nil
	})
}

func (s *TimerService) Skip(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(t *timer.Timer) (bool, *apperrors.APIError) {
		t.Skip()
		return true, nil
	})
}

func (s *TimerService) UpdateSettings(ctx context.Context, userID string, input UpdateSettingsInput) (*StateView, *apperrors.APIError) {
	if err := input.Config.Validate(); err != nil {
		return nil, apperrors.InvalidSettings(err)
	}

	return s.mutate(ctx, userID, input.BaseVersion, func(t *timer.Timer) (bool, *apperrors.APIError) {
		settings := model.NewTimerSettings(userID, input.Config, s.now())
		if err := s.store.SaveSettings(ctx, &settings); err != nil {
			s.log.ErrorErr("save settings failed", err, map[string]any{"userId": userID})
			return false, apperrors.Internal("failed to save settings")
		}
		if err := t.Reconfigure(input.Config); err != nil {
			return false, apperrors.InvalidSettings(err)
		}
		return true, nil
	})
}

func (s *TimerService) GetHistory(ctx context.Context, userID string, limit int) ([]model.SessionRecord, *apperrors.APIError) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	records, err := s.store.ListRecords(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return records, nil
}

func (s *TimerService) GetStats(ctx context.Context, userID string) (*model.TimerStats, *apperrors.APIError) {
	sess, apiErr := s.getSession(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	records, err := s.store.ListRecords(ctx, userID, statsWindow)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}

	sess.mu.Lock()
	stats := model.TimerStats{CompletedFocusCount: sess.timer.CompletedFocusCount()}
	sess.mu.Unlock()

	for _, record := range records {
		if record.Mode == timer.ModeFocus {
			stats.RecordedFocusCount++
			stats.FocusSeconds += record.PlannedDurationSeconds
		} else {
			stats.BreakSeconds += record.PlannedDurationSeconds
		}
	}
	return &stats, nil
}

// TickAll advances every running timer by one second. It is the only
// caller of timer.Tick and is driven by the scheduler. Completed modes are
// written and published in the background so a slow store never delays
// the next tick.
func (s *TimerService) TickAll() int {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	ticked := 0
	var done []completion
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.timer.Running() {
			sess.timer.Tick()
			ticked++
		}
		done = append(done, sess.takePending()...)
		sess.mu.Unlock()
	}

	if len(done) > 0 {
		s.recording.Add(1)
		go func() {
			defer s.recording.Done()
			s.deliver(done)
		}()
	}
	return ticked
}

// WaitRecorded blocks until every completion raised so far has been
// written to the store and published.
func (s *TimerService) WaitRecorded() {
	s.recording.Wait()
}

func (s *TimerService) mutate(
	ctx context.Context,
	userID string,
	baseVersion int,
	fn func(t *timer.Timer) (bool, *apperrors.APIError),
) (*StateView, *apperrors.APIError) {
	sess, apiErr := s.getSession(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	now := s.now()
	if apiErr := s.ensureVersion(baseVersion, sess, now); apiErr != nil {
		return nil, apiErr
	}

	changed, apiErr := fn(sess.timer)
	if apiErr != nil {
		return nil, apiErr
	}
	if changed {
		sess.version++
		sess.updatedAt = now
	}

	view := s.toStateView(sess, now)
	return &view, nil
}

func (s *TimerService) getSession(ctx context.Context, userID string) (*session, *apperrors.APIError) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	cfg := s.defaults
	settings, err := s.store.GetSettings(ctx, userID)
	switch {
	case err == nil:
		cfg = settings.Config()
	case err != repository.ErrNotFound:
		return nil, apperrors.Internal("failed to load settings")
	}

	t, err := timer.New(cfg)
	if err != nil {
		s.log.ErrorErr("stored settings rejected", err, map[string]any{"userId": userID})
		return nil, apperrors.Internal("stored timer settings are invalid")
	}

	fresh := &session{
		userID:    userID,
		timer:     t,
		version:   1,
		updatedAt: s.now(),
	}
	t.OnModeCompleted(func(e timer.ModeCompleted) {
		s.onModeCompleted(fresh, e)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[userID]; ok {
		return existing, nil
	}
	s.sessions[userID] = fresh
	return fresh, nil
}

// onModeCompleted runs with sess.mu held. It only queues the side effects;
// TickAll delivers them once the lock is released.
func (s *TimerService) onModeCompleted(sess *session, e timer.ModeCompleted) {
	now := s.now()
	sess.version++
	sess.updatedAt = now

	sess.pending = append(sess.pending, completion{
		change: e,
		record: model.SessionRecord{
			ID:                     uuid.NewString(),
			UserID:                 sess.userID,
			Mode:                   e.Previous,
			NextMode:               e.Next,
			PlannedDurationSeconds: sess.timer.Config().DurationSeconds(e.Previous),
			CompletedFocusCount:    e.CompletedFocusCount,
			CompletedAt:            now,
			CreatedAt:              now,
		},
		event: model.NewModeEvent(sess.userID, e, now),
	})
}

func (s *TimerService) deliver(batch []completion) {
	for _, c := range batch {
		userID := c.record.UserID

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := s.store.InsertRecord(ctx, &c.record); err != nil {
			s.log.ErrorErr("record completion failed", err, map[string]any{"userId": userID})
		}
		cancel()

		if dropped := s.hub.Publish(c.event); dropped > 0 {
			s.log.Warn("mode event dropped", map[string]any{"userId": userID, "dropped": dropped})
		}

		s.log.Info("mode completed", map[string]any{
			"userId":              userID,
			"previousMode":        c.change.Previous,
			"newMode":             c.change.Next,
			"completedFocusCount": c.change.CompletedFocusCount,
		})
	}
}

func (s *TimerService) ensureVersion(baseVersion int, sess *session, now time.Time) *apperrors.APIError {
	if baseVersion <= 0 || baseVersion == sess.version {
		return nil
	}
	view := s.toStateView(sess, now)
	return apperrors.Conflict("state_conflict", "state changed on another device", map[string]interface{}{
		"state": view,
	})
}

func (s *TimerService) toStateView(sess *session, now time.Time) StateView {
	t := sess.timer
	snapshot := t.Snapshot()
	return StateView{
		UserID:              sess.userID,
		Mode:                snapshot.Mode,
		Status:              status(t),
		RemainingSeconds:    snapshot.RemainingSeconds,
		Clock:               t.Clock(),
		Progress:            t.Progress(),
		NextMode:            t.NextMode(),
		CompletedFocusCount: snapshot.CompletedFocusCount,
		Settings:            t.Config(),
		Version:             sess.version,
		UpdatedAt:           sess.updatedAt,
		ServerTime:          now,
	}
}

func status(t *timer.Timer) string {
	if t.Running() {
		return model.StatusRunning
	}
	if t.RemainingSeconds() == t.Config().DurationSeconds(t.Mode()) {
		return model.StatusIdle
	}
	return model.StatusPaused
}

// BuildReport gathers the newest history and totals for a printable report.
func (s *TimerService) BuildReport(ctx context.Context, userID string) (*report.HistoryReport, *apperrors.APIError) {
	stats, apiErr := s.GetStats(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	records, apiErr := s.GetHistory(ctx, userID, maxHistoryLimit)
	if apiErr != nil {
		return nil, apiErr
	}
	return &report.HistoryReport{
		GeneratedAt: s.now(),
		Stats:       *stats,
		Records:     records,
	}, nil
}
