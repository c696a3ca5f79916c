package model

import (
	"time"

	"campus/companion/internal/timer"
)

const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusPaused  = "paused"
)

// TimerSettings is the persisted per-user timer configuration.
type TimerSettings struct {
	UserID            string    `json:"userId"`
	FocusMinutes      int       `json:"focusMinutes"`
	ShortBreakMinutes int       `json:"shortBreakMinutes"`
	LongBreakMinutes  int       `json:"longBreakMinutes"`
	LongBreakInterval int       `json:"longBreakInterval"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func NewTimerSettings(userID string, cfg timer.Config, now time.Time) TimerSettings {
	return TimerSettings{
		UserID:            userID,
		FocusMinutes:      cfg.FocusMinutes,
		ShortBreakMinutes: cfg.ShortBreakMinutes,
		LongBreakMinutes:  cfg.LongBreakMinutes,
		LongBreakInterval: cfg.LongBreakInterval,
		UpdatedAt:         now,
	}
}

func (s TimerSettings) Config() timer.Config {
	return timer.Config{
		FocusMinutes:      s.FocusMinutes,
		ShortBreakMinutes: s.ShortBreakMinutes,
		LongBreakMinutes:  s.LongBreakMinutes,
		LongBreakInterval: s.LongBreakInterval,
	}
}

// SessionRecord is one finished countdown.
type SessionRecord struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"userId"`
	Mode                   timer.Mode `json:"mode"`
	NextMode               timer.Mode `json:"nextMode"`
	PlannedDurationSeconds int        `json:"plannedDurationSeconds"`
	CompletedFocusCount    int        `json:"completedFocusCount"`
	CompletedAt            time.Time  `json:"completedAt"`
	CreatedAt              time.Time  `json:"createdAt"`
}

// ModeEvent is the notification pushed to clients when a mode completes.
type ModeEvent struct {
	UserID              string     `json:"userId"`
	PreviousMode        timer.Mode `json:"previousMode"`
	NewMode             timer.Mode `json:"newMode"`
	CompletedFocusCount int        `json:"completedFocusCount"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	At                  time.Time  `json:"at"`
}

func NewModeEvent(userID string, e timer.ModeCompleted, at time.Time) ModeEvent {
	title := "Break completed!"
	if e.Previous == timer.ModeFocus {
		title = "Focus session completed!"
	}
	description := "Time for a break!"
	if e.Next == timer.ModeFocus {
		description = "Time for focus!"
	}
	return ModeEvent{
		UserID:              userID,
		PreviousMode:        e.Previous,
		NewMode:             e.Next,
		CompletedFocusCount: e.CompletedFocusCount,
		Title:               title,
		Description:         description,
		At:                  at,
	}
}

type TimerStats struct {
	CompletedFocusCount int `json:"completedFocusCount"`
	RecordedFocusCount  int `json:"recordedFocusCount"`
	FocusSeconds        int `json:"focusSeconds"`
	BreakSeconds        int `json:"breakSeconds"`
}
