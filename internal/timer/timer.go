// Package timer implements the focus/break countdown cycle.
//
// A Timer is not safe for concurrent use. It is driven by a single scheduler
// that calls Tick once per second, and every other caller must serialize
// access with that scheduler.
package timer

import (
	"errors"
	"fmt"
)

type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

var ErrUnknownMode = errors.New("mode must be one of focus, short_break, long_break")

func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
	return mode, nil
}

func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeShortBreak || m == ModeLongBreak
}

func (m Mode) Label() string {
	switch m {
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Focus Time"
	}
}

func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// ModeCompleted is emitted each time a countdown finishes and the timer
// advances to its next mode.
type ModeCompleted struct {
	Previous            Mode
	Next                Mode
	CompletedFocusCount int
}

// State is a read-only snapshot of a Timer.
type State struct {
	Mode                Mode `json:"mode"`
	RemainingSeconds    int  `json:"remainingSeconds"`
	Running             bool `json:"running"`
	CompletedFocusCount int  `json:"completedFocusCount"`
}

type Timer struct {
	cfg       Config
	mode      Mode
	remaining int
	running   bool
	completed int
	listeners []func(ModeCompleted)
}

// New returns a paused timer in Focus mode with the full focus duration.
func New(cfg Config) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Timer{
		cfg:       cfg,
		mode:      ModeFocus,
		remaining: cfg.DurationSeconds(ModeFocus),
	}, nil
}

// OnModeCompleted registers fn to be called after every mode transition.
func (t *Timer) OnModeCompleted(fn func(ModeCompleted)) {
	t.listeners = append(t.listeners, fn)
}

func (t *Timer) Start() {
	t.running = true
}

func (t *Timer) Pause() {
	t.running = false
}

func (t *Timer) Reset() {
	t.running = false
	t.remaining = t.cfg.DurationSeconds(t.mode)
}

// Tick advances a running countdown by one second. The tick that reaches
// zero completes the current mode before returning true, so callers that
// want to show 00:00 do it from the return value.
func (t *Timer) Tick() bool {
	if !t.running {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining > 0 {
		return false
	}
	t.CompleteCurrentMode()
	return true
}

// CompleteCurrentMode moves to the next mode and notifies listeners. The
// running flag is left untouched so the caller decides whether to continue.
func (t *Timer) CompleteCurrentMode() ModeCompleted {
	previous := t.mode
	if previous == ModeFocus {
		t.completed++
	}
	next := t.nextMode(t.completed)

	t.mode = next
	t.remaining = t.cfg.DurationSeconds(next)

	event := ModeCompleted{
		Previous:            previous,
		Next:                next,
		CompletedFocusCount: t.completed,
	}
	for _, fn := range t.listeners {
		fn(event)
	}
	return event
}

// SetMode switches to mode manually and stops the countdown.
func (t *Timer) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	t.running = false
	t.mode = mode
	t.remaining = t.cfg.DurationSeconds(mode)
	return nil
}

// NextMode previews the mode a completion would select right now.
func (t *Timer) NextMode() Mode {
	if t.mode == ModeFocus {
		return t.nextMode(t.completed + 1)
	}
	return ModeFocus
}

// Skip jumps to NextMode without counting the current session.
func (t *Timer) Skip() Mode {
	next := t.NextMode()
	_ = t.SetMode(next)
	return next
}

// Reconfigure replaces the durations. A paused timer is refilled with the
// new duration; a running one keeps its remaining time, capped to the new
// duration.
func (t *Timer) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.cfg = cfg
	full := cfg.DurationSeconds(t.mode)
	if !t.running {
		t.remaining = full
		return nil
	}
	if t.remaining > full {
		t.remaining = full
	}
	return nil
}

func (t *Timer) Config() Config {
	return t.cfg
}

func (t *Timer) Mode() Mode {
	return t.mode
}

func (t *Timer) RemainingSeconds() int {
	return t.remaining
}

func (t *Timer) Running() bool {
	return t.running
}

func (t *Timer) CompletedFocusCount() int {
	return t.completed
}

func (t *Timer) Snapshot() State {
	return State{
		Mode:                t.mode,
		RemainingSeconds:    t.remaining,
		Running:             t.running,
		CompletedFocusCount: t.completed,
	}
}

// Progress returns the elapsed share of the current mode as a percentage.
func (t *Timer) Progress() float64 {
	total := t.cfg.DurationSeconds(t.mode)
	return float64(total-t.remaining) / float64(total) * 100
}

// Clock formats the remaining time as MM:SS.
func (t *Timer) Clock() string {
	return FormatClock(t.remaining)
}

func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (t *Timer) nextMode(focusCount int) Mode {
	if t.mode != ModeFocus {
		return ModeFocus
	}
	if focusCount%t.cfg.LongBreakInterval == 0 {
		return ModeLongBreak
	}
	return ModeShortBreak
}
