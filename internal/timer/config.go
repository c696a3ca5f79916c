package timer

import (
	"errors"
	"fmt"
)

const (
	DefaultFocusMinutes      = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultLongBreakInterval = 4
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid timer configuration")

// Config holds the duration of each mode and the long break cadence.
type Config struct {
	FocusMinutes      int `json:"focusMinutes" yaml:"focus_minutes"`
	ShortBreakMinutes int `json:"shortBreakMinutes" yaml:"short_break_minutes"`
	LongBreakMinutes  int `json:"longBreakMinutes" yaml:"long_break_minutes"`
	LongBreakInterval int `json:"longBreakInterval" yaml:"long_break_interval"`
}

// ConfigError reports the first non-positive field of a Config.
type ConfigError struct {
	Field string
	Value int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s must be positive, got %d", e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func DefaultConfig() Config {
	return Config{
		FocusMinutes:      DefaultFocusMinutes,
		ShortBreakMinutes: DefaultShortBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
		LongBreakInterval: DefaultLongBreakInterval,
	}
}

func (c Config) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"focusMinutes", c.FocusMinutes},
		{"shortBreakMinutes", c.ShortBreakMinutes},
		{"longBreakMinutes", c.LongBreakMinutes},
		{"longBreakInterval", c.LongBreakInterval},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return &ConfigError{Field: f.name, Value: f.value}
		}
	}
	return nil
}

// DurationSeconds returns the configured length of mode in seconds.
func (c Config) DurationSeconds(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return c.ShortBreakMinutes * 60
	case ModeLongBreak:
		return c.LongBreakMinutes * 60
	default:
		return c.FocusMinutes * 60
	}
}
