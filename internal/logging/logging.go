// Package logging writes leveled JSON-lines logs.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a config string to a Level, falling back to info.
func ParseLevel(raw string) Level {
	level := Level(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := levelRank[level]; ok {
		return level
	}
	return LevelInfo
}

type Logger struct {
	mu     *sync.Mutex
	level  Level
	output io.Writer
	fields map[string]any
}

type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func NewLogger(level Level) *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		level:  level,
		output: os.Stderr,
		fields: map[string]any{},
	}
}

// With returns a child logger that adds fields to every entry. The child
// shares the parent's output and lock.
func (l *Logger) With(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{mu: l.mu, level: l.level, output: l.output, fields: merged}
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { l.log(LevelDebug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { l.log(LevelInfo, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { l.log(LevelWarn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...map[string]any) { l.log(LevelError, msg, fields...) }

func (l *Logger) ErrorErr(msg string, err error, fields ...map[string]any) {
	combined := map[string]any{"error": err.Error()}
	for _, f := range fields {
		for k, v := range f {
			combined[k] = v
		}
	}
	l.log(LevelError, msg, combined)
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Logger) log(level Level, msg string, fields ...map[string]any) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
	}
	if len(l.fields) > 0 || len(fields) > 0 {
		e.Fields = make(map[string]any, len(l.fields))
		for k, v := range l.fields {
			e.Fields[k] = v
		}
		for _, f := range fields {
			for k, v := range f {
				e.Fields[k] = v
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(l.output, `{"level":"error","message":"failed to marshal log entry"}`+"\n")
		return
	}
	_, _ = l.output.Write(append(data, '\n'))
}

var global = NewLogger(LevelInfo)

func SetGlobal(l *Logger) {
	global = l
}

func L() *Logger {
	return global
}

func Info(msg string, fields ...map[string]any)  { global.Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { global.Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { global.Error(msg, fields...) }
