// Package tui is the terminal front end for a local focus timer.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"campus/companion/internal/model"
	"campus/companion/internal/timer"
)

const progressWidth = 30

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	activeTab   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#7D56F4")).Foreground(lipgloss.Color("#FFFFFF"))
	inactiveTab = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#888888"))
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

type tickMsg time.Time

// completions collects events raised inside timer.Tick so Update can
// report them after the call returns.
type completions struct {
	pending []timer.ModeCompleted
}

type Model struct {
	timer    *timer.Timer
	events   *completions
	focusBar progress.Model
	breakBar progress.Model
	notice   string
	bell     bool
	quitting bool
}

func NewModel(t *timer.Timer, bell bool) Model {
	events := &completions{}
	t.OnModeCompleted(func(e timer.ModeCompleted) {
		events.pending = append(events.pending, e)
	})
	return Model{
		timer:    t,
		events:   events,
		focusBar: newBar("#5A56E0", "#EE6FF8"),
		breakBar: newBar("#04B575", "#A8E6CF"),
		bell:     bell,
	}
}

func newBar(from, to string) progress.Model {
	return progress.New(
		progress.WithGradient(from, to),
		progress.WithWidth(progressWidth),
		progress.WithoutPercentage(),
	)
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.timer.Tick()
		notify := m.drainCompletions()
		return m, tea.Batch(tickCmd(), notify)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ", "p":
		if m.timer.Running() {
			m.timer.Pause()
		} else {
			m.timer.Start()
		}
	case "r":
		m.timer.Reset()
	case "s":
		next := m.timer.Skip()
		m.notice = fmt.Sprintf("Skipped to %s", next.Label())
	case "1":
		_ = m.timer.SetMode(timer.ModeFocus)
	case "2":
		_ = m.timer.SetMode(timer.ModeShortBreak)
	case "3":
		_ = m.timer.SetMode(timer.ModeLongBreak)
	}
	return m, nil
}

func (m *Model) drainCompletions() tea.Cmd {
	if len(m.events.pending) == 0 {
		return nil
	}
	last := m.events.pending[len(m.events.pending)-1]
	m.events.pending = m.events.pending[:0]

	event := model.NewModeEvent("", last, time.Now())
	m.notice = fmt.Sprintf("%s %s", event.Title, event.Description)
	if m.bell {
		return tea.Printf("\a")
	}
	return nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Pomodoro Timer"))
	b.WriteString("\n\n")

	tabs := make([]string, 0, 3)
	for _, mode := range []timer.Mode{timer.ModeFocus, timer.ModeShortBreak, timer.ModeLongBreak} {
		style := inactiveTab
		if mode == m.timer.Mode() {
			style = activeTab
		}
		tabs = append(tabs, style.Render(mode.Label()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	b.WriteString(clockStyle.Render(m.timer.Clock()))
	b.WriteString("\n")
	bar := m.focusBar
	if m.timer.Mode().IsBreak() {
		bar = m.breakBar
	}
	b.WriteString(bar.ViewAs(m.timer.Progress() / 100))
	b.WriteString("\n\n")

	state := "paused"
	if m.timer.Running() {
		state = "running"
	}
	b.WriteString(fmt.Sprintf("Completed Pomodoros: %d  (%s)\n", m.timer.CompletedFocusCount(), state))
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[space] start/pause  [r]eset  [s]kip  [1/2/3] mode  [q]uit"))
	b.WriteString("\n")
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
