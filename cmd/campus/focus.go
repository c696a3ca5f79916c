package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"campus/companion/internal/config"
	"campus/companion/internal/timer"
	"campus/companion/internal/tui"
)

func newFocusCmd() *cobra.Command {
	var (
		configFile string
		overrides  timer.Config
		bell       bool
	)

	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run a Pomodoro timer in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadTimerFile(configFile, timer.DefaultConfig())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("focus") {
				cfg.FocusMinutes = overrides.FocusMinutes
			}
			if cmd.Flags().Changed("short") {
				cfg.ShortBreakMinutes = overrides.ShortBreakMinutes
			}
			if cmd.Flags().Changed("long") {
				cfg.LongBreakMinutes = overrides.LongBreakMinutes
			}
			if cmd.Flags().Changed("interval") {
				cfg.LongBreakInterval = overrides.LongBreakInterval
			}

			t, err := timer.New(cfg)
			if err != nil {
				return fmt.Errorf("timer settings: %w", err)
			}

			_, err = tea.NewProgram(tui.NewModel(t, bell)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "./campus.yaml", "YAML file with a timer section")
	cmd.Flags().IntVar(&overrides.FocusMinutes, "focus", timer.DefaultFocusMinutes, "focus minutes")
	cmd.Flags().IntVar(&overrides.ShortBreakMinutes, "short", timer.DefaultShortBreakMinutes, "short break minutes")
	cmd.Flags().IntVar(&overrides.LongBreakMinutes, "long", timer.DefaultLongBreakMinutes, "long break minutes")
	cmd.Flags().IntVar(&overrides.LongBreakInterval, "interval", timer.DefaultLongBreakInterval, "focus sessions before a long break")
	cmd.Flags().BoolVar(&bell, "bell", true, "ring the terminal bell when a mode completes")
	return cmd
}
