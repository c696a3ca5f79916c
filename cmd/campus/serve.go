package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"campus/companion/internal/config"
	"campus/companion/internal/db"
	"campus/companion/internal/handler"
	"campus/companion/internal/logging"
	"campus/companion/internal/notify"
	"campus/companion/internal/repository"
	"campus/companion/internal/router"
	"campus/companion/internal/scheduler"
	"campus/companion/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the timer scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	logging.SetGlobal(logger)

	users, timers, closeStore, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := notify.NewHub()
	authService := service.NewAuthService(users, timers, cfg.Timer, cfg.JWTSecret, cfg.TokenTTL)
	timerService := service.NewTimerService(timers, hub, cfg.Timer, logger.With(map[string]any{"component": "timer"}))

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(timerService, authService, hub)
	engine := router.New(authService, authHandler, timerHandler, cfg.CORSOrigins)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(timerService, cfg.TickInterval, logger)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = sched.Run(ctx)
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("backend listening", map[string]any{"port": cfg.Port, "storage": cfg.StorageDriver})
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("run server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	<-schedDone
	timerService.WaitRecorded()
	return nil
}

func openStores(cfg config.Config) (repository.UserStore, repository.TimerStore, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := repository.NewMemoryStore()
		return store, store, func() {}, nil
	}

	database, err := openMigrated(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { _ = database.Close() }
	return repository.NewUserRepository(database), repository.NewTimerRepository(database), closeFn, nil
}

func openMigrated(cfg config.Config) (*sql.DB, error) {
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, nil
}
