package repository

import (
	"context"
	"database/sql"
	"fmt"

	"campus/companion/internal/model"
	"campus/companion/internal/timer"
)

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) GetSettings(ctx context.Context, userID string) (*model.TimerSettings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, focus_minutes, short_break_minutes, long_break_minutes,
		        long_break_interval, updated_at
		 FROM timer_settings WHERE user_id = ?`,
		userID,
	)

	settings := model.TimerSettings{}
	var updatedAt string
	err := row.Scan(
		&settings.UserID,
		&settings.FocusMinutes,
		&settings.ShortBreakMinutes,
		&settings.LongBreakMinutes,
		&settings.LongBreakInterval,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}
	settings.UpdatedAt = parsedUpdatedAt
	return &settings, nil
}

func (r *TimerRepository) SaveSettings(ctx context.Context, settings *model.TimerSettings) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_settings (
			user_id, focus_minutes, short_break_minutes, long_break_minutes,
			long_break_interval, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			focus_minutes = excluded.focus_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			long_break_interval = excluded.long_break_interval,
			updated_at = excluded.updated_at`,
		settings.UserID,
		settings.FocusMinutes,
		settings.ShortBreakMinutes,
		settings.LongBreakMinutes,
		settings.LongBreakInterval,
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *TimerRepository) InsertRecord(ctx context.Context, record *model.SessionRecord) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO session_records (
			id, user_id, mode, next_mode, planned_duration_seconds,
			completed_focus_count, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		string(record.Mode),
		string(record.NextMode),
		record.PlannedDurationSeconds,
		record.CompletedFocusCount,
		formatTime(record.CompletedAt),
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

func (r *TimerRepository) ListRecords(ctx context.Context, userID string, limit int) ([]model.SessionRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, mode, next_mode, planned_duration_seconds,
		        completed_focus_count, completed_at, created_at
		 FROM session_records
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	defer rows.Close()

	records := make([]model.SessionRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanSessionRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session records: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSessionRecord(s scanner) (*model.SessionRecord, error) {
	record := model.SessionRecord{}
	var mode string
	var nextMode string
	var completedAt string
	var createdAt string
	err := s.Scan(
		&record.ID,
		&record.UserID,
		&mode,
		&nextMode,
		&record.PlannedDurationSeconds,
		&record.CompletedFocusCount,
		&completedAt,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session record: %w", err)
	}
	record.Mode = timer.Mode(mode)
	record.NextMode = timer.Mode(nextMode)

	parsedCompletedAt, err := parseTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse record completed_at: %w", err)
	}
	record.CompletedAt = parsedCompletedAt

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse record created_at: %w", err)
	}
	record.CreatedAt = parsedCreatedAt

	return &record, nil
}
