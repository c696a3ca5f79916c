package repository

import (
	"context"
	"errors"

	"campus/companion/internal/model"
)

var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key, such as a user email, is taken.
var ErrDuplicate = errors.New("duplicate record")

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*model.TimerSettings, error)
	SaveSettings(ctx context.Context, settings *model.TimerSettings) error
}

type HistoryStore interface {
	InsertRecord(ctx context.Context, record *model.SessionRecord) error
	ListRecords(ctx context.Context, userID string, limit int) ([]model.SessionRecord, error)
}

type TimerStore interface {
	SettingsStore
	HistoryStore
}
