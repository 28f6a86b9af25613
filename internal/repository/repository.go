package repository

import (
	"context"
	"database/sql"
	"time"

	"heatzy_bridge/internal/models"
)

// sqliteTimeLayout is how timestamps are written so that lexical and
// chronological order agree.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EndpointRepo persists the known (device, mode) endpoints.
type EndpointRepo interface {
	List(ctx context.Context) ([]models.EndpointRecord, error)
	Save(ctx context.Context, rec models.EndpointRecord) error
	Delete(ctx context.Context, id string) error
}

// EventFilter narrows an event listing. Zero fields do not filter.
type EventFilter struct {
	From     time.Time
	To       time.Time
	Type     string
	DeviceID string
	Limit    int
}

type EventRepo interface {
	Append(ctx context.Context, e models.ModeEvent) error
	List(ctx context.Context, f EventFilter) ([]models.ModeEvent, error)
}

type Repository struct {
	Endpoints EndpointRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Endpoints: NewEndpointSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}
