package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"heatzy_bridge/internal/models"
	"heatzy_bridge/internal/repository"
)

// maxLogLimit caps a single listing.
const maxLogLimit = 1000

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidLimit     = errors.New("invalid limit: must not be negative")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeFilter validates f and turns it into a repository filter.
func normalizeFilter(f LogFilter) (repository.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EventFilter{}, errInvalidTimeRange
	}
	if f.Limit < 0 {
		return repository.EventFilter{}, errInvalidLimit
	}

	limit := f.Limit
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return repository.EventFilter{
		From:     from,
		To:       to,
		Type:     strings.TrimSpace(strings.ToUpper(f.Type)),
		DeviceID: strings.TrimSpace(f.DeviceID),
		Limit:    limit,
	}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ModeEvent, error) {
	rf, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, rf)
}
