package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/accesskeep/accesskeep/internal/models"
	apperrors "github.com/accesskeep/accesskeep/pkg/errors"
)

// DefaultGlobalNotificationDuration is how long a broadcast stays visible
// when the administrator does not choose a duration.
const DefaultGlobalNotificationDuration = 14 * 24 * time.Hour

// AddGlobalNotificationInput describes a broadcast to store.
type AddGlobalNotificationInput struct {
	Severity string
	Header   string
	Content  string
	Link     string
	ShowFrom *time.Time    // defaults to now
	Duration time.Duration // defaults to DefaultGlobalNotificationDuration
}

// GlobalNotificationDTO is the API-friendly broadcast payload.
type GlobalNotificationDTO struct {
	ID             string `json:"id"`
	Severity       string `json:"severity"`
	Header         string `json:"header"`
	Content        string `json:"content,omitempty"`
	Link           string `json:"link,omitempty"`
	ShowFromMicros int64  `json:"show_from"`
	DurationMicros int64  `json:"duration"`
}

// GlobalNotificationService stores time-windowed broadcast messages shown to
// every user. Broadcasts expire by time alone; nothing deletes them for
// correctness.
type GlobalNotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGlobalNotificationService constructs a GlobalNotificationService.
func NewGlobalNotificationService(db *gorm.DB) (*GlobalNotificationService, error) {
	if db == nil {
		return nil, errors.New("global notification service: db is required")
	}
	return &GlobalNotificationService{db: db, now: time.Now}, nil
}

// Add stores a broadcast, applying the default window when unset.
func (s *GlobalNotificationService) Add(ctx context.Context, input AddGlobalNotificationInput) (*GlobalNotificationDTO, error) {
	ctx = ensureContext(ctx)

	severity := strings.ToUpper(strings.TrimSpace(input.Severity))
	if models.SeverityRank(severity) == 0 {
		return nil, apperrors.NewInvalidArgument("severity must be one of ERROR, WARNING, INFO")
	}
	header := strings.TrimSpace(input.Header)
	if header == "" {
		return nil, apperrors.NewInvalidArgument("header is required")
	}

	showFrom := s.now()
	if input.ShowFrom != nil {
		showFrom = *input.ShowFrom
	}
	duration := input.Duration
	if duration <= 0 {
		duration = DefaultGlobalNotificationDuration
	}

	notification := models.GlobalNotification{
		Severity:       severity,
		Header:         header,
		Content:        strings.TrimSpace(input.Content),
		Link:           strings.TrimSpace(input.Link),
		ShowFromMicros: unixMicros(showFrom),
		DurationMicros: duration.Microseconds(),
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("global notification service: add: %w", err)
	}

	dto := mapGlobalNotification(notification)
	return &dto, nil
}

// ListActive returns broadcasts whose window contains now, ordered by
// severity (ERROR > WARNING > INFO) then show_from descending.
func (s *GlobalNotificationService) ListActive(ctx context.Context, now time.Time) ([]GlobalNotificationDTO, error) {
	ctx = ensureContext(ctx)
	nowMicros := unixMicros(now)

	var rows []models.GlobalNotification
	err := s.db.WithContext(ctx).
		Where("show_from_micros <= ? AND show_from_micros + duration_micros > ?", nowMicros, nowMicros).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("global notification service: list active: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := models.SeverityRank(rows[i].Severity), models.SeverityRank(rows[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return rows[i].ShowFromMicros > rows[j].ShowFromMicros
	})

	items := make([]GlobalNotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapGlobalNotification(row))
	}
	return items, nil
}

// DeleteExpiredBefore removes broadcasts whose window closed before the
// cutoff. Retention housekeeping only; visibility already excludes them.
func (s *GlobalNotificationService) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("show_from_micros + duration_micros < ?", unixMicros(cutoff)).
		Delete(&models.GlobalNotification{})
	if result.Error != nil {
		return 0, fmt.Errorf("global notification service: delete expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func mapGlobalNotification(row models.GlobalNotification) GlobalNotificationDTO {
	return GlobalNotificationDTO{
		ID:             row.ID,
		Severity:       row.Severity,
		Header:         row.Header,
		Content:        row.Content,
		Link:           row.Link,
		ShowFromMicros: row.ShowFromMicros,
		DurationMicros: row.DurationMicros,
	}
}
