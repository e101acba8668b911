package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/accesskeep/accesskeep/internal/models"
	"github.com/accesskeep/accesskeep/internal/realtime"
	"github.com/accesskeep/accesskeep/pkg/metrics"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	Type            string `json:"type"`
	Subject         string `json:"subject"`
	Message         string `json:"message"`
	ClientID        string `json:"client_id,omitempty"`
	TimestampMicros int64  `json:"timestamp"`
	Pending         bool   `json:"pending"`
}

// SendNotificationInput defines attributes required to append a notification.
type SendNotificationInput struct {
	UserID   string
	Type     string
	Subject  string
	Message  string
	ClientID string
}

// ListAndResetInput controls pagination and filtering for the full-history read.
type ListAndResetInput struct {
	UserID string
	Offset int
	Count  int
	Filter string
}

// NotificationService maintains the per-user append-only notification feed.
// Entries are appended pending and flip to seen exactly once.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
	now func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub, now: time.Now}, nil
}

// Send appends a pending notification to the user's feed.
func (s *NotificationService) Send(ctx context.Context, input SendNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	notification := models.Notification{
		UserID:          userID,
		Type:            notificationType,
		Subject:         strings.TrimSpace(input.Subject),
		Message:         strings.TrimSpace(input.Message),
		ClientID:        strings.TrimSpace(input.ClientID),
		TimestampMicros: unixMicros(s.now()),
		Pending:         true,
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: send notification: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues(notificationType).Inc()

	dto := mapNotification(notification)
	s.broadcast(userID, realtime.Event{
		Event:        "notification.created",
		Notification: &dto,
	})
	return &dto, nil
}

// PendingCount returns the number of notifications not yet seen by the user.
func (s *NotificationService) PendingCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("notification service: user id is required")
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND pending = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notification service: count pending: %w", err)
	}
	return count, nil
}

// ListPending returns pending notifications in ascending timestamp order,
// optionally restricted to entries at or after sinceMicros.
func (s *NotificationService) ListPending(ctx context.Context, userID string, sinceMicros *int64) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ? AND pending = ?", userID, true)
	if sinceMicros != nil {
		query = query.Where("timestamp_micros >= ?", *sinceMicros)
	}

	var rows []models.Notification
	if err := query.Order("timestamp_micros ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list pending: %w", err)
	}
	return mapNotificationRows(rows), nil
}

// ListAndReset returns a page of the full feed, most-recent-first, and flips
// every entry that was pending at the start of the call to seen. The read
// and the flip run in one transaction, so a notification arriving mid-call
// is either part of the reset set or left pending in full.
func (s *NotificationService) ListAndReset(ctx context.Context, input ListAndResetInput) ([]NotificationDTO, int64, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, 0, errors.New("notification service: user id is required")
	}

	count := input.Count
	if count <= 0 || count > 1000 {
		count = 50
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		rows  []models.Notification
		total int64
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Notification{}).Where("user_id = ?", userID)
		if filter := strings.TrimSpace(input.Filter); filter != "" {
			pattern := "%" + escapeLike(filter) + "%"
			query = query.Where("message LIKE ? ESCAPE '\\' OR subject LIKE ? ESCAPE '\\'", pattern, pattern)
		}

		if err := query.Count(&total).Error; err != nil {
			return err
		}

		if err := query.
			Order("timestamp_micros DESC, id DESC").
			Limit(count).
			Offset(offset).
			Find(&rows).Error; err != nil {
			return err
		}

		// Flipping nothing is a defined no-op, not an error.
		return tx.Model(&models.Notification{}).
			Where("user_id = ? AND pending = ?", userID, true).
			Update("pending", false).Error
	})
	if err != nil {
		return nil, 0, fmt.Errorf("notification service: list and reset: %w", err)
	}

	return mapNotificationRows(rows), total, nil
}

// DeleteSeenBefore removes seen notifications older than the cutoff. Pending
// entries are never removed; the user has not acknowledged them yet.
func (s *NotificationService) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("pending = ? AND timestamp_micros < ?", false, unixMicros(cutoff)).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: delete seen: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) broadcast(userID string, event realtime.Event) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(userID, event)
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:              row.ID,
		UserID:          row.UserID,
		Type:            row.Type,
		Subject:         row.Subject,
		Message:         row.Message,
		ClientID:        row.ClientID,
		TimestampMicros: row.TimestampMicros,
		Pending:         row.Pending,
	}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
