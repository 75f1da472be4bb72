package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
	"github.com/fieldsight/fieldsight/pkg/logger"
	"github.com/fieldsight/fieldsight/pkg/mail"
	"github.com/fieldsight/fieldsight/pkg/metrics"
)

// notificationStreamEntity is the collab entity under which per-user
// notification events are pushed. Clients subscribe to
// "notifications:<userID>" to receive them live.
const notificationStreamEntity = "notifications"

// LiveBroadcaster pushes events onto the collaboration hub. Satisfied by
// *collab.Hub; nil disables live pushes entirely.
type LiveBroadcaster interface {
	Broadcast(entity, entityID string, msg collab.Message)
}

// NotificationDTO is the API-facing notification payload.
type NotificationDTO struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Priority   string         `json:"priority"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IsRead     bool           `json:"is_read"`
	CreatedAt  time.Time      `json:"created_at"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines the attributes of a new notification.
type CreateNotificationInput struct {
	UserID     string
	Type       string
	Title      string
	Message    string
	Priority   string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

// ListNotificationsInput filters a user's notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationService manages the persisted notification channel. Live
// pushes and email are best-effort side channels: their failures are
// logged and never surface to the caller.
type NotificationService struct {
	db     *gorm.DB
	hub    LiveBroadcaster
	mailer mail.Mailer
	log    *zap.Logger
}

// NewNotificationService constructs a NotificationService. hub and mailer
// may be nil to disable the corresponding side channel.
func NewNotificationService(db *gorm.DB, hub LiveBroadcaster, mailer mail.Mailer) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:     db,
		hub:    hub,
		mailer: mailer,
		log:    logger.WithModule("notifications"),
	}, nil
}

// Create persists a notification, then pushes it to the user's live
// stream and, for urgent priority, attempts email delivery.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	row := models.Notification{
		UserID:     userID,
		Type:       notificationType,
		Title:      strings.TrimSpace(input.Title),
		Message:    strings.TrimSpace(input.Message),
		Priority:   strings.TrimSpace(defaultIfEmpty(input.Priority, models.PriorityMedium)),
		EntityType: strings.TrimSpace(input.EntityType),
		EntityID:   strings.TrimSpace(input.EntityID),
	}

	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: encode metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		metrics.NotificationFanout.WithLabelValues(notificationType, "error").Inc()
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}
	metrics.NotificationFanout.WithLabelValues(notificationType, "ok").Inc()

	dto := mapNotificationRow(row)
	s.pushLive(dto)
	if row.Priority == models.PriorityUrgent {
		s.emailUrgent(ctx, dto)
	}
	return &dto, nil
}

// ListForUser returns a user's notifications newest first.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	out := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapNotificationRow(row))
	}
	return out, nil
}

// UnreadCount reports how many notifications the user has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("notification service: user id is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read for the owning user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	row, err := s.ownedNotification(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}

	if !row.IsRead {
		now := time.Now()
		row.IsRead = true
		row.ReadAt = &now
		if err := s.db.WithContext(ctx).Model(row).
			Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
			return nil, fmt.Errorf("notification service: mark read: %w", err)
		}
	}

	dto := mapNotificationRow(*row)
	return &dto, nil
}

// MarkAllRead flags every unread notification for the user and reports
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("notification service: user id is required")
	}

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes one notification owned by the user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	row, err := s.ownedNotification(ctx, userID, notificationID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return fmt.Errorf("notification service: delete notification: %w", err)
	}
	return nil
}

// PurgeReadOlderThan removes read notifications beyond the retention
// window and returns the number deleted.
func (s *NotificationService) PurgeReadOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)
	if retention <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-retention)
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: purge notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) ownedNotification(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" || notificationID == "" {
		return nil, errors.New("notification service: user id and notification id are required")
	}

	var row models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}
	return &row, nil
}

// pushLive forwards the notification onto the user's collab stream.
func (s *NotificationService) pushLive(dto NotificationDTO) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(notificationStreamEntity, dto.UserID, collab.Message{
		Type:   collab.TypeBroadcast,
		Action: "notification.created",
		Data:   dto,
	})
}

func (s *NotificationService) emailUrgent(ctx context.Context, dto NotificationDTO) {
	if s.mailer == nil {
		return
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", dto.UserID).Error; err != nil {
		s.log.Debug("urgent email skipped: user lookup failed",
			zap.String("user_id", dto.UserID), zap.Error(err))
		return
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		Subject: fmt.Sprintf("[FieldSight] %s", dto.Title),
		Body:    dto.Message,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("urgent email delivery failed",
			zap.String("user_id", dto.UserID), zap.Error(err))
	}
}

func mapNotificationRow(row models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:         row.ID,
		UserID:     row.UserID,
		Type:       row.Type,
		Title:      row.Title,
		Message:    row.Message,
		Priority:   row.Priority,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		IsRead:     row.IsRead,
		CreatedAt:  row.CreatedAt,
		ReadAt:     row.ReadAt,
	}

	if len(row.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(row.Metadata, &meta); err == nil {
			dto.Metadata = meta
		}
	}
	return dto
}
